package prepwise

import (
	"context"
	"fmt"

	"github.com/MrEthical07/prepwise/internal/flows"
)

// CreateSession exchanges a freshly issued id token for a session cookie and
// writes it to jar with the configured lifetime. The verifier's error is
// wrapped with ErrSessionCreationFailed and stays reachable through errors.As.
func (e *Engine) CreateSession(ctx context.Context, jar CookieJar, idToken string) error {
	if e == nil || e.verifier == nil {
		return ErrEngineNotReady
	}
	if err := flows.RunCreateSession(ctx, jar, idToken, e.flowDeps.Session); err != nil {
		return fmt.Errorf("%w: %w", ErrSessionCreationFailed, err)
	}
	return nil
}

// CurrentUser resolves the signed-in user from jar. A missing, expired,
// revoked or otherwise invalid cookie, or a user with no profile, yields
// (nil, false). It never returns an error.
func (e *Engine) CurrentUser(ctx context.Context, jar CookieJar) (*User, bool) {
	if e == nil || e.verifier == nil {
		return nil, false
	}
	rec, ok := flows.RunCurrentUser(ctx, jar, e.flowDeps.Session)
	if !ok {
		return nil, false
	}
	return &User{ID: rec.ID, DisplayName: rec.DisplayName, Email: rec.Email}, true
}

// IsAuthenticated reports whether CurrentUser would yield a user.
func (e *Engine) IsAuthenticated(ctx context.Context, jar CookieJar) bool {
	_, ok := e.CurrentUser(ctx, jar)
	return ok
}

// SignOut expires the session cookie and revokes the session record.
func (e *Engine) SignOut(ctx context.Context, jar CookieJar) Result {
	if e == nil || e.verifier == nil {
		return Result{Success: false, Message: MsgSignOutFailed}
	}
	return Result(flows.RunSignOut(ctx, jar, e.flowDeps.SignOut))
}
