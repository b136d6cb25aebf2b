package flows

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/MrEthical07/prepwise/internal/logging"
)

type SessionMetrics struct {
	SessionCreated       int
	SessionCreateFailure int
	SessionResolved      int
	SessionAbsent        int
	ResolveLatency       int
}

type SessionEvents struct {
	SessionCreated       string
	SessionCreateFailure string
}

// SessionDeps captures session issuance and resolution dependencies.
type SessionDeps struct {
	CookieName string
	Lifetime   time.Duration
	Now        func() time.Time
	NewCookie  func(value string) *http.Cookie

	CreateSessionCookie func(ctx context.Context, idToken string, expiresIn time.Duration) (string, error)
	// VerifySessionCookie returns the subject identifier of a live cookie.
	VerifySessionCookie func(ctx context.Context, cookie string) (string, error)
	GetProfile          func(ctx context.Context, id string) (ProfileRecord, error)
	IsProfileNotFound   func(error) bool

	Logger        logging.Logger
	MetricInc     func(int)
	MetricObserve func(int, time.Duration)
	EmitAudit     EmitAuditFunc

	Metrics SessionMetrics
	Events  SessionEvents
}

// RunCreateSession exchanges idToken for a session cookie and writes it to
// jar. Verifier errors are wrapped, not translated.
func RunCreateSession(ctx context.Context, jar CookieJar, idToken string, deps SessionDeps) error {
	value, err := deps.CreateSessionCookie(ctx, idToken, deps.Lifetime)
	if err != nil {
		deps.MetricInc(deps.Metrics.SessionCreateFailure)
		deps.EmitAudit(ctx, deps.Events.SessionCreateFailure, false, "", "", err, nil)
		return fmt.Errorf("create session cookie: %w", err)
	}

	jar.SetCookie(deps.NewCookie(value))

	deps.MetricInc(deps.Metrics.SessionCreated)
	deps.EmitAudit(ctx, deps.Events.SessionCreated, true, "", "", nil, func() map[string]string {
		return map[string]string{"lifetime": deps.Lifetime.String()}
	})
	return nil
}

// RunCurrentUser resolves the caller from the session cookie in jar. Every
// failure is reported as absent. Without a cookie the verifier is not called.
func RunCurrentUser(ctx context.Context, jar CookieJar, deps SessionDeps) (UserRecord, bool) {
	start := deps.Now()
	defer func() {
		deps.MetricObserve(deps.Metrics.ResolveLatency, deps.Now().Sub(start))
	}()

	value, ok := jar.Cookie(deps.CookieName)
	if !ok || value == "" {
		deps.MetricInc(deps.Metrics.SessionAbsent)
		return UserRecord{}, false
	}

	uid, err := deps.VerifySessionCookie(ctx, value)
	if err != nil {
		deps.Logger.Debug(ctx, "session cookie rejected", "error", err)
		deps.MetricInc(deps.Metrics.SessionAbsent)
		return UserRecord{}, false
	}

	doc, err := deps.GetProfile(ctx, uid)
	if err != nil {
		if deps.IsProfileNotFound(err) {
			deps.Logger.Debug(ctx, "no profile for verified session", "user_id", uid)
		} else {
			deps.Logger.Warn(ctx, "profile lookup failed", "user_id", uid, "error", err)
		}
		deps.MetricInc(deps.Metrics.SessionAbsent)
		return UserRecord{}, false
	}

	deps.MetricInc(deps.Metrics.SessionResolved)
	return UserRecord{ID: uid, DisplayName: doc.DisplayName, Email: doc.Email}, true
}
