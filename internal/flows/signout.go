package flows

import (
	"context"
	"net/http"

	"github.com/MrEthical07/prepwise/internal/logging"
)

type SignOutMetrics struct {
	SignOut int
	Failure int
}

type SignOutEvents struct {
	SignOut string
}

type SignOutMessages struct {
	SignedOut string
	Failed    string
}

// SignOutDeps captures sign-out dependencies.
type SignOutDeps struct {
	CookieName    string
	ExpiredCookie func() *http.Cookie
	RevokeSession func(ctx context.Context, cookie string) error

	Logger    logging.Logger
	MetricInc func(int)
	EmitAudit EmitAuditFunc

	Metrics  SignOutMetrics
	Events   SignOutEvents
	Messages SignOutMessages
}

// RunSignOut clears the session cookie and revokes the session behind it.
// The cookie is cleared even when revocation fails.
func RunSignOut(ctx context.Context, jar CookieJar, deps SignOutDeps) Result {
	value, ok := jar.Cookie(deps.CookieName)
	jar.SetCookie(deps.ExpiredCookie())

	if ok && value != "" {
		if err := deps.RevokeSession(ctx, value); err != nil {
			deps.Logger.Warn(ctx, "sign out failed", "error", err)
			deps.MetricInc(deps.Metrics.Failure)
			deps.EmitAudit(ctx, deps.Events.SignOut, false, "", "", err, nil)
			return Result{Success: false, Message: deps.Messages.Failed}
		}
	}

	deps.MetricInc(deps.Metrics.SignOut)
	deps.EmitAudit(ctx, deps.Events.SignOut, true, "", "", nil, func() map[string]string {
		return map[string]string{"had_cookie": boolString(ok && value != "")}
	})
	return Result{Success: true, Message: deps.Messages.SignedOut}
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
