package flows

import (
	"context"

	"github.com/MrEthical07/prepwise/internal/logging"
)

type SignInRequest struct {
	Email   string
	IDToken string
}

type SignInMetrics struct {
	Success      int
	UserNotFound int
	Failure      int
}

type SignInEvents struct {
	Success string
	Failure string
}

type SignInMessages struct {
	UserNotFound string
	SignedIn     string
	Failed       string
}

// SignInDeps captures sign-in dependencies. CreateSession is the session
// flow bound to the engine's SessionDeps.
type SignInDeps struct {
	// GetUserByEmail returns the identifier registered for email.
	GetUserByEmail func(ctx context.Context, email string) (string, error)
	IsUserNotFound func(error) bool
	CreateSession  func(ctx context.Context, jar CookieJar, idToken string) error

	Logger    logging.Logger
	MetricInc func(int)
	EmitAudit EmitAuditFunc

	Metrics  SignInMetrics
	Events   SignInEvents
	Messages SignInMessages
}

// RunSignIn confirms the email is registered and then issues the session
// cookie. Unknown emails never reach CreateSession.
func RunSignIn(ctx context.Context, jar CookieJar, req SignInRequest, deps SignInDeps) Result {
	uid, err := deps.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if deps.IsUserNotFound(err) {
			deps.MetricInc(deps.Metrics.UserNotFound)
			deps.EmitAudit(ctx, deps.Events.Failure, false, "", "", err, func() map[string]string {
				return map[string]string{"reason": "user_not_found"}
			})
			return Result{Success: false, Message: deps.Messages.UserNotFound}
		}
		return signInFailed(ctx, "", err, deps)
	}

	if err := deps.CreateSession(ctx, jar, req.IDToken); err != nil {
		return signInFailed(ctx, uid, err, deps)
	}

	deps.MetricInc(deps.Metrics.Success)
	deps.EmitAudit(ctx, deps.Events.Success, true, uid, "", nil, nil)
	return Result{Success: true, Message: deps.Messages.SignedIn}
}

func signInFailed(ctx context.Context, uid string, err error, deps SignInDeps) Result {
	deps.Logger.Warn(ctx, "sign in failed", "user_id", uid, "error", err)
	deps.MetricInc(deps.Metrics.Failure)
	deps.EmitAudit(ctx, deps.Events.Failure, false, uid, "", err, nil)
	return Result{Success: false, Message: deps.Messages.Failed}
}
