package prepwise

import (
	"context"

	"github.com/MrEthical07/prepwise/internal/flows"
)

// SignIn checks that req.Email belongs to a registered identity and then
// creates a session from req.IDToken. An unknown email never creates a
// session.
//
// The returned message is one of MsgUserNotFound, MsgSignedIn or
// MsgSignInFailed.
func (e *Engine) SignIn(ctx context.Context, jar CookieJar, req SignInRequest) Result {
	if e == nil || e.verifier == nil {
		return Result{Success: false, Message: MsgSignInFailed}
	}
	return Result(flows.RunSignIn(ctx, jar, flows.SignInRequest(req), e.flowDeps.SignIn))
}
