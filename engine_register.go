package prepwise

import (
	"context"

	"github.com/MrEthical07/prepwise/internal/flows"
)

// Register stores the profile of an identity the credential verifier just
// created. An identity that already has a profile is left untouched.
//
// The returned message is one of MsgUserAlreadyExists, MsgUserCreated,
// MsgEmailInUse or MsgCreateUserFailed.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) Result {
	if e == nil || e.profiles == nil {
		return Result{Success: false, Message: MsgCreateUserFailed}
	}
	return Result(flows.RunRegister(ctx, flows.RegisterRequest(req), e.flowDeps.Register))
}
