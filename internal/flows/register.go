package flows

import (
	"context"
	"errors"
	"strings"

	"github.com/MrEthical07/prepwise/internal/logging"
)

type RegisterRequest struct {
	IdentityID  string
	DisplayName string
	Email       string
}

type RegisterMetrics struct {
	Success    int
	Duplicate  int
	EmailInUse int
	Failure    int
}

type RegisterEvents struct {
	Success   string
	Duplicate string
	Failure   string
}

type RegisterMessages struct {
	AlreadyExists string
	Created       string
	EmailInUse    string
	Failed        string
}

// RegisterDeps captures profile registration dependencies.
type RegisterDeps struct {
	GetProfile        func(ctx context.Context, id string) (ProfileRecord, error)
	SetProfile        func(ctx context.Context, id string, rec ProfileRecord) error
	IsProfileNotFound func(error) bool
	IsEmailInUse      func(error) bool

	Logger    logging.Logger
	MetricInc func(int)
	EmitAudit EmitAuditFunc

	Metrics  RegisterMetrics
	Events   RegisterEvents
	Messages RegisterMessages
}

var errMissingIdentityID = errors.New("identity id is required")

// RunRegister stores the profile for a newly created identity. An existing
// profile is never overwritten.
func RunRegister(ctx context.Context, req RegisterRequest, deps RegisterDeps) Result {
	if strings.TrimSpace(req.IdentityID) == "" {
		return registerFailed(ctx, req, errMissingIdentityID, deps)
	}

	_, err := deps.GetProfile(ctx, req.IdentityID)
	switch {
	case err == nil:
		deps.MetricInc(deps.Metrics.Duplicate)
		deps.EmitAudit(ctx, deps.Events.Duplicate, false, req.IdentityID, "", nil, nil)
		return Result{Success: false, Message: deps.Messages.AlreadyExists}
	case !deps.IsProfileNotFound(err):
		return registerFailed(ctx, req, err, deps)
	}

	rec := ProfileRecord{DisplayName: req.DisplayName, Email: req.Email}
	if err := deps.SetProfile(ctx, req.IdentityID, rec); err != nil {
		return registerFailed(ctx, req, err, deps)
	}

	deps.MetricInc(deps.Metrics.Success)
	deps.EmitAudit(ctx, deps.Events.Success, true, req.IdentityID, "", nil, nil)
	return Result{Success: true, Message: deps.Messages.Created}
}

func registerFailed(ctx context.Context, req RegisterRequest, err error, deps RegisterDeps) Result {
	deps.Logger.Warn(ctx, "register failed", "user_id", req.IdentityID, "error", err)

	if deps.IsEmailInUse(err) {
		deps.MetricInc(deps.Metrics.EmailInUse)
		deps.EmitAudit(ctx, deps.Events.Failure, false, req.IdentityID, "", err, func() map[string]string {
			return map[string]string{"reason": "email_in_use"}
		})
		return Result{Success: false, Message: deps.Messages.EmailInUse}
	}

	deps.MetricInc(deps.Metrics.Failure)
	deps.EmitAudit(ctx, deps.Events.Failure, false, req.IdentityID, "", err, nil)
	return Result{Success: false, Message: deps.Messages.Failed}
}
