package prepwise

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/prepwise/identity"
	"github.com/MrEthical07/prepwise/internal/flows"
	"github.com/MrEthical07/prepwise/internal/logging"
	"github.com/MrEthical07/prepwise/profile"
)

// Engine runs the session, registration and sign-in flows. It is safe for
// concurrent use once built.
type Engine struct {
	config   Config
	verifier CredentialVerifier
	profiles profile.Store
	logger   logging.Logger
	metrics  *Metrics
	audit    *auditDispatcher
	flowDeps flows.Deps
}

// Close drains pending audit events.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports events lost to a full audit buffer.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// SignInPath is where unauthenticated callers are sent.
func (e *Engine) SignInPath() string {
	return e.config.SignInPath
}

// CookieName is the name of the session cookie.
func (e *Engine) CookieName() string {
	return e.config.Cookie.Name
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) metricObserve(id MetricID, d time.Duration) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Observe(id, d)
}

func (e *Engine) getProfile(ctx context.Context, id string) (flows.ProfileRecord, error) {
	doc, err := e.profiles.Get(ctx, id)
	if err != nil {
		return flows.ProfileRecord{}, err
	}
	return flows.ProfileRecord{DisplayName: doc.Username, Email: doc.Email}, nil
}

func (e *Engine) setProfile(ctx context.Context, id string, rec flows.ProfileRecord) error {
	return e.profiles.Set(ctx, id, profile.Document{Username: rec.DisplayName, Email: rec.Email})
}

func isProfileNotFound(err error) bool {
	return errors.Is(err, profile.ErrNotFound)
}

func (e *Engine) buildFlowDeps() flows.Deps {
	metricInc := func(id int) { e.metricInc(MetricID(id)) }
	emitAudit := func(ctx context.Context, event string, success bool, userID, sessionID string, err error, md func() map[string]string) {
		e.emitAudit(ctx, event, success, userID, sessionID, err, md)
	}

	sessionDeps := flows.SessionDeps{
		CookieName: e.config.Cookie.Name,
		Lifetime:   e.config.Session.Lifetime,
		Now:        time.Now,
		NewCookie:  e.sessionCookie,
		CreateSessionCookie: func(ctx context.Context, idToken string, expiresIn time.Duration) (string, error) {
			return e.verifier.CreateSessionCookie(ctx, idToken, expiresIn)
		},
		VerifySessionCookie: func(ctx context.Context, cookie string) (string, error) {
			tok, err := e.verifier.VerifySessionCookie(ctx, cookie, true)
			if err != nil {
				return "", err
			}
			return tok.UID, nil
		},
		GetProfile:        e.getProfile,
		IsProfileNotFound: isProfileNotFound,
		Logger:            e.logger,
		MetricInc:         metricInc,
		MetricObserve:     func(id int, d time.Duration) { e.metricObserve(MetricID(id), d) },
		EmitAudit:         emitAudit,
		Metrics: flows.SessionMetrics{
			SessionCreated:       int(MetricSessionCreated),
			SessionCreateFailure: int(MetricSessionCreateFailure),
			SessionResolved:      int(MetricSessionResolved),
			SessionAbsent:        int(MetricSessionAbsent),
			ResolveLatency:       int(MetricResolveLatency),
		},
		Events: flows.SessionEvents{
			SessionCreated:       auditEventSessionCreated,
			SessionCreateFailure: auditEventSessionCreateFailure,
		},
	}

	return flows.Deps{
		Session: sessionDeps,
		Register: flows.RegisterDeps{
			GetProfile:        e.getProfile,
			SetProfile:        e.setProfile,
			IsProfileNotFound: isProfileNotFound,
			IsEmailInUse: func(err error) bool {
				return identity.HasCode(err, identity.CodeEmailAlreadyExists)
			},
			Logger:    e.logger,
			MetricInc: metricInc,
			EmitAudit: emitAudit,
			Metrics: flows.RegisterMetrics{
				Success:    int(MetricRegisterSuccess),
				Duplicate:  int(MetricRegisterDuplicate),
				EmailInUse: int(MetricRegisterEmailInUse),
				Failure:    int(MetricRegisterFailure),
			},
			Events: flows.RegisterEvents{
				Success:   auditEventRegisterSuccess,
				Duplicate: auditEventRegisterDuplicate,
				Failure:   auditEventRegisterFailure,
			},
			Messages: flows.RegisterMessages{
				AlreadyExists: MsgUserAlreadyExists,
				Created:       MsgUserCreated,
				EmailInUse:    MsgEmailInUse,
				Failed:        MsgCreateUserFailed,
			},
		},
		SignIn: flows.SignInDeps{
			GetUserByEmail: func(ctx context.Context, email string) (string, error) {
				acct, err := e.verifier.GetUserByEmail(ctx, email)
				if err != nil {
					return "", err
				}
				return acct.UID, nil
			},
			IsUserNotFound: func(err error) bool {
				return identity.HasCode(err, identity.CodeUserNotFound)
			},
			CreateSession: func(ctx context.Context, jar flows.CookieJar, idToken string) error {
				return flows.RunCreateSession(ctx, jar, idToken, sessionDeps)
			},
			Logger:    e.logger,
			MetricInc: metricInc,
			EmitAudit: emitAudit,
			Metrics: flows.SignInMetrics{
				Success:      int(MetricSignInSuccess),
				UserNotFound: int(MetricSignInUserNotFound),
				Failure:      int(MetricSignInFailure),
			},
			Events: flows.SignInEvents{
				Success: auditEventSignInSuccess,
				Failure: auditEventSignInFailure,
			},
			Messages: flows.SignInMessages{
				UserNotFound: MsgUserNotFound,
				SignedIn:     MsgSignedIn,
				Failed:       MsgSignInFailed,
			},
		},
		SignOut: flows.SignOutDeps{
			CookieName:    e.config.Cookie.Name,
			ExpiredCookie: e.expiredSessionCookie,
			RevokeSession: e.verifier.RevokeSession,
			Logger:        e.logger,
			MetricInc:     metricInc,
			EmitAudit:     emitAudit,
			Metrics: flows.SignOutMetrics{
				SignOut: int(MetricSignOut),
				Failure: int(MetricSignOutFailure),
			},
			Events: flows.SignOutEvents{
				SignOut: auditEventSignOut,
			},
			Messages: flows.SignOutMessages{
				SignedOut: MsgSignedOut,
				Failed:    MsgSignOutFailed,
			},
		},
	}
}
