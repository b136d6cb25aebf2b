package prepwise

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/prepwise/identity"
	"github.com/MrEthical07/prepwise/profile"
)

const (
	auditEventRegisterSuccess      = "register_success"
	auditEventRegisterDuplicate    = "register_duplicate"
	auditEventRegisterFailure      = "register_failure"
	auditEventSignInSuccess        = "sign_in_success"
	auditEventSignInFailure        = "sign_in_failure"
	auditEventSessionCreated       = "session_created"
	auditEventSessionCreateFailure = "session_create_failure"
	auditEventSignOut              = "sign_out"
)

// AuditErrorCode is the coarse cause recorded on a failed event.
type AuditErrorCode string

const (
	auditErrProfileNotFound AuditErrorCode = "profile_not_found"
	auditErrInternal        AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	sessionID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}
	if requestID := RequestIDFromContext(ctx); requestID != "" {
		if metadata == nil {
			metadata = make(map[string]string, 1)
		}
		metadata["request_id"] = requestID
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		SessionID: sessionID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

// auditErrorCode keeps provider codes as they are and buckets everything else.
func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}
	if code := identity.CodeOf(err); code != "" {
		return AuditErrorCode(code)
	}

	if errors.Is(err, profile.ErrNotFound) {
		return auditErrProfileNotFound
	}
	return auditErrInternal
}
