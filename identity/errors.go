package identity

import (
	"errors"
	"fmt"
)

// Error codes mirror the identity platform's published vocabulary so callers
// written against it keep working.
const (
	CodeInvalidEmail                 = "auth/invalid-email"
	CodeWeakPassword                 = "auth/weak-password"
	CodeEmailAlreadyExists           = "auth/email-already-exists"
	CodeUserNotFound                 = "auth/user-not-found"
	CodeInvalidCredential            = "auth/invalid-credential"
	CodeTooManyRequests              = "auth/too-many-requests"
	CodeIDTokenExpired               = "auth/id-token-expired"
	CodeInvalidIDToken               = "auth/invalid-id-token"
	CodeInvalidSessionCookieDuration = "auth/invalid-session-cookie-duration"
	CodeSessionCookieExpired         = "auth/session-cookie-expired"
	CodeInvalidSessionCookie         = "auth/invalid-session-cookie"
	CodeSessionCookieRevoked         = "auth/session-cookie-revoked"
	CodeInternal                     = "auth/internal-error"
)

// Error is returned by every Verifier operation that fails.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newError(code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Err: cause}
}

// HasCode reports whether err, or anything it wraps, is an *Error with code.
func HasCode(err error, code string) bool {
	var ie *Error
	if !errors.As(err, &ie) {
		return false
	}
	return ie.Code == code
}

// CodeOf returns the code carried by err, or "" if it is not an identity error.
func CodeOf(err error) string {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Code
	}
	return ""
}
