package flows

import (
	"context"
	"net/http"
)

// Deps groups flow dependency sets. The root engine builds this once and
// delegates request methods to the matching flow.
type Deps struct {
	Session  SessionDeps
	Register RegisterDeps
	SignIn   SignInDeps
	SignOut  SignOutDeps
}

// CookieJar reads request cookies and writes response cookies for one request.
type CookieJar interface {
	Cookie(name string) (string, bool)
	SetCookie(c *http.Cookie)
}

// Result is the closed outcome handed to the presentation layer.
type Result struct {
	Success bool
	Message string
}

// ProfileRecord is the stored profile body without its key.
type ProfileRecord struct {
	DisplayName string
	Email       string
}

// UserRecord is a resolved user: the profile with the verified identifier merged in.
type UserRecord struct {
	ID          string
	DisplayName string
	Email       string
}

// EmitAuditFunc records an audit event: type, success, user id, session id,
// cause and a lazily built metadata map.
type EmitAuditFunc func(context.Context, string, bool, string, string, error, func() map[string]string)
