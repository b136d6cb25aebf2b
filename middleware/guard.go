package middleware

import (
	"context"
	"net/http"

	"github.com/MrEthical07/prepwise"
)

// SessionResolver is the part of *prepwise.Engine the guards need.
type SessionResolver interface {
	CurrentUser(ctx context.Context, jar prepwise.CookieJar) (*prepwise.User, bool)
}

type userContextKey struct{}

// UserFromContext returns the user RequireSession resolved for this request.
func UserFromContext(ctx context.Context) (*prepwise.User, bool) {
	u, ok := ctx.Value(userContextKey{}).(*prepwise.User)
	return u, ok && u != nil
}

// WithUser stores u in ctx the way RequireSession does.
func WithUser(ctx context.Context, u *prepwise.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, u)
}

// RequireSession resolves the session on every request. Anonymous callers get
// a 307 to signInPath and next never runs.
func RequireSession(auth SessionResolver, signInPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth == nil {
				http.Redirect(w, r, signInPath, http.StatusTemporaryRedirect)
				return
			}

			user, ok := auth.CurrentUser(r.Context(), prepwise.NewHTTPCookieJar(w, r))
			if !ok {
				http.Redirect(w, r, signInPath, http.StatusTemporaryRedirect)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RedirectIfAuthenticated sends signed-in callers to `to`. Sign-in and
// sign-up pages use it.
func RedirectIfAuthenticated(auth SessionResolver, to string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth != nil {
				if _, ok := auth.CurrentUser(r.Context(), prepwise.NewHTTPCookieJar(w, r)); ok {
					http.Redirect(w, r, to, http.StatusSeeOther)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
