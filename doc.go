// Package prepwise is the authentication core of the interview-practice app:
// session issuance and resolution, profile registration and sign-in.
//
// An [Engine] is assembled with [Builder] from a credential verifier and a
// profile store. Every request-scoped operation takes a [CookieJar] so the
// engine never reaches into ambient request state; [NewHTTPCookieJar] adapts
// net/http.
//
// Flows that end at the presentation layer ([Engine.Register], [Engine.SignIn],
// [Engine.SignOut]) return a [Result] drawn from a fixed message set and never
// an error. An invalid or missing session is reported as absent, not as an
// error.
//
// # What this package must NOT do
//
//   - Persist or log plaintext passwords.
//   - Expose Redis clients or store internals in its public API.
//   - Import any sub-package that re-imports prepwise.
package prepwise
