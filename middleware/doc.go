// Package middleware adapts the prepwise engine to net/http.
//
// # Guards
//
//   - [RequireSession] resolves the session cookie on every request and
//     redirects anonymous callers to the sign-in page.
//   - [RedirectIfAuthenticated] bounces signed-in callers away from the auth pages.
//
// [RequestContext] stamps the client IP and a request id on the context so
// audit events and sign-in throttling can see them.
//
// # What this package must NOT do
//
//   - Read or verify session cookies itself (the engine does).
//   - Cache a resolution across requests.
package middleware
