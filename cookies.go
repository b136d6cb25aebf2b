package prepwise

import (
	"net/http"
	"time"
)

// CookieJar is the request's cookie surface: read what the client sent and
// queue cookies for the response.
type CookieJar interface {
	Cookie(name string) (string, bool)
	SetCookie(c *http.Cookie)
}

type httpCookieJar struct {
	w http.ResponseWriter
	r *http.Request
}

// NewHTTPCookieJar adapts a net/http request/response pair. Cookies set
// through the jar are also visible to later reads on the same jar.
func NewHTTPCookieJar(w http.ResponseWriter, r *http.Request) CookieJar {
	return &httpCookieJar{w: w, r: r}
}

func (j *httpCookieJar) Cookie(name string) (string, bool) {
	c, err := j.r.Cookie(name)
	if err != nil {
		return "", false
	}
	return c.Value, true
}

func (j *httpCookieJar) SetCookie(c *http.Cookie) {
	if c == nil {
		return
	}
	http.SetCookie(j.w, c)

	// Keep the request view in step so a resolve after sign-in or sign-out
	// in the same request sees the new state.
	cookies := j.r.Cookies()
	j.r.Header.Del("Cookie")
	for _, existing := range cookies {
		if existing.Name != c.Name {
			j.r.AddCookie(existing)
		}
	}
	if c.MaxAge >= 0 && c.Value != "" {
		j.r.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
}

func (e *Engine) sessionCookie(value string) *http.Cookie {
	cfg := e.config.Cookie
	return &http.Cookie{
		Name:     cfg.Name,
		Value:    value,
		Path:     cfg.Path,
		Domain:   cfg.Domain,
		MaxAge:   int(e.config.Session.Lifetime / time.Second),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: cfg.SameSite,
	}
}

func (e *Engine) expiredSessionCookie() *http.Cookie {
	cfg := e.config.Cookie
	return &http.Cookie{
		Name:     cfg.Name,
		Value:    "",
		Path:     cfg.Path,
		Domain:   cfg.Domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: cfg.SameSite,
	}
}
