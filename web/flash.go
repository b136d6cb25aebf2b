package web

import (
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	flashCookie = "flash"
	flashTTL    = time.Minute
)

type flashKind string

const (
	flashSuccess flashKind = "success"
	flashError   flashKind = "error"
)

// flash is a one-shot toast carried across a redirect.
type flash struct {
	Kind    flashKind
	Message string
}

func (s *Server) setFlash(w http.ResponseWriter, kind flashKind, msg string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(string(kind) + ":" + msg),
		Path:     "/",
		MaxAge:   int(flashTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// takeFlash reads the pending flash and clears it.
func (s *Server) takeFlash(w http.ResponseWriter, r *http.Request) *flash {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	raw, err := url.QueryUnescape(c.Value)
	if err != nil {
		return nil
	}
	kind, msg, ok := strings.Cut(raw, ":")
	if !ok || msg == "" {
		return nil
	}
	switch flashKind(kind) {
	case flashSuccess, flashError:
		return &flash{Kind: flashKind(kind), Message: msg}
	default:
		return nil
	}
}
