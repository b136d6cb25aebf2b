package web

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"

	"github.com/MrEthical07/prepwise"
)

const (
	pageAuth      = "auth"
	pageHome      = "home"
	pageInterview = "interview"
)

type pageData struct {
	Title string
	User  *prepwise.User
	Flash *flash

	Form  formView
	Agent agentView
}

func parsePages() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, 3)
	for _, name := range []string{pageAuth, pageHome, pageInterview} {
		t, err := template.New(name).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("web: parse %s: %w", name, err)
		}
		pages[name] = t
	}
	return pages, nil
}

// render executes page into a buffer first so a template failure becomes a
// clean 500 instead of a half-written body.
func (s *Server) render(w http.ResponseWriter, r *http.Request, page string, status int, data pageData) {
	if data.Flash == nil {
		data.Flash = s.takeFlash(w, r)
	}

	var buf bytes.Buffer
	if err := s.pages[page].ExecuteTemplate(&buf, "layout", data); err != nil {
		s.log.Error(r.Context(), "render failed", "page", page, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
