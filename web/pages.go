package web

import (
	"net/http"

	"github.com/MrEthical07/prepwise/middleware"
)

func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	s.render(w, r, pageHome, http.StatusOK, pageData{
		Title: "PrepWise",
		User:  user,
	})
}

// interview renders the call screen. The call state is mock data; ?status=
// selects one of the four states for previewing.
func (s *Server) interview(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	status := CallInactive
	if q := r.URL.Query().Get("status"); q != "" {
		parsed, ok := ParseCallStatus(q)
		if !ok {
			http.Error(w, "unknown call status", http.StatusBadRequest)
			return
		}
		status = parsed
	}

	s.render(w, r, pageInterview, http.StatusOK, pageData{
		Title: "Interview",
		User:  user,
		Agent: newAgentView(user, status, true),
	})
}
