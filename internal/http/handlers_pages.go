package http

import (
	"net/http"

	"devbills/internal/auth"
)

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.UserFrom(r.Context()); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "home.html", s.newPage(w, r, "DevBills", "home", nil))
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if isHTMX(r) {
		ErrorResponse(http.StatusNotFound, "Página não encontrada").Write(w)
		return
	}
	s.render(w, r, http.StatusNotFound, "not_found.html", s.newPage(w, r, "Página não encontrada", "", nil))
}
