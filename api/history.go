package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Controller.State().History)
}

func (s *Server) handleToggleHistory(w http.ResponseWriter, r *http.Request) {
	show := s.Controller.ToggleHistory()
	writeJSON(w, http.StatusOK, map[string]bool{"show_history": show})
}

func (s *Server) handleSelectHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.Controller.SelectHistory(id); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Controller.State().Form)
}
