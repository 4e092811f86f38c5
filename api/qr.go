package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gitanshu/qrgen/app"
)

type formRequest struct {
	Text  string `json:"text"`
	Title string `json:"title"`
}

func (s *Server) handleSetForm(w http.ResponseWriter, r *http.Request) {
	var req formRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.Controller.SetForm(req.Text, req.Title)
	writeJSON(w, http.StatusOK, s.Controller.State().Form)
}

// handleGenerate accepts an optional form body; without one it generates
// from the form as it stands.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req formRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	switch {
	case errors.Is(err, io.EOF):
	case err != nil:
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	default:
		s.Controller.SetForm(req.Text, req.Title)
	}

	if _, err := s.Controller.Generate(r.Context()); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newStateResponse(s.Controller.State()))
}

func (s *Server) handleCodePNG(w http.ResponseWriter, r *http.Request) {
	code := s.Controller.Code()
	if code == nil {
		writeAppError(w, app.ErrNoCode)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(code.Raster)
}

type copyResponse struct {
	Text   string `json:"text"`
	Copied bool   `json:"copied"`
}

// handleCopy writes the form text to the server's clipboard and echoes it so
// the page can put it on the browser's clipboard too.
func (s *Server) handleCopy(w http.ResponseWriter, r *http.Request) {
	text, err := s.Controller.Copy(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, copyResponse{Text: text, Copied: true})
}
