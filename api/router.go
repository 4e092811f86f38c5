package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/gitanshu/qrgen/app"
	"github.com/gitanshu/qrgen/export"
	"github.com/gitanshu/qrgen/store"
)

// DiskWriter saves a composite and returns its ledger record.
type DiskWriter interface {
	Write(ctx context.Context, blob export.Blob) (store.ExportRecord, error)
}

// ExportLister reads the export ledger.
type ExportLister interface {
	List(ctx context.Context, limit int) ([]store.ExportRecord, error)
}

// Server holds the dependencies for all HTTP handlers.
type Server struct {
	Controller *app.Controller
	Disk       DiskWriter   // may be nil: POST /export is then unavailable
	Ledger     ExportLister // may be nil
	Log        *slog.Logger
	Version    string
	StartTime  time.Time
}

// NewRouter returns a fully configured chi router with all API routes.
func NewRouter(s *Server) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(corsMiddleware)
	r.Use(requestLogger(s.Log))

	// Web UI
	r.Get("/", s.handlePage)
	r.Get("/status", s.handleStatus)
	r.Get("/state", s.handleState)

	// Form & generation
	r.Put("/form", s.handleSetForm)
	r.Post("/generate", s.handleGenerate)
	r.Get("/code.png", s.handleCodePNG)
	r.Post("/copy", s.handleCopy)

	// Export
	r.Get("/export/{format}", s.handleDownload)
	r.Post("/export/{format}", s.handleSaveExport)
	r.Get("/exports", s.handleListExports)

	// History
	r.Get("/history", s.handleGetHistory)
	r.Post("/history/toggle", s.handleToggleHistory)
	r.Post("/history/{id}/select", s.handleSelectHistory)

	return r
}

// --- helpers ----------------------------------------------------------------

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeAppError maps controller errors onto status codes.
func writeAppError(w http.ResponseWriter, err error) {
	var encErr *app.EncodeError
	switch {
	case errors.Is(err, app.ErrEmptyInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrNoCode), errors.Is(err, app.ErrUnknownEntry):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, app.ErrStale):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, app.ErrNoClipboard):
		writeError(w, http.StatusNotImplemented, err.Error())
	case errors.As(err, &encErr):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// --- middleware --------------------------------------------------------------

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Debug("http request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
			next.ServeHTTP(w, r)
		})
	}
}
