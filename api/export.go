package api

import (
	"context"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gitanshu/qrgen/export"
	"github.com/gitanshu/qrgen/save"
	"github.com/gitanshu/qrgen/store"
)

const (
	defaultExportsLimit = 50
	maxExportsLimit     = 500
)

// attachment streams a composite to the client as a download.
func attachment(w http.ResponseWriter) save.Saver {
	return save.Func(func(_ context.Context, blob export.Blob) error {
		disposition := mime.FormatMediaType("attachment", map[string]string{"filename": blob.Filename})
		w.Header().Set("Content-Type", blob.MIME)
		w.Header().Set("Content-Disposition", disposition)
		w.Header().Set("Content-Length", strconv.Itoa(len(blob.Data)))
		w.WriteHeader(http.StatusOK)
		_, err := w.Write(blob.Data)
		return err
	})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := s.Controller.ExportTo(r.Context(), format, attachment(w)); err != nil {
		// Once the body started there is nothing left to report.
		if w.Header().Get("Content-Disposition") != "" {
			s.Log.Warn("download interrupted", "error", err)
			return
		}
		writeAppError(w, err)
	}
}

func (s *Server) handleSaveExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if s.Disk == nil {
		writeError(w, http.StatusServiceUnavailable, "saving to disk is not configured")
		return
	}

	var rec store.ExportRecord
	toDisk := save.Func(func(ctx context.Context, blob export.Blob) error {
		var err error
		rec, err = s.Disk.Write(ctx, blob)
		return err
	})
	if _, err := s.Controller.ExportTo(r.Context(), format, toDisk); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleListExports(w http.ResponseWriter, r *http.Request) {
	limit := defaultExportsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxExportsLimit)
	}
	if s.Ledger == nil {
		writeJSON(w, http.StatusOK, []store.ExportRecord{})
		return
	}

	recs, err := s.Ledger.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if recs == nil {
		recs = []store.ExportRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}
