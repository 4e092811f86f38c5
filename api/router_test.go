package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	_ "image/jpeg"
	_ "image/png"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitanshu/qrgen/app"
	"github.com/gitanshu/qrgen/export"
	"github.com/gitanshu/qrgen/qr"
	"github.com/gitanshu/qrgen/save"
	"github.com/gitanshu/qrgen/store"
)

type testEnv struct {
	handler http.Handler
	ctl     *app.Controller
	outDir  string
}

func newTestEnv(t *testing.T, mutate ...func(*app.Config)) *testEnv {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()

	ledger, err := store.NewExportLog(filepath.Join(dir, "exports.db"))
	require.NoError(t, err)
	t.Cleanup(func() { ledger.Close() })

	outDir := filepath.Join(dir, "out")
	cfg := app.Config{
		Encoder:        qr.NewEncoder(),
		Composer:       export.NewComposer(export.DefaultLayout(), log),
		EncodeOptions:  qr.DefaultOptions(),
		NotifyDuration: time.Minute,
		Log:            log,
	}
	for _, m := range mutate {
		m(&cfg)
	}
	ctl := app.New(cfg)
	t.Cleanup(ctl.Close)

	srv := &Server{
		Controller: ctl,
		Disk:       save.NewDirSaver(outDir, ledger, log),
		Ledger:     ledger,
		Log:        log,
		Version:    "test",
		StartTime:  time.Now(),
	}
	return &testEnv{handler: NewRouter(srv), ctl: ctl, outDir: outDir}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestStatusAndPage(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodGet, "/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var st statusResponse
	decode(t, rec, &st)
	assert.Equal(t, "ok", st.Status)
	assert.Equal(t, "test", st.Version)
	assert.False(t, st.HasCode)

	rec = e.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "QR Code Generator")
}

func TestGenerateEmptyIs400(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, http.MethodPost, "/generate", formRequest{Text: "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, e.ctl.Code())
}

func TestGenerateAndState(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPost, "/generate", formRequest{Text: "https://example.com", Title: "My Site"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var st struct {
		Code struct {
			SourceText string `json:"source_text"`
			Title      string `json:"title"`
			DataURL    string `json:"data_url"`
		} `json:"code"`
		History []app.HistoryEntry `json:"history"`
		Flags   app.Flags          `json:"flags"`
	}
	decode(t, rec, &st)
	assert.Equal(t, "https://example.com", st.Code.SourceText)
	assert.Equal(t, "My Site", st.Code.Title)
	assert.True(t, strings.HasPrefix(st.Code.DataURL, "data:image/png;base64,"))
	assert.Len(t, st.History, 1)
	assert.True(t, st.Flags.ShowThankYou)

	rec = e.do(t, http.MethodGet, "/code.png", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	cfg, _, err := image.DecodeConfig(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, cfg.Width)
}

func TestGenerateWithoutBodyUsesForm(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, http.MethodPut, "/form", formRequest{Text: "from form"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodPost, "/generate", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "from form", e.ctl.Code().SourceText)
}

func TestCodePNGWithoutCode(t *testing.T) {
	e := newTestEnv(t)
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/code.png", nil).Code)
}

func TestDownloadExport(t *testing.T) {
	e := newTestEnv(t)
	require.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/export/png", nil).Code)

	e.do(t, http.MethodPost, "/generate", formRequest{Text: "https://example.com", Title: "My Site"})

	rec := e.do(t, http.MethodGet, "/export/png", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="My Site.png"`, rec.Header().Get("Content-Disposition"))
	cfg, format, err := image.DecodeConfig(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	w, h := export.DefaultLayout().Size(true)
	assert.Equal(t, w, cfg.Width)
	assert.Equal(t, h, cfg.Height)

	rec = e.do(t, http.MethodGet, "/export/jpeg", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "My Site.jpg")

	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodGet, "/export/gif", nil).Code)
}

func TestSaveExportRecordsLedger(t *testing.T) {
	e := newTestEnv(t)
	e.do(t, http.MethodPost, "/generate", formRequest{Text: "https://example.com"})

	rec := e.do(t, http.MethodPost, "/export/jpg", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var saved store.ExportRecord
	decode(t, rec, &saved)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, "qr-code.jpg", saved.Filename)
	assert.Equal(t, filepath.Join(e.outDir, "qr-code.jpg"), saved.Path)
	assert.FileExists(t, saved.Path)

	rec = e.do(t, http.MethodGet, "/exports?limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []store.ExportRecord
	decode(t, rec, &list)
	require.Len(t, list, 1)
	assert.Equal(t, saved.ID, list[0].ID)
	assert.Equal(t, "https://example.com", list[0].SourceText)

	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodGet, "/exports?limit=nope", nil).Code)
}

func TestHistoryRoutes(t *testing.T) {
	e := newTestEnv(t)
	for _, text := range []string{"a", "b", "c", "d"} {
		require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/generate", formRequest{Text: text, Title: "t-" + text}).Code)
	}

	var hist []app.HistoryEntry
	decode(t, e.do(t, http.MethodGet, "/history", nil), &hist)
	require.Len(t, hist, 3)
	assert.Equal(t, "d", hist[0].Text)

	var toggled map[string]bool
	decode(t, e.do(t, http.MethodPost, "/history/toggle", nil), &toggled)
	assert.True(t, toggled["show_history"])

	rec := e.do(t, http.MethodPost, "/history/"+hist[2].ID+"/select", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var f app.Form
	decode(t, rec, &f)
	assert.Equal(t, app.Form{Text: "b", Title: "t-b"}, f)
	assert.False(t, e.ctl.State().Flags.ShowHistory)
	assert.Equal(t, "d", e.ctl.Code().SourceText)

	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodPost, "/history/nope/select", nil).Code)
}

func TestCopyWithoutClipboard(t *testing.T) {
	e := newTestEnv(t)
	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodPost, "/copy", nil).Code)

	e.do(t, http.MethodPut, "/form", formRequest{Text: "x"})
	assert.Equal(t, http.StatusNotImplemented, e.do(t, http.MethodPost, "/copy", nil).Code)
}

type memClipboard struct {
	mu    sync.Mutex
	texts []string
}

func (c *memClipboard) WriteText(_ context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.texts = append(c.texts, text)
	return nil
}

func TestCopyEchoesCopiedText(t *testing.T) {
	clip := &memClipboard{}
	e := newTestEnv(t, func(c *app.Config) { c.Clipboard = clip })
	e.do(t, http.MethodPut, "/form", formRequest{Text: "https://example.com", Title: "ignored"})

	rec := e.do(t, http.MethodPost, "/copy", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp copyResponse
	decode(t, rec, &resp)
	assert.Equal(t, "https://example.com", resp.Text)
	assert.True(t, resp.Copied)
	assert.Equal(t, []string{"https://example.com"}, clip.texts)

	var st struct {
		Flags app.Flags `json:"flags"`
	}
	decode(t, e.do(t, http.MethodGet, "/state", nil), &st)
	assert.True(t, st.Flags.Copied)
}

func TestPageMirrorsCopyToBrowserClipboard(t *testing.T) {
	e := newTestEnv(t)
	body := e.do(t, http.MethodGet, "/", nil).Body.String()
	assert.Contains(t, body, "navigator.clipboard.writeText(text)")
	assert.Contains(t, body, "navigator.clipboard.writeText(r.text)")
	assert.Contains(t, body, "QR code generated successfully!")
}

func TestCORSPreflight(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, http.MethodOptions, "/generate", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
