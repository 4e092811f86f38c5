package tui

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitanshu/qrgen/app"
	"github.com/gitanshu/qrgen/export"
	"github.com/gitanshu/qrgen/qr"
	"github.com/gitanshu/qrgen/save"
)

type memSaver struct {
	mu    sync.Mutex
	names []string
}

func (s *memSaver) Save(_ context.Context, b export.Blob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names = append(s.names, b.Filename)
	return nil
}

func newModel(t *testing.T, saver save.Saver) (*Model, *app.Controller) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctl := app.New(app.Config{
		Encoder:        qr.NewEncoder(),
		Composer:       export.NewComposer(export.DefaultLayout(), log),
		Saver:          saver,
		EncodeOptions:  qr.DefaultOptions(),
		NotifyDuration: time.Minute,
		Log:            log,
	})
	t.Cleanup(ctl.Close)
	return New(context.Background(), ctl, qr.LevelMedium), ctl
}

// press feeds a key through Update and runs the resulting command, if any,
// feeding its message back in.
func press(t *testing.T, m *Model, k tea.KeyMsg) {
	t.Helper()
	_, cmd := m.Update(k)
	if cmd != nil {
		m.Update(cmd())
	}
}

func typeText(t *testing.T, m *Model, s string) {
	t.Helper()
	press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func TestTypingEditsFocusedField(t *testing.T) {
	m, ctl := newModel(t, nil)

	typeText(t, m, "hello")
	press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	typeText(t, m, "wörld")
	press(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	typeText(t, m, "Site")

	assert.Equal(t, app.Form{Text: "hello wörl", Title: "Site"}, ctl.State().Form)
}

func TestEnterGeneratesPreview(t *testing.T) {
	m, ctl := newModel(t, nil)
	typeText(t, m, "https://example.com")
	press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, ctl.Code())
	assert.NotEmpty(t, m.preview)
	view := m.View()
	assert.Contains(t, view, "▀")
	assert.Contains(t, view, "QR by gitanshu.world")
	assert.Contains(t, view, "QR code generated successfully!")
}

func TestEnterWithEmptyInputShowsError(t *testing.T) {
	m, ctl := newModel(t, nil)
	press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, ctl.Code())
	assert.Contains(t, m.status, app.ErrEmptyInput.Error())
}

func TestExportKeys(t *testing.T) {
	saver := &memSaver{}
	m, _ := newModel(t, saver)

	press(t, m, tea.KeyMsg{Type: tea.KeyCtrlP})
	assert.Contains(t, m.status, app.ErrNoCode.Error())
	assert.Empty(t, saver.names)

	typeText(t, m, "x")
	press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	typeText(t, m, "Label")
	press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	press(t, m, tea.KeyMsg{Type: tea.KeyCtrlP})
	press(t, m, tea.KeyMsg{Type: tea.KeyCtrlJ})

	assert.Equal(t, []string{"Label.png", "Label.jpg"}, saver.names)
	assert.Equal(t, "saved Label.jpg", m.status)
}

func TestHistoryPanelSelect(t *testing.T) {
	m, ctl := newModel(t, nil)
	for _, s := range []string{"a", "b"} {
		ctl.SetForm(s, "")
		press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	}

	// Digits are plain input while the panel is closed.
	typeText(t, m, "2")
	assert.Equal(t, "b2", ctl.State().Form.Text)

	press(t, m, tea.KeyMsg{Type: tea.KeyCtrlO})
	require.True(t, ctl.State().Flags.ShowHistory)
	assert.Contains(t, m.View(), "[2] a")

	typeText(t, m, "2")
	st := ctl.State()
	assert.Equal(t, "a", st.Form.Text)
	assert.False(t, st.Flags.ShowHistory)
}

func TestCopyWithoutClipboardReportsError(t *testing.T) {
	m, _ := newModel(t, nil)
	typeText(t, m, "x")
	press(t, m, tea.KeyMsg{Type: tea.KeyCtrlY})
	assert.Contains(t, m.status, app.ErrNoClipboard.Error())
}

func TestQuitKeys(t *testing.T) {
	m, _ := newModel(t, nil)
	for _, k := range []tea.KeyMsg{{Type: tea.KeyEsc}, {Type: tea.KeyCtrlC}} {
		_, cmd := m.Update(k)
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
	}
}
