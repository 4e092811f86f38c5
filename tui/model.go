// Package tui is the terminal front end: a two-field form, a half-block QR
// preview and key bindings for every controller action.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gitanshu/qrgen/app"
	"github.com/gitanshu/qrgen/export"
	"github.com/gitanshu/qrgen/qr"
)

const tickInterval = 250 * time.Millisecond

type field int

const (
	fieldText field = iota
	fieldTitle
)

type (
	generatedMsg struct {
		code *app.GeneratedCode
		err  error
	}
	exportedMsg struct {
		blob export.Blob
		err  error
	}
	copiedMsg struct{ err error }
	tickMsg   time.Time
)

// Model drives an app.Controller from the keyboard. The controller's form is
// the only copy of the input fields.
type Model struct {
	ctx     context.Context
	ctl     *app.Controller
	level   qr.Level
	focus   field
	preview string
	status  string
}

// New returns a Model bound to ctl. level is used for the terminal preview.
func New(ctx context.Context, ctl *app.Controller, level qr.Level) *Model {
	return &Model{ctx: ctx, ctl: ctl, level: level}
}

func (m *Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tickMsg:
		// Flags clear on their own timers; the tick only redraws.
		return m, tick()
	case generatedMsg:
		switch {
		case errors.Is(msg.err, app.ErrStale):
		case msg.err != nil:
			m.status = "error: " + msg.err.Error()
		default:
			m.status = ""
			m.preview = m.renderPreview(msg.code)
		}
	case exportedMsg:
		if msg.err != nil {
			m.status = "error: " + msg.err.Error()
		} else {
			m.status = "saved " + msg.blob.Filename
		}
	case copiedMsg:
		if msg.err != nil {
			m.status = "error: " + msg.err.Error()
		}
	}
	return m, nil
}

func (m *Model) handleKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "tab", "shift+tab":
		if m.focus == fieldText {
			m.focus = fieldTitle
		} else {
			m.focus = fieldText
		}
		return m, nil
	case "enter":
		return m, m.generateCmd()
	case "ctrl+p":
		return m, m.exportCmd(export.FormatPNG)
	case "ctrl+j":
		return m, m.exportCmd(export.FormatJPG)
	case "ctrl+y":
		return m, m.copyCmd()
	case "ctrl+o":
		m.ctl.ToggleHistory()
		return m, nil
	}

	st := m.ctl.State()
	if st.Flags.ShowHistory && k.Type == tea.KeyRunes && len(k.Runes) == 1 {
		if n := int(k.Runes[0] - '1'); n >= 0 && n < 3 {
			if n < len(st.History) {
				if _, err := m.ctl.SelectHistory(st.History[n].ID); err != nil {
					m.status = "error: " + err.Error()
				}
			}
			return m, nil
		}
	}

	value := st.Form.Text
	if m.focus == fieldTitle {
		value = st.Form.Title
	}
	switch k.Type {
	case tea.KeyBackspace, tea.KeyCtrlH, tea.KeyDelete:
		if r := []rune(value); len(r) > 0 {
			value = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		value += " "
	case tea.KeyRunes:
		value += string(k.Runes)
	default:
		return m, nil
	}
	if m.focus == fieldTitle {
		m.ctl.SetTitle(value)
	} else {
		m.ctl.SetText(value)
	}
	return m, nil
}

// --- commands ---------------------------------------------------------------

func (m *Model) generateCmd() tea.Cmd {
	return func() tea.Msg {
		code, err := m.ctl.Generate(m.ctx)
		return generatedMsg{code: code, err: err}
	}
}

func (m *Model) exportCmd(format export.Format) tea.Cmd {
	return func() tea.Msg {
		blob, err := m.ctl.Export(m.ctx, format)
		return exportedMsg{blob: blob, err: err}
	}
}

func (m *Model) copyCmd() tea.Cmd {
	return func() tea.Msg {
		_, err := m.ctl.Copy(m.ctx)
		return copiedMsg{err: err}
	}
}

// --- view -------------------------------------------------------------------

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	focusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	bannerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func (m *Model) renderPreview(code *app.GeneratedCode) string {
	bits, err := qr.Bitmap(code.SourceText, m.level, true)
	if err != nil {
		return ""
	}
	return qr.HalfBlocks(bits)
}

func (m *Model) View() string {
	st := m.ctl.State()
	var b strings.Builder

	b.WriteString(titleStyle.Render("QR Code Generator") + "\n\n")
	b.WriteString(m.renderField("Title", st.Form.Title, fieldTitle) + "\n")
	b.WriteString(m.renderField("Text ", st.Form.Text, fieldText) + "\n")
	b.WriteString(mutedStyle.Render("[tab] Switch  [enter] Generate  [ctrl+p] PNG  [ctrl+j] JPG  [ctrl+y] Copy  [ctrl+o] History  [esc] Quit") + "\n")

	if st.Flags.Generating {
		b.WriteString("\nGenerating...\n")
	}
	if st.Code != nil && m.preview != "" {
		b.WriteString("\n")
		if strings.TrimSpace(st.Code.Title) != "" {
			b.WriteString(titleStyle.Render(st.Code.Title) + "\n")
		}
		b.WriteString(m.preview)
		b.WriteString(mutedStyle.Render("QR by gitanshu.world") + "\n")
	}
	if st.Flags.ShowThankYou {
		b.WriteString("\n" + bannerStyle.Render("QR code generated successfully!") + "\n")
	}
	if st.Flags.Copied {
		b.WriteString("\n" + bannerStyle.Render("Copied!") + "\n")
	}
	if st.Flags.ShowHistory {
		b.WriteString("\n" + renderHistory(st.History))
	}
	if m.status != "" {
		style := mutedStyle
		if strings.HasPrefix(m.status, "error: ") {
			style = errorStyle
		}
		b.WriteString("\n" + style.Render(m.status) + "\n")
	}
	return b.String()
}

func (m *Model) renderField(label, value string, f field) string {
	line := fmt.Sprintf("%s: %s", label, value)
	if m.focus == f {
		return focusStyle.Render(line + "▌")
	}
	return line
}

func renderHistory(entries []app.HistoryEntry) string {
	out := titleStyle.Render("Recent") + "\n"
	if len(entries) == 0 {
		return out + mutedStyle.Render("nothing generated yet") + "\n"
	}
	for i, e := range entries {
		label := e.Text
		if e.Title != "" {
			label = e.Title + " - " + e.Text
		}
		out += fmt.Sprintf("[%d] %s %s\n", i+1, label, mutedStyle.Render(e.CreatedAt.Local().Format("15:04:05")))
	}
	return out
}
