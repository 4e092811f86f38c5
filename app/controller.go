// Package app owns the state of a QR generation session: the form, the
// current code, the recent history and the transient UI flags. Every user
// action is one Controller method, and every mutation happens inside one.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gitanshu/qrgen/clipboard"
	"github.com/gitanshu/qrgen/export"
	"github.com/gitanshu/qrgen/notify"
	"github.com/gitanshu/qrgen/qr"
	"github.com/gitanshu/qrgen/save"
)

// Flag names used as timer keys.
const (
	FlagThankYou = "show_thank_you"
	FlagCopied   = "copied"
)

// Composer renders an export from a raster.
type Composer interface {
	Compose(ctx context.Context, raster []byte, title string, format export.Format) (export.Blob, error)
}

// Config wires a Controller to its collaborators.
type Config struct {
	Encoder   qr.Encoder
	Composer  Composer
	Saver     save.Saver          // default destination for Export
	Clipboard clipboard.Clipboard // may be nil when copying is unsupported
	Notifier  notify.Notifier     // may be nil

	EncodeOptions  qr.Options
	HistorySize    int
	NotifyDuration time.Duration

	Log *slog.Logger
	Now func() time.Time
}

// Controller is safe for concurrent use. Slow work (encoding, composing,
// saving, clipboard writes) runs without holding the state lock.
type Controller struct {
	encoder   qr.Encoder
	composer  Composer
	saver     save.Saver
	clipboard clipboard.Clipboard
	notifier  notify.Notifier
	opts      qr.Options
	notifyFor time.Duration
	log       *slog.Logger
	now       func() time.Time
	timers    *Scheduler

	mu      sync.Mutex
	form    Form
	code    *GeneratedCode
	history *History
	flags   Flags
	genSeq  uint64            // token of the latest issued generation
	flagSeq map[string]uint64 // activation count per self-clearing flag
}

// New returns a Controller with empty state.
func New(cfg Config) *Controller {
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NotifyDuration <= 0 {
		cfg.NotifyDuration = 2 * time.Second
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = 3
	}
	return &Controller{
		encoder:   cfg.Encoder,
		composer:  cfg.Composer,
		saver:     cfg.Saver,
		clipboard: cfg.Clipboard,
		notifier:  cfg.Notifier,
		opts:      cfg.EncodeOptions,
		notifyFor: cfg.NotifyDuration,
		log:       cfg.Log,
		now:       cfg.Now,
		timers:    NewScheduler(),
		history:   NewHistory(cfg.HistorySize),
		flagSeq:   make(map[string]uint64),
	}
}

// Close cancels pending flag timers.
func (c *Controller) Close() {
	c.timers.Close()
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Form:    c.form,
		Code:    c.code,
		History: c.history.Entries(),
		Flags:   c.flags,
	}
}

// Code returns the current generated code, or nil.
func (c *Controller) Code() *GeneratedCode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.code
}

// --- form -------------------------------------------------------------------

// SetText replaces the text field.
func (c *Controller) SetText(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form.Text = text
}

// SetTitle replaces the title field.
func (c *Controller) SetTitle(title string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form.Title = title
}

// SetForm replaces both fields.
func (c *Controller) SetForm(text, title string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form = Form{Text: text, Title: title}
}

// --- generation -------------------------------------------------------------

// Generate encodes the trimmed form text. Empty input returns ErrEmptyInput
// without calling the encoder. Only the most recently issued generation may
// apply its result; earlier ones that finish later get ErrStale. Encoder
// failures are returned as *EncodeError and leave the state untouched.
func (c *Controller) Generate(ctx context.Context) (*GeneratedCode, error) {
	c.mu.Lock()
	text := strings.TrimSpace(c.form.Text)
	title := c.form.Title
	if text == "" {
		c.mu.Unlock()
		return nil, ErrEmptyInput
	}
	c.genSeq++
	token := c.genSeq
	c.flags.Generating = true
	c.mu.Unlock()

	raster, err := c.encoder.Encode(ctx, text, c.opts)

	c.mu.Lock()
	defer c.mu.Unlock()
	latest := token == c.genSeq
	if latest {
		c.flags.Generating = false
	}

	if err != nil {
		c.log.Error("QR generation failed", "error", err, "token", token)
		return nil, &EncodeError{Err: err}
	}
	if !latest {
		c.log.Debug("discarding stale generation", "token", token, "latest", c.genSeq)
		return nil, ErrStale
	}

	now := c.now()
	code := &GeneratedCode{
		Raster:     raster,
		SourceText: text,
		Title:      title,
		Revision:   token,
		CreatedAt:  now,
	}
	c.code = code
	entry := HistoryEntry{
		ID:        uuid.NewString(),
		Text:      text,
		Title:     title,
		CreatedAt: now,
	}
	c.history.Push(entry)
	c.flashLocked(FlagThankYou)

	c.log.Info("QR code generated", "token", token, "bytes", len(raster), "history", c.history.Len())
	c.emit(notify.Event{ID: entry.ID, Kind: notify.EventGenerated, Text: text, Title: title, Timestamp: now.Unix()})
	return code, nil
}

// --- export -----------------------------------------------------------------

// Export composes the current code and hands it to the default Saver.
func (c *Controller) Export(ctx context.Context, format export.Format) (export.Blob, error) {
	return c.ExportTo(ctx, format, c.saver)
}

// ExportTo composes the current code in format and hands it to saver. With
// no code it returns ErrNoCode and never calls saver. Overlapping exports
// compose independently. An export whose code was replaced while it was
// composing is discarded with ErrStale.
func (c *Controller) ExportTo(ctx context.Context, format export.Format, saver save.Saver) (export.Blob, error) {
	code := c.Code()
	if code == nil {
		return export.Blob{}, ErrNoCode
	}

	blob, err := c.composer.Compose(ctx, code.Raster, code.Title, format)
	if err != nil {
		c.log.Error("export failed", "error", err, "format", format)
		return export.Blob{}, &ExportError{Op: "compose", Err: err}
	}
	blob.SourceText = code.SourceText

	if cur := c.Code(); cur == nil || cur.Revision != code.Revision {
		c.log.Debug("discarding stale export", "revision", code.Revision, "format", format)
		return export.Blob{}, ErrStale
	}

	if saver == nil {
		return export.Blob{}, &ExportError{Op: "save", Err: errNoSaver}
	}
	if err := saver.Save(ctx, blob); err != nil {
		c.log.Error("export save failed", "error", err, "filename", blob.Filename)
		return export.Blob{}, &ExportError{Op: "save", Err: err}
	}

	c.emit(notify.Event{
		ID:        uuid.NewString(),
		Kind:      notify.EventExported,
		Text:      code.SourceText,
		Title:     code.Title,
		Filename:  blob.Filename,
		Format:    string(format),
		Timestamp: c.now().Unix(),
	})
	return blob, nil
}

// --- clipboard --------------------------------------------------------------

// Copy writes the form text (not the generated code) to the clipboard,
// raises the Copied flag and returns the text written. Empty text returns
// ErrEmptyInput.
func (c *Controller) Copy(ctx context.Context) (string, error) {
	c.mu.Lock()
	text := c.form.Text
	c.mu.Unlock()
	if text == "" {
		return "", ErrEmptyInput
	}
	if c.clipboard == nil {
		return "", ErrNoClipboard
	}

	if err := c.clipboard.WriteText(ctx, text); err != nil {
		c.log.Error("failed to copy", "error", err)
		return "", fmt.Errorf("copy to clipboard: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.flashLocked(FlagCopied)
	return text, nil
}

// --- history ----------------------------------------------------------------

// ToggleHistory flips the history panel and returns the new visibility.
func (c *Controller) ToggleHistory() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flags.ShowHistory = !c.flags.ShowHistory
	return c.flags.ShowHistory
}

// SelectHistory restores an entry's text and title into the form and hides
// the panel. It does not generate.
func (c *Controller) SelectHistory(id string) (HistoryEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.history.Find(id)
	if !ok {
		return HistoryEntry{}, ErrUnknownEntry
	}
	c.form = Form{Text: e.Text, Title: e.Title}
	c.flags.ShowHistory = false
	return e, nil
}

// --- helpers ----------------------------------------------------------------

// flashLocked raises a self-clearing flag. Re-raising restarts its timer;
// a superseded timer never clears a newer activation. The caller MUST hold
// c.mu.
func (c *Controller) flashLocked(flag string) {
	c.flagSeq[flag]++
	seq := c.flagSeq[flag]
	c.setFlagLocked(flag, true)

	c.timers.Schedule(flag, c.notifyFor, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.flagSeq[flag] != seq {
			return
		}
		c.setFlagLocked(flag, false)
	})
}

func (c *Controller) setFlagLocked(flag string, v bool) {
	switch flag {
	case FlagThankYou:
		c.flags.ShowThankYou = v
	case FlagCopied:
		c.flags.Copied = v
	}
}

// emit delivers ev in the background; delivery failures are logged only.
func (c *Controller) emit(ev notify.Event) {
	if c.notifier == nil {
		return
	}
	go func() {
		if err := c.notifier.Send(&ev); err != nil {
			c.log.Warn("event delivery failed", "error", err, "kind", ev.Kind)
		}
	}()
}
