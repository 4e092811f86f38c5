// Package clipboard writes text to the system clipboard of the terminal the
// process is attached to, using the OSC 52 escape sequence.
package clipboard

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/muesli/termenv"
)

// Clipboard accepts text for the system clipboard.
type Clipboard interface {
	WriteText(ctx context.Context, text string) error
}

// OSC52 copies through the terminal emulator. Terminals that do not support
// the sequence ignore it.
type OSC52 struct {
	mu  sync.Mutex
	w   *errWriter
	out *termenv.Output
}

// NewOSC52 returns a clipboard writing escape sequences to w, normally the
// process's stdout or stderr.
func NewOSC52(w io.Writer) *OSC52 {
	ew := &errWriter{w: w}
	return &OSC52{w: ew, out: termenv.NewOutput(ew)}
}

// WriteText sends text to the terminal clipboard.
func (c *OSC52) WriteText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.w.err = nil
	c.out.Copy(text)
	if c.w.err != nil {
		return fmt.Errorf("write clipboard sequence: %w", c.w.err)
	}
	return nil
}

// errWriter remembers the last write error, which termenv discards.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	n, err := e.w.Write(p)
	if err != nil {
		e.err = err
	}
	return n, err
}
