package notify

import (
	"context"
	"log/slog"
	"time"
)

// maxBackoff is the upper limit for the wait between delivery attempts.
const maxBackoff = time.Minute

// Retrying redelivers events that failed, doubling the wait after every
// failed attempt. Send blocks until delivery succeeds, attempts run out or
// the Retrying is closed, so callers should not invoke it on a hot path.
type Retrying struct {
	next     Notifier
	attempts int
	backoff  time.Duration
	log      *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// NewRetrying wraps next. attempts counts the first try; values below one
// are raised to one.
func NewRetrying(next Notifier, attempts int, backoff time.Duration, log *slog.Logger) *Retrying {
	if attempts < 1 {
		attempts = 1
	}
	if backoff <= 0 {
		backoff = time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Retrying{next: next, attempts: attempts, backoff: backoff, log: log, ctx: ctx, cancel: cancel}
}

// Send implements Notifier. It returns the last delivery error.
func (r *Retrying) Send(ev *Event) error {
	backoff := r.backoff
	var err error
	for attempt := 1; ; attempt++ {
		if err = r.next.Send(ev); err == nil {
			return nil
		}
		if attempt >= r.attempts {
			return err
		}

		r.log.Warn("event delivery failed, retrying", "error", err, "event_id", ev.ID, "attempt", attempt, "next_backoff", backoff)
		select {
		case <-r.ctx.Done():
			return err
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// Close abandons pending retries.
func (r *Retrying) Close() {
	r.cancel()
}
