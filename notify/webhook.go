// Package notify forwards generation and export events to an external HTTP
// endpoint.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Event kinds.
const (
	EventGenerated = "generated"
	EventExported  = "exported"
)

// Event is the JSON body sent to the configured webhook URL.
type Event struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Text      string `json:"text"`
	Title     string `json:"title,omitempty"`
	Filename  string `json:"filename,omitempty"`
	Format    string `json:"format,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Notifier receives events. Implementations must be safe for concurrent use.
type Notifier interface {
	Send(ev *Event) error
}

// Nop discards every event.
type Nop struct{}

// Send implements Notifier.
func (Nop) Send(*Event) error { return nil }

// WebhookSender delivers events to an external HTTP endpoint with
// deduplication on event ID.
type WebhookSender struct {
	url    string
	seen   map[string]time.Time // event ID -> first seen time (dedup)
	mu     sync.Mutex
	client *http.Client
	log    *slog.Logger
}

// seenTTL is the time-to-live for entries in the deduplication map.
const seenTTL = 5 * time.Minute

// NewWebhookSender creates a WebhookSender ready to POST events to url. If
// url is empty the sender is a no-op (Send returns nil immediately).
func NewWebhookSender(url string, log *slog.Logger) *WebhookSender {
	return &WebhookSender{
		url:  url,
		seen: make(map[string]time.Time),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// Send delivers ev. It returns nil without a request when no URL is
// configured or the event ID was already delivered.
func (w *WebhookSender) Send(ev *Event) error {
	if w.url == "" {
		return nil
	}

	w.mu.Lock()
	w.cleanupSeenLocked()
	if _, ok := w.seen[ev.ID]; ok {
		w.mu.Unlock()
		w.log.Debug("webhook skipping duplicate event", "event_id", ev.ID)
		return nil
	}
	w.seen[ev.ID] = time.Now()
	w.mu.Unlock()

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("webhook marshal event: %w", err)
	}

	resp, err := w.client.Post(w.url, "application/json", bytes.NewReader(body))
	if err != nil {
		w.forget(ev.ID)
		w.log.Error("webhook delivery failed", "error", err, "event_id", ev.ID)
		return fmt.Errorf("webhook POST: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		w.log.Debug("webhook delivered", "status", resp.StatusCode, "kind", ev.Kind, "event_id", ev.ID)
	case resp.StatusCode >= 500:
		w.forget(ev.ID)
		return fmt.Errorf("webhook POST: server returned %d", resp.StatusCode)
	default:
		w.log.Warn("webhook non-2xx response", "status", resp.StatusCode, "event_id", ev.ID)
	}
	return nil
}

// forget drops id from the dedup map so a later retry is delivered.
func (w *WebhookSender) forget(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.seen, id)
}

// cleanupSeenLocked removes stale entries from the seen map. The caller MUST
// hold w.mu.
func (w *WebhookSender) cleanupSeenLocked() {
	cutoff := time.Now().Add(-seenTTL)
	for id, t := range w.seen {
		if t.Before(cutoff) {
			delete(w.seen, id)
		}
	}
}
