package app

import (
	"sync"
	"time"
)

// Scheduler runs at most one pending callback per key. Scheduling a key
// that already has a pending callback cancels it first.
type Scheduler struct {
	mu      sync.Mutex
	pending map[string]*scheduled
	seq     uint64
	closed  bool
}

type scheduled struct {
	timer *time.Timer
	seq   uint64
}

// NewScheduler returns an empty Scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{pending: make(map[string]*scheduled)}
}

// Schedule runs fn after d unless key is rescheduled or the Scheduler is
// closed first. fn runs on its own goroutine.
func (s *Scheduler) Schedule(key string, d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if prev, ok := s.pending[key]; ok {
		prev.timer.Stop()
	}

	s.seq++
	seq := s.seq
	entry := &scheduled{seq: seq}
	entry.timer = time.AfterFunc(d, func() {
		s.mu.Lock()
		cur, ok := s.pending[key]
		if !ok || cur.seq != seq {
			// Rescheduled after this timer had already fired.
			s.mu.Unlock()
			return
		}
		delete(s.pending, key)
		s.mu.Unlock()
		fn()
	})
	s.pending[key] = entry
}

// Pending reports whether key has a callback waiting.
func (s *Scheduler) Pending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[key]
	return ok
}

// Close cancels every pending callback. Later Schedule calls are ignored.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for key, e := range s.pending {
		e.timer.Stop()
		delete(s.pending, key)
	}
}
