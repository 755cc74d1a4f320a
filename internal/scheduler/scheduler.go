// Package scheduler owns the deferred-rewrite timer lifecycles.
package scheduler

import (
	"strconv"
	"sync"
	"time"
)

// Scheduler runs deferred work under two policies:
//
//   - Settle: each call schedules its own one-shot fire after the settle
//     delay; earlier pending fires for the same target are left alone. Used
//     for document-store modification events, which arrive at file-save rate.
//   - Debounce: each call cancels the pending fire for the same target and
//     reschedules; only the latest call's fire ever runs. Used for live
//     buffer edits, which arrive at keystroke rate.
//
// Pending timers are keyed per target so concurrently edited targets do not
// share debounce state. Close stops everything; fire functions are expected
// to re-validate their target before acting.
type Scheduler struct {
	settle time.Duration
	quiet  time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
	seq     uint64
	closed  bool
}

// New creates a scheduler with the given settle and debounce quiet delays.
func New(settle, quiet time.Duration) *Scheduler {
	return &Scheduler{
		settle:  settle,
		quiet:   quiet,
		pending: make(map[string]*time.Timer),
	}
}

// Settle schedules fn once after the settle delay. Prior pending fires for
// the same target are not cancelled.
func (s *Scheduler) Settle(target string, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.seq++
	key := target + "\x00" + strconv.FormatUint(s.seq, 10)
	s.pending[key] = time.AfterFunc(s.settle, func() {
		s.forget(key)
		fn()
	})
}

// Debounce cancels any pending fire for target and schedules fn after the
// quiet delay. Last call wins.
func (s *Scheduler) Debounce(target string, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if t, ok := s.pending[target]; ok {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(s.quiet, func() {
		s.forgetIf(target, t)
		fn()
	})
	s.pending[target] = t
}

// Cancel stops the pending debounced fire for target, if any.
func (s *Scheduler) Cancel(target string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.pending[target]; ok {
		t.Stop()
		delete(s.pending, target)
	}
}

// PendingCount returns the number of not-yet-fired timers.
func (s *Scheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Close stops all pending timers. Already-running fire functions complete;
// nothing new is scheduled afterwards.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for k, t := range s.pending {
		t.Stop()
		delete(s.pending, k)
	}
}

func (s *Scheduler) forget(key string) {
	s.mu.Lock()
	delete(s.pending, key)
	s.mu.Unlock()
}

// forgetIf removes key only if it still maps to t; a later Debounce call may
// already have replaced the entry.
func (s *Scheduler) forgetIf(key string, t *time.Timer) {
	s.mu.Lock()
	if cur, ok := s.pending[key]; ok && cur == t {
		delete(s.pending, key)
	}
	s.mu.Unlock()
}
