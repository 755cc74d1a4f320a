package scheduler

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestDebounce_Collapses(t *testing.T) {
	s := New(time.Hour, 50*time.Millisecond)
	defer s.Close()

	var fired atomic.Int32
	var mu sync.Mutex
	var last string

	for _, content := range []string{"first", "second", "third"} {
		content := content
		s.Debounce("buf", func() {
			fired.Add(1)
			mu.Lock()
			last = content
			mu.Unlock()
		})
	}

	eventually(t, 2*time.Second, 10*time.Millisecond, func() bool {
		return fired.Load() == 1
	}, "debounced fn did not fire")

	// Give any erroneously surviving timer a chance to fire.
	time.Sleep(150 * time.Millisecond)
	if n := fired.Load(); n != 1 {
		t.Errorf("fired %d times, want exactly 1", n)
	}
	mu.Lock()
	defer mu.Unlock()
	if last != "third" {
		t.Errorf("last = %q, want the final event's fn", last)
	}
}

func TestDebounce_IndependentTargets(t *testing.T) {
	s := New(time.Hour, 30*time.Millisecond)
	defer s.Close()

	var a, b atomic.Int32
	s.Debounce("a", func() { a.Add(1) })
	s.Debounce("b", func() { b.Add(1) })

	eventually(t, 2*time.Second, 10*time.Millisecond, func() bool {
		return a.Load() == 1 && b.Load() == 1
	}, "both targets should fire once")
}

func TestSettle_NoCancellation(t *testing.T) {
	s := New(30*time.Millisecond, time.Hour)
	defer s.Close()

	var fired atomic.Int32
	s.Settle("doc.md", func() { fired.Add(1) })
	s.Settle("doc.md", func() { fired.Add(1) })

	eventually(t, 2*time.Second, 10*time.Millisecond, func() bool {
		return fired.Load() == 2
	}, "each settle call schedules its own fire")
}

func TestCancel(t *testing.T) {
	s := New(time.Hour, 30*time.Millisecond)
	defer s.Close()

	var fired atomic.Int32
	s.Debounce("buf", func() { fired.Add(1) })
	s.Cancel("buf")

	time.Sleep(100 * time.Millisecond)
	if fired.Load() != 0 {
		t.Error("cancelled fire still ran")
	}
	if s.PendingCount() != 0 {
		t.Errorf("pending = %d, want 0", s.PendingCount())
	}
}

func TestClose_StopsPending(t *testing.T) {
	s := New(50*time.Millisecond, 50*time.Millisecond)

	var fired atomic.Int32
	s.Settle("a", func() { fired.Add(1) })
	s.Debounce("b", func() { fired.Add(1) })
	s.Close()

	time.Sleep(150 * time.Millisecond)
	if fired.Load() != 0 {
		t.Error("timers fired after Close")
	}

	// Scheduling after Close is a no-op, not a panic.
	s.Settle("c", func() { fired.Add(1) })
	s.Debounce("d", func() { fired.Add(1) })
	if s.PendingCount() != 0 {
		t.Errorf("pending = %d after Close", s.PendingCount())
	}
}

func TestPendingCount_DrainsAfterFire(t *testing.T) {
	s := New(20*time.Millisecond, 20*time.Millisecond)
	defer s.Close()

	s.Settle("a", func() {})
	s.Debounce("b", func() {})

	eventually(t, 2*time.Second, 10*time.Millisecond, func() bool {
		return s.PendingCount() == 0
	}, "fired timers should be dropped from the pending table")
}
