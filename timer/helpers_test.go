package timer

import (
	"context"
	"sync"
	"testing"
	"time"
)

// manualClock fires ticks only when the test calls Advance.
type manualClock struct {
	mu      sync.Mutex
	now     time.Time
	entries []*manualTimer
	created int
}

type manualTimer struct {
	clock   *manualClock
	f       func()
	stopped bool
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Every(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, f: f}
	c.entries = append(c.entries, t)
	c.created++
	return t
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// Advance fires n ticks on every active timer.
func (c *manualClock) Advance(n int) {
	for i := 0; i < n; i++ {
		c.mu.Lock()
		c.now = c.now.Add(time.Second)
		var active []*manualTimer
		for _, t := range c.entries {
			if !t.stopped {
				active = append(active, t)
			}
		}
		c.mu.Unlock()
		for _, t := range active {
			t.f()
		}
	}
}

// Active returns the number of tick sources that have not been stopped.
func (c *manualClock) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.entries {
		if !t.stopped {
			n++
		}
	}
	return n
}

// latest returns the newest timer so a test can invoke its callback
// after it has been cancelled.
func (c *manualClock) latest() *manualTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) == 0 {
		return nil
	}
	return c.entries[len(c.entries)-1]
}

type soundCall struct {
	op  string
	key string
}

type recordingSounds struct {
	mu    sync.Mutex
	calls []soundCall
}

func (s *recordingSounds) record(op, key string) <-chan struct{} {
	s.mu.Lock()
	s.calls = append(s.calls, soundCall{op: op, key: key})
	s.mu.Unlock()
	return closedChan()
}

func (s *recordingSounds) Warmup() { s.record("warmup", "") }

func (s *recordingSounds) PlayOnce(key string) <-chan struct{} { return s.record("play", key) }

func (s *recordingSounds) Loop(key string) <-chan struct{} { return s.record("loop", key) }

func (s *recordingSounds) StopAll() { s.record("stopAll", "") }

func (s *recordingSounds) count(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.op == op {
			n++
		}
	}
	return n
}

func (s *recordingSounds) last() soundCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.calls) == 0 {
		return soundCall{}
	}
	return s.calls[len(s.calls)-1]
}

type countingNotifier struct {
	mu    sync.Mutex
	count int
	calls chan struct{}
}

func newCountingNotifier() *countingNotifier {
	return &countingNotifier{calls: make(chan struct{}, 16)}
}

func (n *countingNotifier) RecordFocusCompletion(context.Context) {
	n.mu.Lock()
	n.count++
	n.mu.Unlock()
	n.calls <- struct{}{}
}

func (n *countingNotifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.count
}

// waitCalls waits for want notifier invocations, then checks no more arrive.
func (n *countingNotifier) waitCalls(t *testing.T, want int) {
	t.Helper()
	for i := 0; i < want; i++ {
		select {
		case <-n.calls:
		case <-time.After(2 * time.Second):
			t.Fatalf("expected %d notifier calls, got %d", want, n.Count())
		}
	}
	select {
	case <-n.calls:
		t.Fatalf("expected exactly %d notifier calls, got more", want)
	case <-time.After(50 * time.Millisecond):
	}
}

func newTestEngine(t *testing.T) (*Engine, *manualClock, *recordingSounds, *countingNotifier) {
	t.Helper()
	clock := newManualClock()
	sounds := &recordingSounds{}
	notifier := newCountingNotifier()
	e := New(Config{Clock: clock, ChimeKey: "pomo", AlarmKey: "alarm"}, sounds, notifier)
	t.Cleanup(e.Close)
	return e, clock, sounds, notifier
}

func assertSnapshot(t *testing.T, got Snapshot, want Snapshot) {
	t.Helper()
	if got != want {
		t.Errorf("snapshot mismatch:\n got  %+v\n want %+v", got, want)
	}
}
