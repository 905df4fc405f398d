package timer

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewEngineStartsIdleInFocus(t *testing.T) {
	e, _, _, _ := newTestEngine(t)

	assertSnapshot(t, e.Snapshot(), Snapshot{
		Mode:      ModeFocus,
		Remaining: 1500,
		State:     StateIdle,
	})
}

func TestFocusSessionAwardsExactlyOnce(t *testing.T) {
	e, _, sounds, notifier := newTestEngine(t)

	e.Start()
	for i := 0; i < 1500; i++ {
		e.Tick()
	}

	assertSnapshot(t, e.Snapshot(), Snapshot{
		Mode:      ModeFocus,
		Remaining: 0,
		Running:   false,
		Awarded:   true,
		State:     StateExpired,
	})

	// Stray ticks before the next Start must not award again.
	for i := 0; i < 10; i++ {
		e.Tick()
	}

	notifier.waitCalls(t, 1)
	if got := sounds.count("play"); got != 1 {
		t.Errorf("expected one completion chime, got %d", got)
	}
	if got := sounds.last(); got != (soundCall{op: "play", key: "pomo"}) {
		t.Errorf("expected last sound command to be the chime, got %+v", got)
	}
}

func TestClockDrivenFocusSession(t *testing.T) {
	e, clock, _, notifier := newTestEngine(t)

	e.Start()
	clock.Advance(1499)
	if s := e.Snapshot(); s.Remaining != 1 || !s.Running {
		t.Fatalf("expected 1 second left while running, got %+v", s)
	}

	clock.Advance(1)
	if s := e.Snapshot(); s.Remaining != 0 || s.Running || !s.Awarded {
		t.Fatalf("expected expired awarded session, got %+v", s)
	}
	if clock.Active() != 0 {
		t.Errorf("expected tick source to be cancelled on expiry, %d active", clock.Active())
	}
	notifier.waitCalls(t, 1)
}

func TestStartTwiceKeepsSingleTickSource(t *testing.T) {
	e, clock, _, _ := newTestEngine(t)

	e.Start()
	e.Start()

	if clock.created != 1 {
		t.Fatalf("expected one tick source to be created, got %d", clock.created)
	}
	clock.Advance(3)
	if got := e.Snapshot().Remaining; got != 1497 {
		t.Errorf("expected one decrement per second, remaining=%d", got)
	}
}

func TestAtMostOneTickSource(t *testing.T) {
	tests := []struct {
		name string
		ops  []string
	}{
		{"start pause start", []string{"start", "pause", "start"}},
		{"start reset start", []string{"start", "reset", "start", "start"}},
		{"switch while stopped", []string{"switch", "start", "pause", "switch", "start"}},
		{"complete now twice", []string{"complete", "complete", "pause", "complete"}},
		{"reset while idle", []string{"reset", "reset", "start", "reset"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, clock, _, _ := newTestEngine(t)
			next := ModeShortBreak
			for _, op := range tt.ops {
				switch op {
				case "start":
					e.Start()
				case "pause":
					e.Pause()
				case "reset":
					e.Reset()
				case "complete":
					e.CompleteNow()
				case "switch":
					if err := e.SwitchMode(next); err != nil {
						t.Fatalf("switch: %v", err)
					}
					next = ModeLongBreak
				}

				active := clock.Active()
				if active > 1 {
					t.Fatalf("after %s: %d tick sources active", op, active)
				}
				if running := e.Snapshot().Running; running != (active == 1) {
					t.Fatalf("after %s: running=%v but %d tick sources", op, running, active)
				}
			}
		})
	}
}

func TestSwitchModeWhileStopped(t *testing.T) {
	tests := []struct {
		mode Mode
		want int
	}{
		{ModeShortBreak, 300},
		{ModeLongBreak, 600},
		{ModeFocus, 1500},
	}

	e, _, sounds, _ := newTestEngine(t)
	e.Start()
	for i := 0; i < 1500; i++ {
		e.Tick()
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			before := sounds.count("stopAll")
			if err := e.SwitchMode(tt.mode); err != nil {
				t.Fatalf("SwitchMode(%v): %v", tt.mode, err)
			}
			assertSnapshot(t, e.Snapshot(), Snapshot{
				Mode:      tt.mode,
				Remaining: tt.want,
				State:     StateIdle,
			})
			if sounds.count("stopAll") != before+1 {
				t.Errorf("expected SwitchMode to stop all sounds")
			}
		})
	}
}

func TestSwitchModeRejectedWhileRunning(t *testing.T) {
	e, clock, _, _ := newTestEngine(t)

	e.Start()
	clock.Advance(5)
	err := e.SwitchMode(ModeLongBreak)
	if !errors.Is(err, ErrRunning) {
		t.Fatalf("expected ErrRunning, got %v", err)
	}

	s := e.Snapshot()
	if s.Mode != ModeFocus || s.Remaining != 1495 || !s.Running {
		t.Errorf("rejected switch must leave the session untouched, got %+v", s)
	}

	e.Pause()
	if err := e.SwitchMode(ModeLongBreak); err != nil {
		t.Fatalf("switch after pause: %v", err)
	}
}

func TestSwitchModeUnknown(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	if err := e.SwitchMode(Mode(42)); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("expected ErrUnknownMode, got %v", err)
	}
}

func TestBreakExpiryLoopsAlarmUntilReset(t *testing.T) {
	e, clock, sounds, notifier := newTestEngine(t)

	if err := e.SwitchMode(ModeShortBreak); err != nil {
		t.Fatal(err)
	}
	e.Start()
	clock.Advance(300)

	s := e.Snapshot()
	if s.State != StateExpired || s.Awarded {
		t.Fatalf("expected expired break without award, got %+v", s)
	}
	if got := sounds.last(); got != (soundCall{op: "loop", key: "alarm"}) {
		t.Fatalf("expected alarm loop after break, got %+v", got)
	}

	e.Reset()
	if got := sounds.last(); got.op != "stopAll" {
		t.Errorf("expected Reset to stop all sounds, got %+v", got)
	}
	if got := e.Snapshot().Remaining; got != 300 {
		t.Errorf("expected reset to restore 300s, got %d", got)
	}
	notifier.waitCalls(t, 0)
}

func TestPauseDiscardsInFlightTick(t *testing.T) {
	e, clock, _, _ := newTestEngine(t)

	e.Start()
	inFlight := clock.latest()
	e.Pause()

	// The callback was already dispatched when Pause ran.
	inFlight.f()

	if got := e.Snapshot().Remaining; got != 1500 {
		t.Errorf("tick after pause must be discarded, remaining=%d", got)
	}
}

func TestStaleSourceDiscardedAfterRestart(t *testing.T) {
	e, clock, _, _ := newTestEngine(t)

	e.Start()
	stale := clock.latest()
	e.Reset()
	e.Start()

	stale.f()
	clock.Advance(1)

	if got := e.Snapshot().Remaining; got != 1499 {
		t.Errorf("expected only the live source to decrement, remaining=%d", got)
	}
}

func TestStartAfterExpiryRestoresDuration(t *testing.T) {
	e, clock, sounds, notifier := newTestEngine(t)

	e.Start()
	clock.Advance(1500)
	notifier.waitCalls(t, 1)

	e.Start()
	s := e.Snapshot()
	if s.Remaining != 1500 || s.Awarded || !s.Running {
		t.Fatalf("expected fresh running session, got %+v", s)
	}
	if sounds.count("warmup") != 2 {
		t.Errorf("expected warmup request on every start, got %d", sounds.count("warmup"))
	}

	clock.Advance(1500)
	notifier.waitCalls(t, 1)
}

func TestPauseKeepsRemainingAndAward(t *testing.T) {
	e, clock, _, _ := newTestEngine(t)

	e.Start()
	clock.Advance(10)
	e.Pause()
	clock.Advance(10)

	s := e.Snapshot()
	if s.Remaining != 1490 || s.Running {
		t.Errorf("expected paused at 1490, got %+v", s)
	}

	e.Start()
	clock.Advance(1)
	if got := e.Snapshot().Remaining; got != 1489 {
		t.Errorf("expected resume from paused time, remaining=%d", got)
	}
}

func TestCompleteNowAwardsOnNextTick(t *testing.T) {
	e, clock, _, notifier := newTestEngine(t)

	e.CompleteNow()
	if s := e.Snapshot(); s.Remaining != 1 || !s.Running {
		t.Fatalf("expected armed session, got %+v", s)
	}
	clock.Advance(1)
	notifier.waitCalls(t, 1)

	// The helper clears the award guard, allowing another award.
	e.CompleteNow()
	clock.Advance(1)
	notifier.waitCalls(t, 1)
}

func TestSubscribeEmitsSessionCompletedOnce(t *testing.T) {
	clock := newManualClock()
	e := New(Config{Clock: clock, Durations: Durations{Focus: 3}}, nil, nil)
	defer e.Close()
	events := e.Subscribe(32)

	e.Start()
	clock.Advance(5)
	e.Tick()
	e.Close()

	completed := 0
	var types []EventType
	for ev := range events {
		types = append(types, ev.Type)
		if ev.Type == EventSessionCompleted {
			completed++
			if ev.Mode != ModeFocus {
				t.Errorf("expected focus completion event, got mode %v", ev.Mode)
			}
		}
	}
	if completed != 1 {
		t.Errorf("expected one session completed event, got %d (%v)", completed, types)
	}
}

func TestSubscribeAfterCloseReturnsClosedChannel(t *testing.T) {
	e := New(Config{Clock: newManualClock()}, nil, nil)
	e.Close()
	if _, ok := <-e.Subscribe(1); ok {
		t.Error("expected closed channel after Close")
	}
	e.Start()
	if e.Snapshot().Running {
		t.Error("closed engine must not start")
	}
}

func TestAwardedClearedOnModeSwitch(t *testing.T) {
	e, clock, _, _ := newTestEngine(t)
	e.Start()
	clock.Advance(1500)
	if !e.Snapshot().Awarded {
		t.Fatal("expected award after focus session")
	}
	if err := e.SwitchMode(ModeLongBreak); err != nil {
		t.Fatal(err)
	}
	if e.Snapshot().Awarded {
		t.Error("awarded must only be true in focus mode")
	}
}

// slowNotifier holds each completion until release is closed and records
// the context state it observed afterwards.
type slowNotifier struct {
	entered chan struct{}
	release chan struct{}
	ctxErr  chan error
}

func newSlowNotifier() *slowNotifier {
	return &slowNotifier{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
		ctxErr:  make(chan error, 1),
	}
}

func (n *slowNotifier) RecordFocusCompletion(ctx context.Context) {
	n.entered <- struct{}{}
	<-n.release
	n.ctxErr <- ctx.Err()
}

func TestCloseDoesNotCancelInFlightCompletion(t *testing.T) {
	notifier := newSlowNotifier()
	e := New(Config{Clock: newManualClock()}, nil, notifier)

	e.CompleteNow()
	e.Tick()
	<-notifier.entered

	closed := make(chan struct{})
	go func() {
		e.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatal("Close returned while the completion was still in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(notifier.release)
	if err := <-notifier.ctxErr; err != nil {
		t.Errorf("completion context was cancelled: %v", err)
	}
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return after the completion finished")
	}
}

func TestCloseGivesUpAfterDrainTimeout(t *testing.T) {
	notifier := newSlowNotifier()
	e := New(Config{Clock: newManualClock(), DrainTimeout: 20 * time.Millisecond}, nil, notifier)
	t.Cleanup(func() { close(notifier.release) })

	e.CompleteNow()
	e.Tick()
	<-notifier.entered

	closed := make(chan struct{})
	go func() {
		e.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close must not wait past the drain timeout")
	}
}

func TestStartModeFromConfig(t *testing.T) {
	e := New(Config{Clock: newManualClock(), StartMode: ModeLongBreak}, nil, nil)
	t.Cleanup(e.Close)

	assertSnapshot(t, e.Snapshot(), Snapshot{
		Mode:      ModeLongBreak,
		Remaining: 600,
		State:     StateIdle,
	})

	bogus := New(Config{Clock: newManualClock(), StartMode: Mode(9)}, nil, nil)
	t.Cleanup(bogus.Close)
	if got := bogus.Snapshot().Mode; got != ModeFocus {
		t.Errorf("invalid start mode should fall back to focus, got %v", got)
	}
}
