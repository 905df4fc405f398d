// Package timer contains the focus-timer domain logic: the Mode definitions
// and the Engine countdown state machine.
//
// Maintenance notes:
//   - Every mutation happens under Engine.mu, so the command loop, the tick
//     goroutine and tests may all call into the engine directly. Sound and
//     notifier collaborators are invoked while the lock is held only through
//     calls that do not block (the coordinator mints tokens synchronously and
//     starts playback on its own goroutine, warmup included; the notifier
//     runs on a fresh goroutine).
//   - The progress increment is never cancelled. Close only waits for it,
//     bounded by Config.DrainTimeout.
//   - Each tick source carries a sequence number. Cancelling a source bumps
//     the current source to nil under the lock, so a tick that was already in
//     flight when Pause/Reset/SwitchMode ran is discarded when it finally
//     acquires the lock.
package timer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var (
	// ErrRunning is returned when a mode switch is requested mid-session.
	// Callers must pause first.
	ErrRunning = errors.New("timer is running")
	// ErrUnknownMode is returned for modes outside AllModes.
	ErrUnknownMode = errors.New("unknown mode")
)

// Sounds is the subset of the sound coordinator the engine drives.
type Sounds interface {
	Warmup()
	PlayOnce(key string) <-chan struct{}
	Loop(key string) <-chan struct{}
	StopAll()
}

// Notifier records a completed Focus session with the progress service.
type Notifier interface {
	RecordFocusCompletion(ctx context.Context)
}

// Config contains runtime options for the Engine.
type Config struct {
	Durations    Durations
	TickInterval time.Duration
	Clock        Clock
	ChimeKey     string
	AlarmKey     string
	StartMode    Mode
	// DrainTimeout bounds how long Close waits for in-flight completions.
	DrainTimeout time.Duration
}

// DefaultDrainTimeout is used when Config.DrainTimeout is unset.
const DefaultDrainTimeout = 5 * time.Second

type tickSource struct {
	seq   uint64
	timer Timer
}

// Engine is the countdown state machine for one mounted timer.
type Engine struct {
	mu        sync.Mutex
	config    Config
	sounds    Sounds
	notifier  Notifier
	pending   sync.WaitGroup
	mode      Mode
	remaining int
	running   bool
	awarded   bool
	source    *tickSource
	tickSeq   uint64
	events    []chan Event
	closed    bool
}

// New creates an idle Engine in config.StartMode (Focus by default) with the
// full duration of that mode remaining.
// sounds and notifier may be nil.
func New(config Config, sounds Sounds, notifier Notifier) *Engine {
	config.Durations = config.Durations.withDefaults()
	if config.TickInterval <= 0 {
		config.TickInterval = time.Second
	}
	if config.Clock == nil {
		config.Clock = SystemClock
	}
	if config.ChimeKey == "" {
		config.ChimeKey = "pomo"
	}
	if config.AlarmKey == "" {
		config.AlarmKey = config.ChimeKey
	}
	if !config.StartMode.Valid() {
		config.StartMode = ModeFocus
	}
	if config.DrainTimeout <= 0 {
		config.DrainTimeout = DefaultDrainTimeout
	}
	if sounds == nil {
		sounds = silentSounds{}
	}
	if notifier == nil {
		notifier = discardNotifier{}
	}

	return &Engine{
		config:    config,
		sounds:    sounds,
		notifier:  notifier,
		mode:      config.StartMode,
		remaining: config.Durations.Of(config.StartMode),
	}
}

// Subscribe registers a new observer channel. Events are dropped for
// observers whose buffer is full.
func (e *Engine) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	e.mu.Lock()
	if e.closed {
		close(ch)
	} else {
		e.events = append(e.events, ch)
	}
	e.mu.Unlock()
	return ch
}

// SwitchMode selects a new mode and resets the countdown to its duration.
// It is rejected with ErrRunning while a session is running.
func (e *Engine) SwitchMode(mode Mode) error {
	if !mode.Valid() {
		return ErrUnknownMode
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		slog.Debug("Engine.SwitchMode: rejected while running", "mode", e.mode, "requested", mode)
		return ErrRunning
	}
	e.cancelTickLocked()
	e.sounds.StopAll()
	e.mode = mode
	e.remaining = e.config.Durations.Of(mode)
	e.running = false
	e.awarded = false
	e.emitLocked(EventStateChange)
	return nil
}

// Start begins or resumes the countdown. Calling Start while running is a
// no-op.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.running {
		return
	}

	e.sounds.Warmup()
	e.sounds.StopAll()
	if e.remaining == 0 {
		e.remaining = e.config.Durations.Of(e.mode)
	}
	e.awarded = false
	e.running = true
	e.startTickLocked()
	e.emitLocked(EventStateChange)
}

// Pause stops the countdown without touching the remaining time.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	e.cancelTickLocked()
	e.running = false
	e.emitLocked(EventStateChange)
}

// Reset stops the countdown, silences every sound and restores the full
// duration of the current mode.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelTickLocked()
	e.sounds.StopAll()
	e.running = false
	e.awarded = false
	e.remaining = e.config.Durations.Of(e.mode)
	e.emitLocked(EventStateChange)
}

// CompleteNow is a developer helper: it arms the current session to finish
// on the next tick, clearing the award guard so Focus can award again.
func (e *Engine) CompleteNow() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.awarded = false
	e.remaining = 1
	if !e.running {
		e.running = true
		e.startTickLocked()
	}
	e.emitLocked(EventStateChange)
}

// Tick processes one elapsed second. It does nothing unless running.
func (e *Engine) Tick() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	e.tickLocked()
}

// Close cancels the tick source, stops all sounds and closes observers.
// It then waits up to DrainTimeout for in-flight completions to be recorded;
// those are never cancelled.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.cancelTickLocked()
	e.sounds.StopAll()
	e.running = false
	events := e.events
	e.events = nil
	e.mu.Unlock()

	for _, ch := range events {
		close(ch)
	}

	drained := make(chan struct{})
	go func() {
		e.pending.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(e.config.DrainTimeout):
		slog.Warn("Engine.Close: completion still in flight", "timeout", e.config.DrainTimeout)
	}
}

// Snapshot is a coherent copy of the engine state.
type Snapshot struct {
	Mode      Mode
	Remaining int
	Running   bool
	Awarded   bool
	State     State
}

// Snapshot returns the current state for rendering.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		Mode:      e.mode,
		Remaining: e.remaining,
		Running:   e.running,
		Awarded:   e.awarded,
		State:     e.stateLocked(),
	}
}

func (e *Engine) startTickLocked() {
	e.cancelTickLocked()
	e.tickSeq++
	seq := e.tickSeq
	e.source = &tickSource{
		seq: seq,
		timer: e.config.Clock.Every(e.config.TickInterval, func() {
			e.tickFrom(seq)
		}),
	}
}

func (e *Engine) cancelTickLocked() {
	if e.source == nil {
		return
	}
	e.source.timer.Stop()
	e.source = nil
}

func (e *Engine) tickFrom(seq uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.source == nil || e.source.seq != seq || !e.running {
		return
	}
	e.tickLocked()
}

func (e *Engine) tickLocked() {
	if e.remaining > 1 {
		e.remaining--
		e.emitLocked(EventTick)
		return
	}

	e.cancelTickLocked()
	e.running = false
	e.finishSessionLocked()
	e.remaining = 0
	e.emitLocked(EventStateChange)
}

func (e *Engine) finishSessionLocked() {
	if e.mode != ModeFocus {
		slog.Info("Engine: break finished, looping alarm", "mode", e.mode)
		e.sounds.Loop(e.config.AlarmKey)
		e.emitLocked(EventBreakFinished)
		return
	}
	if e.awarded {
		return
	}

	e.awarded = true
	slog.Info("Engine: focus session completed", "duration", e.config.Durations.Focus)
	e.sounds.PlayOnce(e.config.ChimeKey)
	e.pending.Add(1)
	go func() {
		defer e.pending.Done()
		e.notifier.RecordFocusCompletion(context.Background())
	}()
	e.emitLocked(EventSessionCompleted)
}

func (e *Engine) stateLocked() State {
	switch {
	case e.running:
		return StateRunning
	case e.remaining == 0:
		return StateExpired
	default:
		return StateIdle
	}
}

func (e *Engine) emitLocked(eventType EventType) {
	event := Event{
		Type:      eventType,
		Mode:      e.mode,
		State:     e.stateLocked(),
		Remaining: e.remaining,
		At:        e.config.Clock.Now(),
	}
	for _, ch := range e.events {
		select {
		case ch <- event:
		default:
		}
	}
}

type silentSounds struct{}

func (silentSounds) Warmup() {}

func (silentSounds) PlayOnce(string) <-chan struct{} { return closedChan() }

func (silentSounds) Loop(string) <-chan struct{} { return closedChan() }

func (silentSounds) StopAll() {}

type discardNotifier struct{}

func (discardNotifier) RecordFocusCompletion(context.Context) {}

func closedChan() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
