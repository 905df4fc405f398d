// Package main contains the application wiring and the AppManager which
// coordinates the timer engine, audio, the progress service and the UI.
//
// Maintenance notes / tips:
//   - Concurrency model: UI actions are posted as control.Command values to a
//     single command-loop goroutine (see `commandLoop`) which applies them to
//     the engine in the order received. The engine guards its own state with
//     a mutex, so ticks arrive on the clock goroutine without going through
//     the loop.
//   - `cmdCh` is buffered. EnqueueCommand gives up after a short timeout
//     instead of blocking the UI; a dropped command answers its Reply with
//     errBusy.
//   - The View is called from SetView, `watchEvents` and `watchTotals`.
//     Implementations must marshal onto the UI thread themselves (the fyne
//     view uses fyne.Do).
package main

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"PomoHatch/control"
	"PomoHatch/progress"
	"PomoHatch/timer"
)

const (
	enqueueTimeout = 150 * time.Millisecond
	replyTimeout   = 200 * time.Millisecond
)

var errBusy = errors.New("command queue full")

// View is what the AppManager pushes state into.
type View interface {
	Render(s timer.Snapshot)
	ShowTotals(t progress.Totals)
	ShowNotice(msg string)
}

// TotalsSource fetches the current points/sessions totals.
type TotalsSource interface {
	Get(ctx context.Context) (progress.Totals, error)
}

// Closer is implemented by the sound coordinator.
type Closer interface {
	Close()
}

// AppManager is the main application struct, holding all state.
type AppManager struct {
	engine  *timer.Engine
	sounds  Closer
	totals  TotalsSource
	updates <-chan progress.Totals

	viewMu sync.RWMutex
	view   View

	cmdCh     chan control.Command
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewAppManager creates a new application manager and starts its loops.
// sounds, totals and updates may be nil.
func NewAppManager(engine *timer.Engine, sounds Closer, totals TotalsSource, updates <-chan progress.Totals) *AppManager {
	a := &AppManager{
		engine:  engine,
		sounds:  sounds,
		totals:  totals,
		updates: updates,
		cmdCh:   make(chan control.Command, 64),
	}
	a.ctx, a.cancel = context.WithCancel(context.Background())

	events := engine.Subscribe(32)
	a.wg.Add(3)
	go a.commandLoop()
	go a.watchEvents(events)
	go a.watchTotals()
	return a
}

// SetView attaches the view and renders the current state into it.
func (a *AppManager) SetView(v View) {
	a.viewMu.Lock()
	a.view = v
	a.viewMu.Unlock()
	if v != nil {
		v.Render(a.engine.Snapshot())
	}
}

func (a *AppManager) currentView() View {
	a.viewMu.RLock()
	defer a.viewMu.RUnlock()
	return a.view
}

// Snapshot returns the engine state.
func (a *AppManager) Snapshot() timer.Snapshot {
	return a.engine.Snapshot()
}

// EnqueueCommand posts a command to the internal command loop.
func (a *AppManager) EnqueueCommand(cmd control.Command) {
	select {
	case a.cmdCh <- cmd:
	case <-a.ctx.Done():
		reply(cmd, context.Canceled)
	case <-time.After(enqueueTimeout):
		slog.Warn("AppManager.EnqueueCommand: queue full, dropping command", "type", cmd.Type)
		reply(cmd, errBusy)
	}
}

// Dispatch enqueues cmd and waits briefly for its result. A rejected mode
// switch is surfaced on the view.
func (a *AppManager) Dispatch(cmd control.Command) error {
	cmd, r := control.WithReply(cmd)
	a.EnqueueCommand(cmd)

	var err error
	select {
	case err = <-r:
	case <-time.After(replyTimeout):
		slog.Debug("AppManager.Dispatch: no reply in time", "type", cmd.Type)
		return nil
	}
	if errors.Is(err, timer.ErrRunning) {
		if v := a.currentView(); v != nil {
			v.ShowNotice("Pause the timer to change mode")
		}
	}
	return err
}

func (a *AppManager) commandLoop() {
	defer a.wg.Done()
	for {
		select {
		case <-a.ctx.Done():
			return
		case cmd := <-a.cmdCh:
			err := a.apply(cmd)
			if err != nil {
				slog.Info("AppManager.commandLoop: command rejected", "type", cmd.Type, "error", err)
			}
			reply(cmd, err)
		}
	}
}

func (a *AppManager) apply(cmd control.Command) error {
	switch cmd.Type {
	case control.CmdSelectMode:
		return a.engine.SwitchMode(cmd.Mode)
	case control.CmdStart:
		a.engine.Start()
	case control.CmdPause:
		a.engine.Pause()
	case control.CmdReset:
		a.engine.Reset()
	case control.CmdCompleteNow:
		a.engine.CompleteNow()
	default:
		slog.Warn("AppManager.apply: unknown command", "type", cmd.Type)
	}
	return nil
}

func reply(cmd control.Command, err error) {
	if cmd.Reply == nil {
		return
	}
	select {
	case cmd.Reply <- err:
	default:
	}
}

func (a *AppManager) watchEvents(events <-chan timer.Event) {
	defer a.wg.Done()
	for ev := range events {
		switch ev.Type {
		case timer.EventSessionCompleted:
			slog.Info("AppManager.watchEvents: focus session completed")
		case timer.EventBreakFinished:
			slog.Info("AppManager.watchEvents: break finished", "mode", ev.Mode)
		}
		if v := a.currentView(); v != nil {
			v.Render(a.engine.Snapshot())
		}
	}
}

func (a *AppManager) watchTotals() {
	defer a.wg.Done()
	if a.updates == nil {
		return
	}
	for {
		select {
		case <-a.ctx.Done():
			return
		case totals := <-a.updates:
			if v := a.currentView(); v != nil {
				v.ShowTotals(totals)
			}
		}
	}
}

// RefreshTotals fetches the totals once and pushes them to the view.
func (a *AppManager) RefreshTotals(ctx context.Context) {
	if a.totals == nil {
		return
	}
	totals, err := a.totals.Get(ctx)
	if err != nil {
		slog.Warn("AppManager.RefreshTotals: failed to fetch totals", "error", err)
		return
	}
	if v := a.currentView(); v != nil {
		v.ShowTotals(totals)
	}
}

// HandleKeyRune handles key presses for the application.
func (a *AppManager) HandleKeyRune(r rune) {
	switch r {
	case ' ':
		if a.engine.Snapshot().Running {
			a.Dispatch(control.Command{Type: control.CmdPause})
		} else {
			a.Dispatch(control.Command{Type: control.CmdStart})
		}
	case 'r', 'R':
		a.Dispatch(control.Command{Type: control.CmdReset})
	case '1':
		a.Dispatch(control.Command{Type: control.CmdSelectMode, Mode: timer.ModeFocus})
	case '2':
		a.Dispatch(control.Command{Type: control.CmdSelectMode, Mode: timer.ModeShortBreak})
	case '3':
		a.Dispatch(control.Command{Type: control.CmdSelectMode, Mode: timer.ModeLongBreak})
	}
}

// Shutdown stops the command loop, tears down the engine and silences audio.
func (a *AppManager) Shutdown() {
	a.closeOnce.Do(func() {
		a.cancel()
		a.engine.Close()
		if a.sounds != nil {
			a.sounds.Close()
		}
		a.wg.Wait()
	})
}
