package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"PomoHatch/config"
	"PomoHatch/i18n"
	"PomoHatch/journal"
	"PomoHatch/progress"
	"PomoHatch/sfx"
	"PomoHatch/timer"
	"PomoHatch/ui"

	"fyne.io/fyne/v2/app"
)

func main() {
	cfg, err := config.Load()
	initializeLogger(cfg.SlogLevel())
	if err != nil {
		slog.Warn("main: settings not loaded, using defaults", "error", err)
	}
	i18n.SetLang(cfg.Lang)
	writeSettingsTemplate()

	player := sfx.NewBeepPlayer(sfx.DefaultSampleRate)
	loaded := sfx.LoadLibrary(player, cfg.SFXDir, sfx.DefaultFiles)
	slog.Info("main: sound library loaded", "dir", cfg.SFXDir, "sounds", loaded)
	sounds := sfx.NewCoordinator(player, sfx.DefaultKeys, cfg.Volume)

	var store *journal.Store
	var sessionJournal progress.Journal
	if cfg.JournalPath != "" {
		store, err = journal.Open(cfg.JournalPath)
		if err != nil {
			slog.Warn("main: journal disabled", "path", cfg.JournalPath, "error", err)
		} else {
			sessionJournal = store
			logJournalSummary(store)
		}
	}

	client := progress.NewClient(cfg.APIURL, cfg.APITimeout)
	notifier := progress.NewNotifier(client, sessionJournal)

	engine := timer.New(timer.Config{
		Durations: cfg.Durations,
		StartMode: cfg.StartMode,
		ChimeKey:  sfx.KeyPomo,
	}, sounds, notifier)

	a := NewAppManager(engine, sounds, client, notifier.Updated())

	fyneApp := app.NewWithID("com.pomohatch.timer")
	fyneApp.Settings().SetTheme(ui.NewCustomTheme(nil, nil))

	view, w := ui.CreateMainWindow(a, fyneApp, cfg.DevMode)
	a.SetView(view)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.APITimeout)
		defer cancel()
		a.RefreshTotals(ctx)
	}()

	w.SetOnClosed(a.Shutdown)
	w.ShowAndRun()

	a.Shutdown()
	player.Close()
	if store != nil {
		if err := store.Close(); err != nil {
			slog.Warn("main: closing journal", "error", err)
		}
	}
	slog.Info("main: exited")
}

// writeSettingsTemplate leaves a default settings.yaml for the user to edit
// on first run.
func writeSettingsTemplate() {
	path, err := config.SettingsPath()
	if err != nil {
		slog.Debug("main: no settings path", "error", err)
		return
	}
	wrote, err := config.EnsureFile(path)
	if err != nil {
		slog.Warn("main: settings template not written", "path", path, "error", err)
		return
	}
	if wrote {
		slog.Info("main: wrote default settings", "path", path)
	}
}

func logJournalSummary(store *journal.Store) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	counts, failed, err := store.Summary(ctx, 20)
	if err != nil {
		slog.Warn("main: reading journal", "error", err)
		return
	}
	slog.Info("main: journal opened", "total", counts.Total, "notified", counts.Notified, "failed", counts.Failed)
	for _, e := range failed {
		slog.Debug("main: unsent completion", "at", e.CompletedAt, "error", e.Error)
	}
}

// initializeLogger sets up structured logging at the configured level.
func initializeLogger(level slog.Level) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}
