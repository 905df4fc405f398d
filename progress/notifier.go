package progress

import (
	"context"
	"log/slog"
	"time"
)

// Incrementer is the part of Client the notifier needs.
type Incrementer interface {
	Increment(ctx context.Context, d Delta) (Totals, error)
}

// Journal records the outcome of each completion for diagnostics.
type Journal interface {
	RecordCompletion(ctx context.Context, at time.Time, totals Totals, notifyErr error) error
}

// Notifier fires the +1 point / +1 session increment for a completed Focus
// session. It never retries and never reports failure to the caller; the
// timer owns the exactly-once guarantee.
type Notifier struct {
	client  Incrementer
	journal Journal
	updates chan Totals
	now     func() time.Time
}

// NewNotifier creates a notifier. journal may be nil.
func NewNotifier(client Incrementer, journal Journal) *Notifier {
	return &Notifier{
		client:  client,
		journal: journal,
		updates: make(chan Totals, 8),
		now:     time.Now,
	}
}

// Updated delivers the totals echoed by each successful increment. It is
// the UI refresh signal.
func (n *Notifier) Updated() <-chan Totals {
	return n.updates
}

// RecordFocusCompletion sends the increment and logs any failure.
func (n *Notifier) RecordFocusCompletion(ctx context.Context) {
	at := n.now()
	totals, err := n.client.Increment(ctx, Delta{AddPoints: 1, AddSessions: 1})
	if err != nil {
		slog.Error("Notifier.RecordFocusCompletion: failed to award point", "error", err)
	} else {
		slog.Info("Notifier.RecordFocusCompletion: point awarded", "points", totals.Points, "sessions", totals.Sessions)
		select {
		case n.updates <- totals:
		default:
			slog.Debug("Notifier.RecordFocusCompletion: refresh signal dropped")
		}
	}

	if n.journal == nil {
		return
	}
	// Journal writes outlive engine shutdown.
	if jerr := n.journal.RecordCompletion(context.WithoutCancel(ctx), at, totals, err); jerr != nil {
		slog.Warn("Notifier.RecordFocusCompletion: journal write failed", "error", jerr)
	}
}
