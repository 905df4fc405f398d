// Package journal keeps a local SQLite record of completed Focus sessions
// and whether the progress service accepted them. It is diagnostics only:
// nothing here is ever used to restore timer state.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"PomoHatch/progress"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the permissions for the journal directory.
const DefaultDirPermissions = 0o755

//go:embed migrations.sql
var migrations string

// Entry is one recorded Focus completion.
type Entry struct {
	ID          int64
	CompletedAt time.Time
	Notified    bool
	Totals      progress.Totals
	Error       string
}

// Counts summarises the journal.
type Counts struct {
	Total    int
	Notified int
	Failed   int
}

// Store is an SQLite-backed journal.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the journal database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("journal path not set")
	}
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
			return nil, fmt.Errorf("create journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping journal: %w", err)
	}
	if _, err := db.Exec(migrations); err != nil {
		db.Close()
		return nil, fmt.Errorf("run journal migrations: %w", err)
	}
	slog.Debug("journal.Open: ready", "path", path)
	return &Store{db: db}, nil
}

// RecordCompletion stores a completion and the outcome of its notification.
func (s *Store) RecordCompletion(ctx context.Context, at time.Time, totals progress.Totals, notifyErr error) error {
	errText := ""
	if notifyErr != nil {
		errText = notifyErr.Error()
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO focus_sessions (completed_at, notified, points, sessions, error)
        VALUES (?, ?, ?, ?, ?)
    `, at.UTC(), notifyErr == nil, totals.Points, totals.Sessions, errText)
	if err != nil {
		return fmt.Errorf("insert focus session: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, completed_at, notified, points, sessions, error
        FROM focus_sessions
        ORDER BY completed_at DESC, id DESC
        LIMIT ?
    `, limit)
	if err != nil {
		return nil, fmt.Errorf("query focus sessions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.CompletedAt, &e.Notified, &e.Totals.Points, &e.Totals.Sessions, &e.Error); err != nil {
			return nil, fmt.Errorf("scan focus session: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Counts returns totals of recorded, notified and failed completions.
func (s *Store) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	err := s.db.QueryRowContext(ctx, `
        SELECT
            COUNT(*),
            COALESCE(SUM(CASE WHEN notified THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN notified THEN 0 ELSE 1 END), 0)
        FROM focus_sessions
    `).Scan(&c.Total, &c.Notified, &c.Failed)
	if err != nil {
		return Counts{}, fmt.Errorf("count focus sessions: %w", err)
	}
	return c, nil
}

// Summary returns the journal counts and the failed notifications among the
// newest limit entries. main logs it at startup.
func (s *Store) Summary(ctx context.Context, limit int) (Counts, []Entry, error) {
	counts, err := s.Counts(ctx)
	if err != nil {
		return Counts{}, nil, err
	}
	if counts.Failed == 0 {
		return counts, nil, nil
	}
	recent, err := s.Recent(ctx, limit)
	if err != nil {
		return counts, nil, err
	}
	var failed []Entry
	for _, e := range recent {
		if !e.Notified {
			failed = append(failed, e)
		}
	}
	return counts, failed, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
