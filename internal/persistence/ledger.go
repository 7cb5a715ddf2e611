package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Run statuses recorded in the ledger.
const (
	RunStatusRunning   = "RUNNING"
	RunStatusSucceeded = "SUCCEEDED"
	RunStatusFailed    = "FAILED"
)

// Run is one harness invocation as recorded in the run ledger.
type Run struct {
	ID          string
	Routine     string
	Status      string
	StartedAt   time.Time
	FinishedAt  *time.Time
	SessionID   string
	NewSession  bool
	Forked      bool
	OutputBytes int
	Error       string
}

// RunResult carries the terminal fields written by RecordFinish.
type RunResult struct {
	Status      string
	FinishedAt  time.Time
	SessionID   string
	OutputBytes int
	Error       string
}

// Ledger is the local run-history store. All methods are nil-safe: a nil
// Ledger records nothing and reports no history, so callers treat it as
// strictly optional observability.
type Ledger struct {
	db *sql.DB
}

// OpenLedger opens (and migrates) the SQLite ledger at path.
func OpenLedger(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite3: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	l := &Ledger{db: db}
	if err := l.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

func (l *Ledger) initSchema(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id           TEXT PRIMARY KEY,
			routine      TEXT NOT NULL,
			status       TEXT NOT NULL,
			started_at   TIMESTAMP NOT NULL,
			finished_at  TIMESTAMP,
			session_id   TEXT NOT NULL DEFAULT '',
			new_session  INTEGER NOT NULL DEFAULT 0,
			forked       INTEGER NOT NULL DEFAULT 0,
			output_bytes INTEGER NOT NULL DEFAULT 0,
			error        TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_runs_routine_started
			ON runs (routine, started_at DESC);
	`)
	if err != nil {
		return fmt.Errorf("init ledger schema: %w", err)
	}
	return nil
}

// RecordStart inserts the run in RUNNING state.
func (l *Ledger) RecordStart(ctx context.Context, run Run) error {
	if l == nil {
		return nil
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO runs (id, routine, status, started_at, session_id, new_session, forked)
		VALUES (?, ?, ?, ?, ?, ?, ?);
	`, run.ID, run.Routine, RunStatusRunning, run.StartedAt.UTC(),
		run.SessionID, boolToInt(run.NewSession), boolToInt(run.Forked))
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RecordFinish marks the run's terminal state.
func (l *Ledger) RecordFinish(ctx context.Context, id string, res RunResult) error {
	if l == nil {
		return nil
	}
	_, err := l.db.ExecContext(ctx, `
		UPDATE runs
		SET status = ?, finished_at = ?, session_id = ?, output_bytes = ?, error = ?
		WHERE id = ?;
	`, res.Status, res.FinishedAt.UTC(), res.SessionID, res.OutputBytes, res.Error, id)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// Recent returns the latest runs, newest first, optionally filtered by
// routine name.
func (l *Ledger) Recent(ctx context.Context, routineName string, limit int) ([]Run, error) {
	if l == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 500 {
		limit = 20
	}

	var rows *sql.Rows
	var err error
	if routineName != "" {
		rows, err = l.db.QueryContext(ctx, `
			SELECT id, routine, status, started_at, finished_at, session_id, new_session, forked, output_bytes, error
			FROM runs
			WHERE routine = ?
			ORDER BY started_at DESC
			LIMIT ?;
		`, routineName, limit)
	} else {
		rows, err = l.db.QueryContext(ctx, `
			SELECT id, routine, status, started_at, finished_at, session_id, new_session, forked, output_bytes, error
			FROM runs
			ORDER BY started_at DESC
			LIMIT ?;
		`, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var run Run
		var finished sql.NullTime
		var newSession, forked int
		if err := rows.Scan(&run.ID, &run.Routine, &run.Status, &run.StartedAt, &finished,
			&run.SessionID, &newSession, &forked, &run.OutputBytes, &run.Error); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if finished.Valid {
			t := finished.Time
			run.FinishedAt = &t
		}
		run.NewSession = newSession != 0
		run.Forked = forked != 0
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("run rows: %w", err)
	}
	return out, nil
}

// Close releases the database handle. Nil-safe.
func (l *Ledger) Close() error {
	if l == nil {
		return nil
	}
	return l.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
