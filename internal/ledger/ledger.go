// Package ledger keeps a SQLite history of generation runs and their rounds.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	module        TEXT NOT NULL,
	description   TEXT NOT NULL DEFAULT '',
	provider      TEXT NOT NULL DEFAULT '',
	model         TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL DEFAULT 'running',
	input_tokens  INTEGER NOT NULL DEFAULT 0,
	output_tokens INTEGER NOT NULL DEFAULT 0,
	started_at    TEXT NOT NULL,
	finished_at   TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS rounds (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id     TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	phase      TEXT NOT NULL,
	attempt    INTEGER NOT NULL,
	produced   TEXT NOT NULL DEFAULT '',
	missing    TEXT NOT NULL DEFAULT '',
	success    INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_rounds_run ON rounds(run_id);
`

// Run is one row of the runs table.
type Run struct {
	ID           string
	Module       string
	Description  string
	Provider     string
	Model        string
	Status       string
	InputTokens  int
	OutputTokens int
	Rounds       int
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Round is one agent round of a run.
type Round struct {
	Phase     string
	Attempt   int
	Produced  []string
	Missing   []string
	Success   bool
	CreatedAt time.Time
}

// Ledger is the run history store. A nil *Ledger records nothing.
type Ledger struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens or creates the ledger database at path.
func Open(path string, logger *slog.Logger) (*Ledger, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating ledger dir: %w", err)
	}
	db, err := sql.Open("sqlite", fmt.Sprintf(
		"file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)",
		path,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping ledger: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize ledger schema: %w", err)
	}
	logger.Debug("ledger:open", "path", path)
	return &Ledger{db: db, logger: logger}, nil
}

func (l *Ledger) Close() error {
	if l == nil {
		return nil
	}
	return l.db.Close()
}

// timeFormat sorts lexically in time order.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

func now() string { return time.Now().UTC().Format(timeFormat) }

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeFormat, s)
	return t
}

func join(items []string) string { return strings.Join(items, ",") }

func split(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// StartRun inserts a running run.
func (l *Ledger) StartRun(ctx context.Context, r Run) error {
	if l == nil {
		return nil
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO runs (id, module, description, provider, model, status, started_at)
		 VALUES (?, ?, ?, ?, ?, 'running', ?)`,
		r.ID, r.Module, r.Description, r.Provider, r.Model, now())
	if err != nil {
		return fmt.Errorf("ledger: start run %s: %w", r.ID, err)
	}
	return nil
}

// RecordRound appends a round to a run.
func (l *Ledger) RecordRound(ctx context.Context, runID string, round Round) error {
	if l == nil {
		return nil
	}
	success := 0
	if round.Success {
		success = 1
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO rounds (run_id, phase, attempt, produced, missing, success, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, round.Phase, round.Attempt, join(round.Produced), join(round.Missing), success, now())
	if err != nil {
		return fmt.Errorf("ledger: record round: %w", err)
	}
	return nil
}

// FinishRun stores the outcome and token totals of a run.
func (l *Ledger) FinishRun(ctx context.Context, runID, status string, inputTokens, outputTokens int) error {
	if l == nil {
		return nil
	}
	res, err := l.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, input_tokens = ?, output_tokens = ?, finished_at = ? WHERE id = ?`,
		status, inputTokens, outputTokens, now(), runID)
	if err != nil {
		return fmt.Errorf("ledger: finish run %s: %w", runID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("ledger: unknown run %s", runID)
	}
	return nil
}

// Runs returns the most recent runs first. limit <= 0 returns all.
func (l *Ledger) Runs(ctx context.Context, limit int) ([]Run, error) {
	if l == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = -1
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT r.id, r.module, r.description, r.provider, r.model, r.status,
		        r.input_tokens, r.output_tokens, r.started_at, r.finished_at,
		        (SELECT COUNT(*) FROM rounds WHERE run_id = r.id)
		 FROM runs r ORDER BY r.started_at DESC, r.rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("ledger: list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &r.Module, &r.Description, &r.Provider, &r.Model, &r.Status,
			&r.InputTokens, &r.OutputTokens, &started, &finished, &r.Rounds); err != nil {
			return nil, fmt.Errorf("ledger: scan run: %w", err)
		}
		r.StartedAt = parseTime(started)
		r.FinishedAt = parseTime(finished)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Rounds returns the rounds of a run in insertion order.
func (l *Ledger) Rounds(ctx context.Context, runID string) ([]Round, error) {
	if l == nil {
		return nil, nil
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT phase, attempt, produced, missing, success, created_at
		 FROM rounds WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("ledger: list rounds: %w", err)
	}
	defer rows.Close()

	var out []Round
	for rows.Next() {
		var r Round
		var produced, missing, created string
		var success int
		if err := rows.Scan(&r.Phase, &r.Attempt, &produced, &missing, &success, &created); err != nil {
			return nil, fmt.Errorf("ledger: scan round: %w", err)
		}
		r.Produced = split(produced)
		r.Missing = split(missing)
		r.Success = success == 1
		r.CreatedAt = parseTime(created)
		out = append(out, r)
	}
	return out, rows.Err()
}
