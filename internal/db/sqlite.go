package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/jonathan/statement-agent/internal/types"
)

// SQLite implements Journal using modernc.org/sqlite
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// pragmas below are per connection
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLite{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS parser_runs (
	id             TEXT PRIMARY KEY,
	target         TEXT NOT NULL,
	document_path  TEXT NOT NULL DEFAULT '',
	reference_path TEXT NOT NULL DEFAULT '',
	max_attempts   INTEGER NOT NULL,
	status         TEXT NOT NULL DEFAULT 'running',
	reason         TEXT NOT NULL DEFAULT '',
	attempts       INTEGER NOT NULL DEFAULT 0,
	output_path    TEXT NOT NULL DEFAULT '',
	started_at     DATETIME NOT NULL,
	completed_at   DATETIME
);

CREATE TABLE IF NOT EXISTS parser_attempts (
	run_id             TEXT NOT NULL REFERENCES parser_runs(id) ON DELETE CASCADE,
	attempt            INTEGER NOT NULL,
	feedback           TEXT NOT NULL DEFAULT '',
	generation_failure TEXT NOT NULL DEFAULT '',
	execution_status   TEXT NOT NULL DEFAULT '',
	execution_message  TEXT NOT NULL DEFAULT '',
	rows_produced      INTEGER NOT NULL DEFAULT 0,
	columns_produced   INTEGER NOT NULL DEFAULT 0,
	validation_status  TEXT NOT NULL DEFAULT '',
	validation_message TEXT NOT NULL DEFAULT '',
	created_at         DATETIME NOT NULL,
	PRIMARY KEY (run_id, attempt)
);

CREATE INDEX IF NOT EXISTS idx_parser_runs_target ON parser_runs(target, started_at);
`

// Migrate creates the journal tables if they do not exist
func (s *SQLite) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database
func (s *SQLite) Close() error {
	return s.db.Close()
}

// RunStarted inserts the run row
func (s *SQLite) RunStarted(ctx context.Context, run types.RunInfo) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO parser_runs (id, target, document_path, reference_path, max_attempts, status, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, string(run.Target), run.DocumentPath, run.ReferencePath, run.MaxAttempts, StatusRunning, time.Now().UTC(),
	)
	return eris.Wrap(err, "sqlite: insert run")
}

// AttemptFinished records one attempt, replacing any earlier row for the same index
func (s *SQLite) AttemptFinished(ctx context.Context, run types.RunInfo, record types.AttemptRecord) error {
	row := flattenAttempt(record)
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO parser_attempts (run_id, attempt, feedback, generation_failure, execution_status,
		   execution_message, rows_produced, columns_produced, validation_status, validation_message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, record.Index, row.Feedback, row.GenerationFailure, row.ExecutionStatus, row.ExecutionMessage,
		row.RowsProduced, row.ColumnsProduced, row.ValidationStatus, row.ValidationMessage, time.Now().UTC(),
	)
	return eris.Wrap(err, "sqlite: insert attempt")
}

// RunFinished stores the terminal outcome
func (s *SQLite) RunFinished(ctx context.Context, run types.RunInfo, outcome types.RunOutcome) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE parser_runs SET status = ?, reason = ?, attempts = ?, output_path = ?, completed_at = ? WHERE id = ?`,
		string(outcome.Status), outcome.Reason, outcome.Attempts, outcome.OutputPath, time.Now().UTC(), run.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", run.ID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("sqlite: run %s not found", run.ID)
	}
	return nil
}

// RecentRuns lists the newest runs for target, newest first
func (s *SQLite) RecentRuns(ctx context.Context, target string, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, target, status, reason, attempts, output_path, started_at, completed_at
		 FROM parser_runs WHERE target = ? ORDER BY started_at DESC LIMIT ?`,
		target, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []RunSummary
	for rows.Next() {
		var (
			r         RunSummary
			completed sql.NullTime
		)
		if err := rows.Scan(&r.ID, &r.Target, &r.Status, &r.Reason, &r.Attempts, &r.OutputPath, &r.StartedAt, &completed); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		if completed.Valid {
			t := completed.Time
			r.CompletedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}
