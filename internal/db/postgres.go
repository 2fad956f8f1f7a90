package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/jonathan/statement-agent/internal/types"
)

// Pool is the subset of pgxpool.Pool used by Postgres; pgxmock satisfies it in tests
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
	Close()
}

// Postgres implements Journal on a PostgreSQL connection pool
type Postgres struct {
	pool Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}

	return &Postgres{pool: pool}, nil
}

// NewPostgres wraps an existing pool
func NewPostgres(pool Pool) *Postgres {
	return &Postgres{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS parser_runs (
	id             UUID PRIMARY KEY,
	target         TEXT NOT NULL,
	document_path  TEXT NOT NULL DEFAULT '',
	reference_path TEXT NOT NULL DEFAULT '',
	max_attempts   INT NOT NULL,
	status         TEXT NOT NULL DEFAULT 'running',
	reason         TEXT NOT NULL DEFAULT '',
	attempts       INT NOT NULL DEFAULT 0,
	output_path    TEXT NOT NULL DEFAULT '',
	started_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	completed_at   TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS parser_attempts (
	run_id             UUID NOT NULL REFERENCES parser_runs(id) ON DELETE CASCADE,
	attempt            INT NOT NULL,
	feedback           TEXT NOT NULL DEFAULT '',
	generation_failure TEXT NOT NULL DEFAULT '',
	execution_status   TEXT NOT NULL DEFAULT '',
	execution_message  TEXT NOT NULL DEFAULT '',
	rows_produced      INT NOT NULL DEFAULT 0,
	columns_produced   INT NOT NULL DEFAULT 0,
	validation_status  TEXT NOT NULL DEFAULT '',
	validation_message TEXT NOT NULL DEFAULT '',
	created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (run_id, attempt)
);

CREATE INDEX IF NOT EXISTS idx_parser_runs_target ON parser_runs(target, started_at DESC);
`

// Migrate creates the journal tables if they do not exist
func (p *Postgres) Migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Close closes the connection pool
func (p *Postgres) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

// RunStarted inserts the run row
func (p *Postgres) RunStarted(ctx context.Context, run types.RunInfo) error {
	id, err := uuid.Parse(run.ID)
	if err != nil {
		return eris.Wrapf(err, "postgres: invalid run id %q", run.ID)
	}
	_, err = p.pool.Exec(ctx,
		`INSERT INTO parser_runs (id, target, document_path, reference_path, max_attempts, status, started_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, string(run.Target), run.DocumentPath, run.ReferencePath, run.MaxAttempts, StatusRunning, time.Now().UTC(),
	)
	return eris.Wrap(err, "postgres: insert run")
}

// AttemptFinished records one attempt, replacing any earlier row for the same index
func (p *Postgres) AttemptFinished(ctx context.Context, run types.RunInfo, record types.AttemptRecord) error {
	id, err := uuid.Parse(run.ID)
	if err != nil {
		return eris.Wrapf(err, "postgres: invalid run id %q", run.ID)
	}
	row := flattenAttempt(record)
	_, err = p.pool.Exec(ctx,
		`INSERT INTO parser_attempts (run_id, attempt, feedback, generation_failure, execution_status, execution_message,
		   rows_produced, columns_produced, validation_status, validation_message)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (run_id, attempt) DO UPDATE SET
		   feedback = $3, generation_failure = $4, execution_status = $5, execution_message = $6,
		   rows_produced = $7, columns_produced = $8, validation_status = $9, validation_message = $10, created_at = NOW()`,
		id, record.Index, row.Feedback, row.GenerationFailure, row.ExecutionStatus, row.ExecutionMessage,
		row.RowsProduced, row.ColumnsProduced, row.ValidationStatus, row.ValidationMessage,
	)
	return eris.Wrap(err, "postgres: insert attempt")
}

// RunFinished stores the terminal outcome
func (p *Postgres) RunFinished(ctx context.Context, run types.RunInfo, outcome types.RunOutcome) error {
	id, err := uuid.Parse(run.ID)
	if err != nil {
		return eris.Wrapf(err, "postgres: invalid run id %q", run.ID)
	}
	tag, err := p.pool.Exec(ctx,
		`UPDATE parser_runs SET status = $1, reason = $2, attempts = $3, output_path = $4, completed_at = $5 WHERE id = $6`,
		string(outcome.Status), outcome.Reason, outcome.Attempts, outcome.OutputPath, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: complete run")
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: run %s not found", run.ID)
	}
	return nil
}

// RecentRuns lists the newest runs for target, newest first
func (p *Postgres) RecentRuns(ctx context.Context, target string, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := p.pool.Query(ctx,
		`SELECT id, target, status, reason, attempts, output_path, started_at, completed_at
		 FROM parser_runs WHERE target = $1 ORDER BY started_at DESC LIMIT $2`,
		target, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var (
			r  RunSummary
			id uuid.UUID
		)
		if err := rows.Scan(&id, &r.Target, &r.Status, &r.Reason, &r.Attempts, &r.OutputPath, &r.StartedAt, &r.CompletedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		r.ID = id.String()
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: iterate runs")
}
