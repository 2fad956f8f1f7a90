// Package db records parser runs and their attempts in PostgreSQL or SQLite.
package db

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/jonathan/statement-agent/internal/types"
)

// Journal persists run progress. Implementations are safe for concurrent use
// so one journal can serve every target of a batch.
type Journal interface {
	RunStarted(ctx context.Context, run types.RunInfo) error
	AttemptFinished(ctx context.Context, run types.RunInfo, record types.AttemptRecord) error
	RunFinished(ctx context.Context, run types.RunInfo, outcome types.RunOutcome) error
	RecentRuns(ctx context.Context, target string, limit int) ([]RunSummary, error)
	Migrate(ctx context.Context) error
	Close() error
}

// Run statuses stored in the runs table
const (
	StatusRunning = "running"
)

// RunSummary is one row of the runs table
type RunSummary struct {
	ID          string
	Target      string
	Status      string
	Reason      string
	Attempts    int
	OutputPath  string
	StartedAt   time.Time
	CompletedAt *time.Time
}

// attemptRow flattens an AttemptRecord into journal columns
type attemptRow struct {
	Feedback          string
	GenerationFailure string
	ExecutionStatus   string
	ExecutionMessage  string
	RowsProduced      int
	ColumnsProduced   int
	ValidationStatus  string
	ValidationMessage string
}

func flattenAttempt(record types.AttemptRecord) attemptRow {
	row := attemptRow{GenerationFailure: record.GenerationFailure}
	if record.Request.Feedback != nil {
		row.Feedback = *record.Request.Feedback
	}
	if exec := record.Execution; exec != nil {
		row.ExecutionStatus = string(exec.Status)
		row.ExecutionMessage = exec.Message
		if exec.Dataset != nil {
			row.RowsProduced, row.ColumnsProduced = exec.Dataset.Shape()
		}
	}
	if v := record.Validation; v != nil {
		row.ValidationStatus = string(v.Status)
		row.ValidationMessage = v.Message
	}
	return row
}

// Open connects to the journal named by url. postgres:// and postgresql:// URLs use
// PostgreSQL; sqlite:// URLs and bare paths use SQLite. The schema is migrated before returning.
func Open(ctx context.Context, url string) (Journal, error) {
	var (
		journal Journal
		err     error
	)
	switch {
	case url == "":
		return nil, eris.New("db: journal URL is empty")
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		journal, err = Connect(ctx, url)
	default:
		journal, err = NewSQLite(strings.TrimPrefix(url, "sqlite://"))
	}
	if err != nil {
		return nil, err
	}
	if err := journal.Migrate(ctx); err != nil {
		_ = journal.Close()
		return nil, err
	}
	return journal, nil
}
