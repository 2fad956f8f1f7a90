package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/statement-agent/internal/dataset"
	"github.com/jonathan/statement-agent/internal/types"
)

func newMockPostgres(t *testing.T) (*Postgres, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	return NewPostgres(mock), mock
}

func testRun() types.RunInfo {
	return types.RunInfo{
		ID:            uuid.NewString(),
		Target:        "icici",
		DocumentPath:  "data/icici_sample.pdf",
		ReferencePath: "data/icici_expected.csv",
		MaxAttempts:   3,
	}
}

func TestPostgres_Migrate(t *testing.T) {
	p, mock := newMockPostgres(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS parser_runs`).WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, p.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_RunStarted(t *testing.T) {
	p, mock := newMockPostgres(t)
	run := testRun()

	mock.ExpectExec(`INSERT INTO parser_runs`).
		WithArgs(uuid.MustParse(run.ID), "icici", run.DocumentPath, run.ReferencePath, 3, StatusRunning, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, p.RunStarted(context.Background(), run))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_RunStarted_InvalidID(t *testing.T) {
	p, mock := newMockPostgres(t)
	run := testRun()
	run.ID = "not-a-uuid"

	err := p.RunStarted(context.Background(), run)
	assert.ErrorContains(t, err, "invalid run id")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_AttemptFinished(t *testing.T) {
	p, mock := newMockPostgres(t)
	run := testRun()

	feedback := "KeyError: Date"
	ds := &dataset.Dataset{
		Columns: []string{"Date", "Amount", "Balance"},
		Rows:    [][]dataset.Cell{{dataset.String("01-08-2024"), dataset.Float(10), dataset.Float(20)}},
	}
	execution := types.ExecutionSucceeded(ds)
	validation := types.ValidationOutcome{Status: types.ValidationMismatch, Message: "shape mismatch"}
	record := types.AttemptRecord{
		Index:      2,
		Request:    types.GenerationRequest{Target: "icici", Attempt: 2, Feedback: &feedback},
		Execution:  &execution,
		Validation: &validation,
	}

	mock.ExpectExec(`INSERT INTO parser_attempts`).
		WithArgs(uuid.MustParse(run.ID), 2, feedback, "", "success", "Success", 1, 3, "mismatch", "shape mismatch").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, p.AttemptFinished(context.Background(), run, record))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_RunFinished(t *testing.T) {
	p, mock := newMockPostgres(t)
	run := testRun()
	outcome := types.RunOutcome{Status: types.RunSuccess, Reason: "Validation passed", Attempts: 3, OutputPath: "parsed_icici.csv"}

	mock.ExpectExec(`UPDATE parser_runs SET status`).
		WithArgs("success", "Validation passed", 3, "parsed_icici.csv", pgxmock.AnyArg(), uuid.MustParse(run.ID)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, p.RunFinished(context.Background(), run, outcome))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_RunFinished_NotFound(t *testing.T) {
	p, mock := newMockPostgres(t)
	run := testRun()

	mock.ExpectExec(`UPDATE parser_runs SET status`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := p.RunFinished(context.Background(), run, types.RunOutcome{Status: types.RunFailure})
	assert.ErrorContains(t, err, "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_RunFinished_ExecError(t *testing.T) {
	p, mock := newMockPostgres(t)

	mock.ExpectExec(`UPDATE parser_runs SET status`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))

	err := p.RunFinished(context.Background(), testRun(), types.RunOutcome{Status: types.RunFailure})
	assert.ErrorContains(t, err, "complete run")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_RecentRuns(t *testing.T) {
	p, mock := newMockPostgres(t)

	id := uuid.New()
	started := time.Date(2024, 8, 1, 10, 0, 0, 0, time.UTC)
	completed := started.Add(2 * time.Minute)

	mock.ExpectQuery(`SELECT id, target, status, reason, attempts, output_path, started_at, completed_at`).
		WithArgs("icici", 10).
		WillReturnRows(pgxmock.NewRows([]string{"id", "target", "status", "reason", "attempts", "output_path", "started_at", "completed_at"}).
			AddRow(id, "icici", "success", "Validation passed", 2, "parsed_icici.csv", started, &completed))

	runs, err := p.RecentRuns(context.Background(), "icici", 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	assert.Equal(t, id.String(), runs[0].ID)
	assert.Equal(t, "success", runs[0].Status)
	assert.Equal(t, 2, runs[0].Attempts)
	assert.Equal(t, started, runs[0].StartedAt)
	require.NotNil(t, runs[0].CompletedAt)
	assert.Equal(t, completed, *runs[0].CompletedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_RecentRuns_QueryError(t *testing.T) {
	p, mock := newMockPostgres(t)

	mock.ExpectQuery(`SELECT id, target`).
		WithArgs("icici", 5).
		WillReturnError(errors.New("relation does not exist"))

	_, err := p.RecentRuns(context.Background(), "icici", 5)
	assert.ErrorContains(t, err, "list runs")
	assert.NoError(t, mock.ExpectationsWereMet())
}
