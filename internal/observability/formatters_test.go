package observability

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/jonathan/statement-agent/internal/dataset"
	"github.com/jonathan/statement-agent/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset(rows int) *dataset.Dataset {
	ds := &dataset.Dataset{Columns: []string{"Date", "Description", "Amount"}}
	for i := 0; i < rows; i++ {
		ds.Rows = append(ds.Rows, []dataset.Cell{
			dataset.String("01-08-2024"),
			dataset.String("Salary Credit XYZ Pvt Ltd"),
			dataset.Float(1935.3),
		})
	}
	return ds
}

func TestPrintDataset(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintDataset("PARSER OUTPUT", sampleDataset(8))
	output := buf.String()

	assert.Contains(t, output, "PARSER OUTPUT")
	assert.Contains(t, output, "Shape:   8x3")
	assert.Contains(t, output, "Columns: Date, Description, Amount")
	assert.Contains(t, output, "1935.3")
	assert.Contains(t, output, "... and 3 more rows")
	assert.Equal(t, maxRowsToShow, strings.Count(output, "01-08-2024"))
}

func TestPrintDataset_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintDataset("x", nil)
	assert.Empty(t, buf.String())
}

func TestPrintComparison(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	reference := &dataset.Dataset{Columns: []string{"Date", "Description", "Amount", "Balance"}}
	p.PrintComparison(sampleDataset(2), reference)
	output := buf.String()

	assert.Contains(t, output, "Generated: 2x3")
	assert.Contains(t, output, "Expected:  0x4")

	buf.Reset()
	p.PrintComparison(sampleDataset(2), nil)
	assert.Empty(t, buf.String())
}

func TestPrintAttempt(t *testing.T) {
	run := types.RunInfo{Target: "icici", MaxAttempts: 3}

	t.Run("generation failure", func(t *testing.T) {
		var buf bytes.Buffer
		NewPrinter(&buf).PrintAttempt(run, types.AttemptRecord{Index: 1, GenerationFailure: "generated parser code is too short"})
		assert.Contains(t, buf.String(), "ICICI ATTEMPT 1/3")
		assert.Contains(t, buf.String(), "too short")
	})

	t.Run("runtime failure with feedback", func(t *testing.T) {
		var buf bytes.Buffer
		feedback := "KeyError: Date"
		exec := types.ExecutionFailed("Parser execution failed: IndexError\nTraceback line 1")
		NewPrinter(&buf).PrintAttempt(run, types.AttemptRecord{
			Index:     2,
			Request:   types.GenerationRequest{Feedback: &feedback},
			Execution: &exec,
		})
		output := buf.String()
		assert.Contains(t, output, "runtime_failure")
		assert.Contains(t, output, "IndexError")
		assert.Contains(t, output, "Feedback used: KeyError: Date")
	})

	t.Run("validation", func(t *testing.T) {
		var buf bytes.Buffer
		exec := types.ExecutionSucceeded(sampleDataset(1))
		validation := types.ValidationOutcome{Status: types.ValidationPassed, Message: "Validation passed"}
		NewPrinter(&buf).PrintAttempt(run, types.AttemptRecord{Index: 3, Execution: &exec, Validation: &validation})
		assert.Contains(t, buf.String(), "Validation: passed")
	})
}

func TestPrinter_ObserverEvents(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	ctx := context.Background()

	run := types.RunInfo{
		Target:       "sbi",
		DocumentPath: "data/sbi_sample.pdf",
		MaxAttempts:  2,
		Reference:    &dataset.Dataset{Columns: []string{"Date", "Description", "Amount"}},
	}
	require.NoError(t, p.RunStarted(ctx, run))

	exec := types.ExecutionSucceeded(sampleDataset(2))
	validation := types.ValidationOutcome{Status: types.ValidationMismatch, Message: "shape mismatch: produced 2x3, expected 0x3"}
	require.NoError(t, p.AttemptFinished(ctx, run, types.AttemptRecord{Index: 1, Execution: &exec, Validation: &validation}))
	require.NoError(t, p.RunFinished(ctx, run, types.RunOutcome{
		Status:     types.RunPartialSuccess,
		Dataset:    exec.Dataset,
		Attempts:   2,
		OutputPath: "parsed_sbi.csv",
		Reason:     validation.Message,
	}))

	output := buf.String()
	assert.Contains(t, output, "TARGET: sbi")
	assert.Contains(t, output, "Reference: (none)")
	assert.Contains(t, output, "PARSER OUTPUT")
	assert.Contains(t, output, "COMPARISON")
	assert.Contains(t, output, "RESULT: sbi")
	assert.Contains(t, output, "partial_success")
	assert.Contains(t, output, "parsed_sbi.csv")
}

func TestPrintBox_TruncatesLongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.printBox("TITLE", strings.Repeat("x", boxWidth*2))

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		assert.LessOrEqual(t, len([]rune(line)), boxWidth)
	}
	assert.Contains(t, buf.String(), "...")
}

func TestPrintBox_MultiByteContent(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.printBox("₹ STATEMENT", strings.Repeat("₹1,935.30 Crédit ", 10)+"\nshort ₹")

	out := buf.String()
	assert.True(t, utf8.ValidString(out))
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		assert.Equal(t, boxWidth, utf8.RuneCountInString(line), line)
	}
	assert.Contains(t, out, "...")
}

func TestClip(t *testing.T) {
	assert.Equal(t, "Salary", clip("Salary", 14))
	assert.Equal(t, "Crédit ₹1,9…", clip("Crédit ₹1,935.30", 12))
	assert.True(t, utf8.ValidString(clip(strings.Repeat("é", 20), 5)))
	assert.Equal(t, "取引…", clip("取引明細書", 5))
}
