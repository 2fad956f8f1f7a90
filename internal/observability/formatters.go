// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/text/width"

	"github.com/jonathan/statement-agent/internal/dataset"
	"github.com/jonathan/statement-agent/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 72
	// maxRowsToShow is the default number of sample rows to display
	maxRowsToShow = 5
	// maxCellWidth truncates long cells in sample rows
	maxCellWidth = 14
)

// Printer handles formatted output for verbose mode. Boxes from concurrent runs
// are written whole, never interleaved.
type Printer struct {
	mu  sync.Mutex
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", fitColumns(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		fmt.Fprintf(p.out, "│ %s │\n", fitColumns(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintDataset outputs shape, columns, and the first rows of a dataset
func (p *Printer) PrintDataset(title string, ds *dataset.Dataset) {
	if ds == nil {
		return
	}
	p.printBox(title, summarizeDataset(ds))
}

func summarizeDataset(ds *dataset.Dataset) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Shape:   %s\n", ds.ShapeString()))
	sb.WriteString(fmt.Sprintf("Columns: %s\n", strings.Join(ds.Columns, ", ")))

	head := ds.Head(maxRowsToShow)
	if len(head) > 0 {
		sb.WriteString("\n")
		for _, row := range head {
			cells := make([]string, len(row))
			for i, c := range row {
				cells[i] = clip(c.Text(), maxCellWidth)
			}
			sb.WriteString(strings.Join(cells, " | "))
			sb.WriteString("\n")
		}
		if len(ds.Rows) > maxRowsToShow {
			sb.WriteString(fmt.Sprintf("... and %d more rows\n", len(ds.Rows)-maxRowsToShow))
		}
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// PrintComparison outputs produced and expected shapes and columns side by side
func (p *Printer) PrintComparison(produced, reference *dataset.Dataset) {
	if produced == nil || reference == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Generated: %s  [%s]\n", produced.ShapeString(), strings.Join(produced.Columns, ", ")))
	sb.WriteString(fmt.Sprintf("Expected:  %s  [%s]", reference.ShapeString(), strings.Join(reference.Columns, ", ")))
	p.printBox("COMPARISON", sb.String())
}

// PrintAttempt outputs the result of one attempt
func (p *Printer) PrintAttempt(run types.RunInfo, record types.AttemptRecord) {
	var sb strings.Builder
	switch {
	case record.GenerationFailure != "":
		sb.WriteString("Generation: failed\n")
		sb.WriteString(record.GenerationFailure)
	case record.Execution != nil && record.Execution.Status != types.ExecSuccess:
		sb.WriteString(fmt.Sprintf("Execution: %s\n", record.Execution.Status))
		sb.WriteString(firstLines(record.Execution.Message, 6))
	case record.Validation != nil:
		sb.WriteString("Execution: success\n")
		sb.WriteString(fmt.Sprintf("Validation: %s\n", record.Validation.Status))
		sb.WriteString(record.Validation.Message)
	}
	if fb := record.Request.Feedback; fb != nil {
		sb.WriteString("\n\nFeedback used: ")
		sb.WriteString(firstLines(*fb, 1))
	}
	p.printBox(fmt.Sprintf("%s ATTEMPT %d/%d", strings.ToUpper(string(run.Target)), record.Index, run.MaxAttempts), sb.String())
}

// PrintOutcome outputs the terminal state of a run
func (p *Printer) PrintOutcome(target types.Target, outcome types.RunOutcome) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Status:   %s\n", outcome.Status))
	sb.WriteString(fmt.Sprintf("Attempts: %d\n", outcome.Attempts))
	if outcome.Dataset != nil {
		sb.WriteString(fmt.Sprintf("Shape:    %s\n", outcome.Dataset.ShapeString()))
	}
	if outcome.OutputPath != "" {
		sb.WriteString(fmt.Sprintf("Output:   %s\n", outcome.OutputPath))
	}
	if outcome.Reason != "" {
		sb.WriteString(fmt.Sprintf("Reason:   %s\n", firstLines(outcome.Reason, 3)))
	}
	p.printBox(fmt.Sprintf("RESULT: %s", target), strings.TrimSuffix(sb.String(), "\n"))
}

// RunStarted prints the run's inputs
func (p *Printer) RunStarted(_ context.Context, run types.RunInfo) error {
	reference := run.ReferencePath
	if reference == "" {
		reference = "(none)"
	}
	document := run.DocumentPath
	if document == "" {
		document = "(none)"
	}
	p.printBox(fmt.Sprintf("TARGET: %s", run.Target), fmt.Sprintf("Document:  %s\nReference: %s\nBudget:    %d attempts", document, reference, run.MaxAttempts))
	return nil
}

// AttemptFinished prints the produced dataset, the comparison, and the attempt result
func (p *Printer) AttemptFinished(_ context.Context, run types.RunInfo, record types.AttemptRecord) error {
	if record.Execution != nil && record.Execution.Dataset != nil {
		p.PrintDataset("PARSER OUTPUT", record.Execution.Dataset)
		p.PrintComparison(record.Execution.Dataset, run.Reference)
	}
	p.PrintAttempt(run, record)
	return nil
}

// RunFinished prints the outcome
func (p *Printer) RunFinished(_ context.Context, run types.RunInfo, outcome types.RunOutcome) error {
	p.PrintOutcome(run.Target, outcome)
	return nil
}

// displayWidth counts terminal columns; East Asian wide and fullwidth runes take two
func displayWidth(s string) int {
	n := 0
	for _, r := range s {
		n += runeWidth(r)
	}
	return n
}

func runeWidth(r rune) int {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	default:
		return 1
	}
}

// truncate cuts s on a rune boundary so that it plus suffix fits in cols columns
func truncate(s string, cols int, suffix string) string {
	if displayWidth(s) <= cols {
		return s
	}
	limit := cols - displayWidth(suffix)
	var sb strings.Builder
	used := 0
	for _, r := range s {
		w := runeWidth(r)
		if used+w > limit {
			break
		}
		sb.WriteRune(r)
		used += w
	}
	return sb.String() + suffix
}

// fitColumns truncates s with "..." and pads it with spaces to exactly cols columns
func fitColumns(s string, cols int) string {
	s = truncate(s, cols, "...")
	if pad := cols - displayWidth(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}

func clip(s string, cols int) string {
	return truncate(s, cols, "…")
}

func firstLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[:n], "\n") + "\n..."
}
