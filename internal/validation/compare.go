// Package validation compares datasets produced by generated parsers against reference extractions.
package validation

import (
	"fmt"
	"strings"

	"github.com/jonathan/statement-agent/internal/dataset"
	"github.com/jonathan/statement-agent/internal/types"
)

const (
	// passedMessage is reported when produced and reference datasets are identical
	passedMessage = "Validation passed"
	// noReferenceMessage is reported when no reference dataset exists for the target
	noReferenceMessage = "No validation file available"
)

// Validate compares produced against reference using exact equality: same columns in the
// same order, same row count, and identical typed cells in row order. A nil reference
// yields ValidationNoReference.
func Validate(produced, reference *dataset.Dataset) types.ValidationOutcome {
	if reference == nil {
		return types.ValidationOutcome{Status: types.ValidationNoReference, Message: noReferenceMessage}
	}
	if produced == nil {
		produced = &dataset.Dataset{}
	}

	if msg := describeShapeMismatch(produced, reference); msg != "" {
		return mismatch(msg)
	}

	if differing, first := countDifferingRows(produced, reference); differing > 0 {
		return mismatch(fmt.Sprintf(
			"data content doesn't match exactly: %d of %d rows differ (first at row %d); columns and shape match %s",
			differing, len(reference.Rows), first, reference.ShapeString(),
		))
	}

	return types.ValidationOutcome{Status: types.ValidationPassed, Message: passedMessage}
}

func mismatch(msg string) types.ValidationOutcome {
	return types.ValidationOutcome{Status: types.ValidationMismatch, Message: msg}
}

// describeShapeMismatch summarizes shape and column differences, or returns "" when they agree
func describeShapeMismatch(produced, reference *dataset.Dataset) string {
	var parts []string

	pr, pc := produced.Shape()
	rr, rc := reference.Shape()
	if pr != rr || pc != rc {
		parts = append(parts, fmt.Sprintf("shape mismatch: produced %dx%d, expected %dx%d", pr, pc, rr, rc))
	}

	missing := difference(reference.Columns, produced.Columns)
	extra := difference(produced.Columns, reference.Columns)
	if len(missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing columns: %s", formatColumns(missing)))
	}
	if len(extra) > 0 {
		parts = append(parts, fmt.Sprintf("unexpected columns: %s", formatColumns(extra)))
	}

	if len(missing) == 0 && len(extra) == 0 && !sameOrder(produced.Columns, reference.Columns) {
		parts = append(parts, fmt.Sprintf("column order differs: produced %s, expected %s",
			formatColumns(produced.Columns), formatColumns(reference.Columns)))
	}

	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "; ")
}

// countDifferingRows assumes equal shapes and returns the number of rows with any differing
// cell plus the index of the first one
func countDifferingRows(produced, reference *dataset.Dataset) (int, int) {
	differing, first := 0, -1
	for i := range reference.Rows {
		if !rowsEqual(produced.Rows[i], reference.Rows[i]) {
			differing++
			if first < 0 {
				first = i
			}
		}
	}
	return differing, first
}

func rowsEqual(a, b []dataset.Cell) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// difference returns the entries of a that are not in b, preserving order
func difference(a, b []string) []string {
	seen := make(map[string]bool, len(b))
	for _, s := range b {
		seen[s] = true
	}
	var out []string
	for _, s := range a {
		if !seen[s] {
			out = append(out, s)
		}
	}
	return out
}

func sameOrder(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func formatColumns(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = fmt.Sprintf("%q", c)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
