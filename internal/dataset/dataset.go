// Package dataset provides the typed tabular model produced by extraction parsers and
// the CSV codecs used for reference and output files.
package dataset

import (
	"fmt"
	"math"
	"strconv"
)

// Kind is the value type held by a Cell
type Kind int

// Cell kinds. Two cells are equal only when both kind and value agree.
const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindString
	KindBool
)

// String returns the kind name used in diagnostics
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Cell is a single typed value in a Dataset
type Cell struct {
	Kind  Kind
	Int   int64
	Float float64
	Str   string
	Bool  bool
}

// Null returns an empty cell
func Null() Cell { return Cell{Kind: KindNull} }

// Int returns an integer cell
func Int(v int64) Cell { return Cell{Kind: KindInt, Int: v} }

// Float returns a floating point cell
func Float(v float64) Cell { return Cell{Kind: KindFloat, Float: v} }

// String returns a text cell
func String(v string) Cell { return Cell{Kind: KindString, Str: v} }

// Bool returns a boolean cell
func Bool(v bool) Cell { return Cell{Kind: KindBool, Bool: v} }

// Equal reports whether two cells hold the same kind and value.
// NaN floats compare equal to each other, matching how missing numeric values round-trip.
func (c Cell) Equal(other Cell) bool {
	if c.Kind != other.Kind {
		return false
	}
	switch c.Kind {
	case KindNull:
		return true
	case KindInt:
		return c.Int == other.Int
	case KindFloat:
		if math.IsNaN(c.Float) && math.IsNaN(other.Float) {
			return true
		}
		return c.Float == other.Float
	case KindString:
		return c.Str == other.Str
	case KindBool:
		return c.Bool == other.Bool
	}
	return false
}

// Text renders the cell the way it is written to CSV output
func (c Cell) Text() string {
	switch c.Kind {
	case KindInt:
		return strconv.FormatInt(c.Int, 10)
	case KindFloat:
		if math.IsNaN(c.Float) {
			return ""
		}
		s := strconv.FormatFloat(c.Float, 'f', -1, 64)
		if c.Float == math.Trunc(c.Float) && !math.IsInf(c.Float, 0) {
			s += ".0"
		}
		return s
	case KindString:
		return c.Str
	case KindBool:
		if c.Bool {
			return "True"
		}
		return "False"
	default:
		return ""
	}
}

// Dataset is an ordered table of typed cells
type Dataset struct {
	Columns []string
	Rows    [][]Cell
}

// Empty reports whether the dataset has no rows
func (d *Dataset) Empty() bool {
	return d == nil || len(d.Rows) == 0
}

// Shape returns the row and column counts
func (d *Dataset) Shape() (rows, cols int) {
	if d == nil {
		return 0, 0
	}
	return len(d.Rows), len(d.Columns)
}

// ShapeString formats the shape as RxC
func (d *Dataset) ShapeString() string {
	r, c := d.Shape()
	return fmt.Sprintf("%dx%d", r, c)
}

// Head returns at most n leading rows
func (d *Dataset) Head(n int) [][]Cell {
	if d == nil {
		return nil
	}
	if n > len(d.Rows) {
		n = len(d.Rows)
	}
	return d.Rows[:n]
}
