package dataset

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCellEqual(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Cell
		expected bool
	}{
		{name: "same int", a: Int(3), b: Int(3), expected: true},
		{name: "int vs float", a: Int(3), b: Float(3), expected: false},
		{name: "different strings", a: String("a"), b: String("b"), expected: false},
		{name: "nulls", a: Null(), b: Null(), expected: true},
		{name: "NaN floats", a: Float(math.NaN()), b: Float(math.NaN()), expected: true},
		{name: "bools", a: Bool(true), b: Bool(false), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.a.Equal(tt.b))
		})
	}
}

func TestCellText(t *testing.T) {
	assert.Equal(t, "42", Int(42).Text())
	assert.Equal(t, "1.0", Float(1).Text())
	assert.Equal(t, "1250.75", Float(1250.75).Text())
	assert.Equal(t, "", Null().Text())
	assert.Equal(t, "True", Bool(true).Text())
	assert.Equal(t, "Salary", String("Salary").Text())
}

func TestReadCSV_InfersColumnKinds(t *testing.T) {
	input := "Date,Description,Debit Amt,Credit Amt,Balance\n" +
		"01-08-2024,Salary Credit,,1935.3,6864.58\n" +
		"02-08-2024,ATM Withdrawal,500,,6364.58\n"

	ds, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"Date", "Description", "Debit Amt", "Credit Amt", "Balance"}, ds.Columns)
	require.Len(t, ds.Rows, 2)

	assert.Equal(t, String("01-08-2024"), ds.Rows[0][0])
	assert.Equal(t, Null(), ds.Rows[0][2])
	assert.Equal(t, Float(1935.3), ds.Rows[0][3])
	assert.Equal(t, Float(500), ds.Rows[1][2])
	assert.Equal(t, Null(), ds.Rows[1][3])
}

func TestReadCSV_IntColumnWithBlanksIsFloat(t *testing.T) {
	ds, err := ReadCSV(strings.NewReader("Date,Debit Amt,Count\n01-08-2024,,1\n02-08-2024,500,2\n"))
	require.NoError(t, err)

	assert.Equal(t, Null(), ds.Rows[0][1])
	assert.Equal(t, Float(500), ds.Rows[1][1])
	assert.True(t, ds.Rows[1][1].Equal(Float(500.0)), "a parser emitting 500.0 must match")
	assert.False(t, ds.Rows[1][1].Equal(Int(500)))

	// no blanks: stays integer
	assert.Equal(t, Int(2), ds.Rows[1][2])
}

func TestReadCSV_StripsBOM(t *testing.T) {
	input := "\ufeffDate,Amount\n2024-01-01,10\n"

	ds, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "Date", ds.Columns[0])
}

func TestReadCSV_EmptyInput(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestWriteCSV_ColumnOrderPreserved(t *testing.T) {
	ds := &Dataset{
		Columns: []string{"Zeta", "Alpha", "Mid"},
		Rows: [][]Cell{
			{String("z"), Int(1), Float(2.5)},
			{Null(), Int(2), Float(3)},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, ds))
	assert.Equal(t, "Zeta,Alpha,Mid\nz,1,2.5\n,2,3.0\n", buf.String())
}

func TestCSVFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "parsed_icici.csv")
	ds := &Dataset{
		Columns: []string{"Date", "Amount"},
		Rows:    [][]Cell{{String("2024-01-01"), Float(10.5)}},
	}

	require.NoError(t, WriteCSVFile(path, ds))

	loaded, err := ReadCSVFile(path)
	require.NoError(t, err)
	assert.Equal(t, ds.Columns, loaded.Columns)
	assert.True(t, ds.Rows[0][1].Equal(loaded.Rows[0][1]))

	// A second write replaces the file rather than appending.
	require.NoError(t, WriteCSVFile(path, ds))
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(content), "\n"))
}

func TestFromRows(t *testing.T) {
	dec := json.NewDecoder(strings.NewReader(`[["Salary", 1935.30, 5, null, true]]`))
	dec.UseNumber()
	var rows [][]any
	require.NoError(t, dec.Decode(&rows))

	ds, err := FromRows([]string{"Description", "Credit", "Count", "Debit", "Flag"}, rows)
	require.NoError(t, err)

	assert.Equal(t, String("Salary"), ds.Rows[0][0])
	assert.Equal(t, Float(1935.30), ds.Rows[0][1])
	assert.Equal(t, Int(5), ds.Rows[0][2])
	assert.Equal(t, Null(), ds.Rows[0][3])
	assert.Equal(t, Bool(true), ds.Rows[0][4])
}

func TestFromRows_RaggedRow(t *testing.T) {
	_, err := FromRows([]string{"A", "B"}, [][]any{{"only one"}})
	assert.Error(t, err)
}

func TestShapeAndHead(t *testing.T) {
	var nilDS *Dataset
	assert.True(t, nilDS.Empty())
	assert.Equal(t, "0x0", nilDS.ShapeString())

	ds := &Dataset{Columns: []string{"A"}, Rows: [][]Cell{{Int(1)}, {Int(2)}, {Int(3)}}}
	assert.False(t, ds.Empty())
	assert.Equal(t, "3x1", ds.ShapeString())
	assert.Len(t, ds.Head(2), 2)
	assert.Len(t, ds.Head(10), 3)
}
