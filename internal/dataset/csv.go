package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// missingMarkers are the field values read as missing, in addition to the empty string
var missingMarkers = map[string]bool{
	"NA": true, "N/A": true, "NaN": true, "nan": true, "null": true, "NULL": true, "None": true,
}

// ReadCSVFile loads a reference dataset from a CSV file
func ReadCSVFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: open %s", path)
	}
	defer func() { _ = f.Close() }()

	ds, err := ReadCSV(f)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: read %s", path)
	}
	return ds, nil
}

// ReadCSV decodes CSV text into a Dataset, inferring one kind per column.
// A leading UTF-8 byte order mark is dropped and header names are NFC-normalized.
func ReadCSV(r io.Reader) (*Dataset, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "dataset: parse csv")
	}
	if len(records) == 0 {
		return nil, eris.New("dataset: csv has no header row")
	}

	header := records[0]
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = norm.NFC.String(h)
	}

	raw := records[1:]
	kinds := make([]Kind, len(columns))
	for col := range columns {
		kinds[col] = inferColumnKind(raw, col)
	}

	rows := make([][]Cell, 0, len(raw))
	for _, rec := range raw {
		row := make([]Cell, len(columns))
		for col := range columns {
			field := ""
			if col < len(rec) {
				field = rec[col]
			}
			row[col] = parseField(field, kinds[col])
		}
		rows = append(rows, row)
	}

	return &Dataset{Columns: columns, Rows: rows}, nil
}

func isMissing(field string) bool {
	return field == "" || missingMarkers[field]
}

// inferColumnKind picks the narrowest kind that every non-missing field of a column parses as.
// An integer column with missing fields is read as Float, the way pandas stores it.
func inferColumnKind(records [][]string, col int) Kind {
	allInt, allFloat, allBool := true, true, true
	seen, missing := false, false
	for _, rec := range records {
		if col >= len(rec) || isMissing(rec[col]) {
			missing = true
			continue
		}
		seen = true
		field := rec[col]
		if _, err := strconv.ParseInt(field, 10, 64); err != nil {
			allInt = false
		}
		if _, err := strconv.ParseFloat(field, 64); err != nil {
			allFloat = false
		}
		if _, ok := parseBool(field); !ok {
			allBool = false
		}
	}
	switch {
	case !seen:
		return KindNull
	case allInt && missing:
		return KindFloat
	case allInt:
		return KindInt
	case allFloat:
		return KindFloat
	case allBool:
		return KindBool
	default:
		return KindString
	}
}

func parseBool(field string) (bool, bool) {
	switch strings.ToLower(field) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

func parseField(field string, kind Kind) Cell {
	if isMissing(field) {
		return Null()
	}
	switch kind {
	case KindInt:
		v, _ := strconv.ParseInt(field, 10, 64)
		return Int(v)
	case KindFloat:
		v, _ := strconv.ParseFloat(field, 64)
		return Float(v)
	case KindBool:
		v, _ := parseBool(field)
		return Bool(v)
	default:
		return String(field)
	}
}

// WriteCSVFile writes the dataset to path, replacing any existing file
func WriteCSVFile(path string, ds *Dataset) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return eris.Wrapf(err, "dataset: create directory %s", dir)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "dataset: create %s", path)
	}
	if err := WriteCSV(f, ds); err != nil {
		_ = f.Close()
		return eris.Wrapf(err, "dataset: write %s", path)
	}
	return eris.Wrapf(f.Close(), "dataset: close %s", path)
}

// WriteCSV encodes the dataset as CSV with a header row, columns in dataset order
func WriteCSV(w io.Writer, ds *Dataset) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(ds.Columns); err != nil {
		return eris.Wrap(err, "dataset: write header")
	}

	record := make([]string, len(ds.Columns))
	for _, row := range ds.Rows {
		for i := range record {
			record[i] = ""
			if i < len(row) {
				record[i] = row[i].Text()
			}
		}
		if err := writer.Write(record); err != nil {
			return eris.Wrap(err, "dataset: write row")
		}
	}

	writer.Flush()
	return eris.Wrap(writer.Error(), "dataset: flush")
}
