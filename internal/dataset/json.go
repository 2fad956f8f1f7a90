package dataset

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// FromRows builds a Dataset from values decoded with json.Decoder.UseNumber.
// Integral numbers become Int cells, other numbers Float cells.
func FromRows(columns []string, rows [][]any) (*Dataset, error) {
	ds := &Dataset{Columns: columns, Rows: make([][]Cell, 0, len(rows))}
	for i, raw := range rows {
		if len(raw) != len(columns) {
			return nil, eris.Errorf("dataset: row %d has %d values, expected %d", i, len(raw), len(columns))
		}
		row := make([]Cell, len(raw))
		for j, v := range raw {
			cell, err := cellFromJSON(v)
			if err != nil {
				return nil, eris.Wrapf(err, "dataset: row %d column %q", i, columns[j])
			}
			row[j] = cell
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}

func cellFromJSON(v any) (Cell, error) {
	switch val := v.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case json.Number:
		s := val.String()
		if !strings.ContainsAny(s, ".eE") {
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				return Int(n), nil
			}
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Cell{}, eris.Wrapf(err, "invalid number %s", s)
		}
		return Float(f), nil
	case float64:
		return Float(val), nil
	default:
		return String(fmt.Sprint(val)), nil
	}
}
