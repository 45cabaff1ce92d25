// Package dataset loads the raw survey table and coerces it into a
// validated, typed form. Coercion never repairs values: a row that fails
// conversion on the identifier, any required numeric field, or the ordinal
// domain is excluded whole and reported as a drop diagnostic.
package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// Table is a raw, untrusted tabular dataset as read from disk.
type Table struct {
	Header []string
	Rows   [][]string
}

// Schema names the required columns of a survey table.
type Schema struct {
	IDColumn       string
	NumericColumns []string
	OrdinalColumn  string
	OrdinalLevels  []string // lowest rank first
	NominalColumns []string
}

// CategoricalColumns returns the ordinal column (if any) followed by the
// nominal columns. This is the column order used for profiling.
func (s Schema) CategoricalColumns() []string {
	var cols []string
	if s.OrdinalColumn != "" {
		cols = append(cols, s.OrdinalColumn)
	}
	return append(cols, s.NominalColumns...)
}

// Drop records a row excluded during coercion.
type Drop struct {
	Row    int // 0-based data row index in the raw table
	Column string
	Value  string
	Reason string
}

// Dataset is the coerced form of a Table. All slices are row-aligned:
// IDs[i], Numeric[i], and Categorical[i] describe the same respondent.
type Dataset struct {
	Schema      Schema
	IDs         []int64
	Numeric     [][]float64 // aligned with Schema.NumericColumns
	Categorical [][]string  // aligned with Schema.CategoricalColumns()
	Dropped     []Drop
}

// Len returns the number of coerced rows.
func (d *Dataset) Len() int { return len(d.IDs) }

// ReadCSV reads a CSV file into a raw Table. The first record is the header.
func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReader(f))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("dataset %s is empty", path)
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", len(rows)+1, err)
		}
		row := make([]string, len(rec))
		copy(row, rec)
		rows = append(rows, row)
	}

	return &Table{Header: header, Rows: rows}, nil
}

// Coerce validates a raw table against the schema and returns the typed
// dataset. Missing required columns and an empty post-coercion dataset are
// fatal; individual bad rows are dropped and recorded.
func Coerce(t *Table, s Schema) (*Dataset, error) {
	idx, err := columnIndex(t.Header, s)
	if err != nil {
		return nil, err
	}

	ranks := make(map[string]bool, len(s.OrdinalLevels))
	for _, level := range s.OrdinalLevels {
		ranks[level] = true
	}

	catCols := s.CategoricalColumns()
	ds := &Dataset{Schema: s}

rows:
	for i, row := range t.Rows {
		cell := func(col string) (string, bool) {
			j := idx[col]
			if j >= len(row) {
				return "", false
			}
			return strings.TrimSpace(row[j]), true
		}

		idRaw, ok := cell(s.IDColumn)
		if !ok {
			ds.Dropped = append(ds.Dropped, Drop{Row: i, Column: s.IDColumn, Reason: "truncated row"})
			continue
		}
		id, err := parseID(idRaw)
		if err != nil {
			ds.Dropped = append(ds.Dropped, Drop{Row: i, Column: s.IDColumn, Value: idRaw, Reason: "non-numeric identifier"})
			continue
		}

		nums := make([]float64, len(s.NumericColumns))
		for j, col := range s.NumericColumns {
			raw, ok := cell(col)
			if !ok {
				ds.Dropped = append(ds.Dropped, Drop{Row: i, Column: col, Reason: "truncated row"})
				continue rows
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				ds.Dropped = append(ds.Dropped, Drop{Row: i, Column: col, Value: raw, Reason: "non-numeric value"})
				continue rows
			}
			// ParseFloat accepts "NaN" and "Inf" spellings; a single such cell
			// would poison every standardized column downstream.
			if math.IsNaN(v) || math.IsInf(v, 0) {
				ds.Dropped = append(ds.Dropped, Drop{Row: i, Column: col, Value: raw, Reason: "non-finite value"})
				continue rows
			}
			nums[j] = v
		}

		cats := make([]string, len(catCols))
		for j, col := range catCols {
			raw, ok := cell(col)
			if !ok {
				ds.Dropped = append(ds.Dropped, Drop{Row: i, Column: col, Reason: "truncated row"})
				continue rows
			}
			if col == s.OrdinalColumn && !ranks[raw] {
				ds.Dropped = append(ds.Dropped, Drop{Row: i, Column: col, Value: raw, Reason: "value outside ordinal levels"})
				continue rows
			}
			cats[j] = raw
		}

		ds.IDs = append(ds.IDs, id)
		ds.Numeric = append(ds.Numeric, nums)
		ds.Categorical = append(ds.Categorical, cats)
	}

	if ds.Len() == 0 {
		return nil, fmt.Errorf("no valid rows remain after coercion (%d dropped)", len(ds.Dropped))
	}
	return ds, nil
}

// columnIndex maps every required column to its position in the header.
func columnIndex(header []string, s Schema) (map[string]int, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[h] = i
	}

	required := []string{s.IDColumn}
	required = append(required, s.NumericColumns...)
	required = append(required, s.CategoricalColumns()...)

	idx := make(map[string]int, len(required))
	var missing []string
	for _, col := range required {
		j, ok := pos[col]
		if !ok {
			missing = append(missing, col)
			continue
		}
		idx[col] = j
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("dataset is missing required columns: %s", strings.Join(missing, ", "))
	}
	return idx, nil
}

// parseID accepts integer identifiers, including ones written as floats
// ("7.0") by spreadsheet exports. Non-finite floats are rejected: int64(NaN)
// silently becomes math.MinInt64, which would be kept as a real identifier.
func parseID(raw string) (int64, error) {
	if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return id, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite identifier %q", raw)
	}
	return int64(f), nil
}
