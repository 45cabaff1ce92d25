// Package features turns a coerced dataset into a standardized numeric
// feature matrix. The matrix keeps named, order-stable columns because the
// one-hot column set depends on the values observed in the input: two
// datasets can legitimately produce different shapes.
package features

import (
	"fmt"
	"math"

	"github.com/kjellvand/personacluster/internal/dataset"
)

// Matrix is a dense feature table with named columns. Rows keep the order of
// the dataset they were derived from; row position is the only link back to
// the original records.
type Matrix struct {
	Columns []string
	Rows    [][]float64
}

// Encode builds the feature matrix from a coerced dataset: numeric columns
// pass through, the ordinal column becomes its 1-based rank, and each nominal
// column expands into one indicator column per distinct observed value, in
// first-occurrence order. The identifier is not a feature.
func Encode(ds *dataset.Dataset) *Matrix {
	s := ds.Schema

	rank := make(map[string]float64, len(s.OrdinalLevels))
	for i, level := range s.OrdinalLevels {
		rank[level] = float64(i + 1)
	}

	// Nominal columns sit after the ordinal in the categorical layout.
	nominalOffset := 0
	if s.OrdinalColumn != "" {
		nominalOffset = 1
	}

	// Collect distinct values per nominal column in first-seen row order.
	levels := make([][]string, len(s.NominalColumns))
	seen := make([]map[string]bool, len(s.NominalColumns))
	for j := range s.NominalColumns {
		seen[j] = make(map[string]bool)
	}
	for _, cats := range ds.Categorical {
		for j := range s.NominalColumns {
			v := cats[nominalOffset+j]
			if !seen[j][v] {
				seen[j][v] = true
				levels[j] = append(levels[j], v)
			}
		}
	}

	columns := append([]string{}, s.NumericColumns...)
	if s.OrdinalColumn != "" {
		columns = append(columns, s.OrdinalColumn)
	}
	indicator := make([][]int, len(s.NominalColumns)) // value index -> column index
	for j, col := range s.NominalColumns {
		indicator[j] = make([]int, len(levels[j]))
		for v, value := range levels[j] {
			indicator[j][v] = len(columns)
			columns = append(columns, fmt.Sprintf("%s_%s", col, value))
		}
	}

	valueIndex := make([]map[string]int, len(s.NominalColumns))
	for j := range s.NominalColumns {
		valueIndex[j] = make(map[string]int, len(levels[j]))
		for v, value := range levels[j] {
			valueIndex[j][value] = v
		}
	}

	rows := make([][]float64, ds.Len())
	for i := range rows {
		row := make([]float64, len(columns))
		copy(row, ds.Numeric[i])
		if s.OrdinalColumn != "" {
			row[len(s.NumericColumns)] = rank[ds.Categorical[i][0]]
		}
		for j := range s.NominalColumns {
			v := valueIndex[j][ds.Categorical[i][nominalOffset+j]]
			row[indicator[j][v]] = 1
		}
		rows[i] = row
	}

	return &Matrix{Columns: columns, Rows: rows}
}

// Standardize rescales every column to zero mean and unit variance using the
// population standard deviation. A zero-variance column becomes all zeros
// instead of dividing by zero. Column names and row order are preserved.
func Standardize(m *Matrix) *Matrix {
	n := len(m.Rows)
	if n == 0 {
		return &Matrix{Columns: append([]string{}, m.Columns...)}
	}
	cols := len(m.Columns)

	means := make([]float64, cols)
	stds := make([]float64, cols)
	for j := 0; j < cols; j++ {
		sum := 0.0
		for i := 0; i < n; i++ {
			sum += m.Rows[i][j]
		}
		means[j] = sum / float64(n)

		variance := 0.0
		for i := 0; i < n; i++ {
			d := m.Rows[i][j] - means[j]
			variance += d * d
		}
		stds[j] = math.Sqrt(variance / float64(n))
	}

	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, cols)
		for j := 0; j < cols; j++ {
			if stds[j] != 0 {
				row[j] = (m.Rows[i][j] - means[j]) / stds[j]
			}
		}
		rows[i] = row
	}

	return &Matrix{Columns: append([]string{}, m.Columns...), Rows: rows}
}
