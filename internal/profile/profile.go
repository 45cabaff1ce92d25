// Package profile joins cluster labels back onto the coerced records and
// summarizes each cluster for persona construction. Summaries always use the
// original categorical labels ("Fast", "Urban"), never the encoded values:
// the consumer is an analyst, not a model.
package profile

import (
	"fmt"
	"sort"

	"github.com/kjellvand/personacluster/internal/dataset"
)

// Summary describes one cluster. NumericMeans aligns with the schema's
// numeric columns, CategoricalModes with Schema.CategoricalColumns().
type Summary struct {
	Cluster          int
	Size             int
	NumericMeans     []float64
	CategoricalModes []string
}

// Build groups rows by label and computes the arithmetic mean of each
// numeric field and the mode of each categorical field per cluster. Mode
// ties break toward the value seen first in row order, so results are
// reproducible. Labels and dataset rows must be position-aligned.
func Build(ds *dataset.Dataset, labels []int) ([]Summary, error) {
	if len(labels) != ds.Len() {
		return nil, fmt.Errorf("label count (%d) does not match row count (%d)", len(labels), ds.Len())
	}

	members := make(map[int][]int)
	for i, l := range labels {
		members[l] = append(members[l], i)
	}

	order := make([]int, 0, len(members))
	for l := range members {
		order = append(order, l)
	}
	sort.Ints(order)

	numCols := len(ds.Schema.NumericColumns)
	catCols := len(ds.Schema.CategoricalColumns())

	summaries := make([]Summary, 0, len(order))
	for _, l := range order {
		rows := members[l]

		means := make([]float64, numCols)
		for _, i := range rows {
			for j := 0; j < numCols; j++ {
				means[j] += ds.Numeric[i][j]
			}
		}
		for j := range means {
			means[j] /= float64(len(rows))
		}

		modes := make([]string, catCols)
		for j := 0; j < catCols; j++ {
			modes[j] = mode(ds.Categorical, rows, j)
		}

		summaries = append(summaries, Summary{
			Cluster:          l,
			Size:             len(rows),
			NumericMeans:     means,
			CategoricalModes: modes,
		})
	}
	return summaries, nil
}

// mode returns the most frequent value of column j over the given rows,
// breaking ties by first occurrence in row order.
func mode(cats [][]string, rows []int, j int) string {
	counts := make(map[string]int)
	var firstSeen []string
	for _, i := range rows {
		v := cats[i][j]
		if counts[v] == 0 {
			firstSeen = append(firstSeen, v)
		}
		counts[v]++
	}

	best := ""
	bestCount := 0
	for _, v := range firstSeen {
		if counts[v] > bestCount {
			best = v
			bestCount = counts[v]
		}
	}
	return best
}
