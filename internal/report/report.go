// Package report renders run results for humans: the elbow-curve PNG used to
// pick k, and a markdown summary of the cluster profiles.
package report

import (
	"fmt"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/kjellvand/personacluster/internal/dataset"
	"github.com/kjellvand/personacluster/internal/kmeans"
	"github.com/kjellvand/personacluster/internal/profile"
)

// RunInfo collects everything the report needs from one pipeline run.
type RunInfo struct {
	SourceFile         string
	RowsTotal          int
	RowsKept           int
	Dropped            []dataset.Drop
	K                  int
	Silhouette         float64
	Elbow              []kmeans.ElbowPoint
	NumericColumns     []string
	CategoricalColumns []string
	Summaries          []profile.Summary
}

// WriteElbowPlot renders the (k, inertia) curve to a PNG at path. The plot
// is a diagnostic for visual elbow inspection; nothing reads it back.
func WriteElbowPlot(points []kmeans.ElbowPoint, path string) error {
	if len(points) == 0 {
		return fmt.Errorf("no elbow points to plot")
	}

	p := plot.New()
	p.Title.Text = "Elbow method"
	p.X.Label.Text = "Number of clusters (k)"
	p.Y.Label.Text = "Inertia (sum of squared distances)"
	p.Add(plotter.NewGrid())

	xys := make(plotter.XYs, len(points))
	for i, pt := range points {
		xys[i].X = float64(pt.K)
		xys[i].Y = pt.Inertia
	}

	line, scatter, err := plotter.NewLinePoints(xys)
	if err != nil {
		return fmt.Errorf("building elbow series: %w", err)
	}
	p.Add(line, scatter)

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("saving elbow plot: %w", err)
	}
	return nil
}

// Markdown renders the persona report. Categorical cells show the original
// survey labels, never encoded values.
func Markdown(info RunInfo) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Cluster analysis: %s\n\n", info.SourceFile)
	fmt.Fprintf(&b, "- Rows: %d kept of %d (%d dropped during coercion)\n",
		info.RowsKept, info.RowsTotal, len(info.Dropped))
	fmt.Fprintf(&b, "- Clusters: k = %d\n", info.K)
	fmt.Fprintf(&b, "- Silhouette score: %.3f\n\n", info.Silhouette)

	if len(info.Dropped) > 0 {
		b.WriteString("## Dropped rows\n\n")
		for _, d := range info.Dropped {
			if d.Value != "" {
				fmt.Fprintf(&b, "- row %d: %s=%q (%s)\n", d.Row+1, d.Column, d.Value, d.Reason)
			} else {
				fmt.Fprintf(&b, "- row %d: %s (%s)\n", d.Row+1, d.Column, d.Reason)
			}
		}
		b.WriteString("\n")
	}

	if len(info.Elbow) > 0 {
		b.WriteString("## Elbow sweep\n\n")
		b.WriteString("| k | Inertia |\n|---|--------|\n")
		for _, p := range info.Elbow {
			fmt.Fprintf(&b, "| %d | %.2f |\n", p.K, p.Inertia)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Persona profiles\n\n")
	b.WriteString("| Cluster | Size |")
	for _, col := range info.NumericColumns {
		fmt.Fprintf(&b, " %s |", col)
	}
	for _, col := range info.CategoricalColumns {
		fmt.Fprintf(&b, " %s |", col)
	}
	b.WriteString("\n|---------|------|")
	for range info.NumericColumns {
		b.WriteString("---|")
	}
	for range info.CategoricalColumns {
		b.WriteString("---|")
	}
	b.WriteString("\n")

	for _, s := range info.Summaries {
		fmt.Fprintf(&b, "| %d | %d |", s.Cluster, s.Size)
		for _, m := range s.NumericMeans {
			fmt.Fprintf(&b, " %.2f |", m)
		}
		for _, m := range s.CategoricalModes {
			fmt.Fprintf(&b, " %s |", m)
		}
		b.WriteString("\n")
	}

	b.WriteString("\nName each cluster from its row above to build qualitative personas.\n")
	return b.String()
}
