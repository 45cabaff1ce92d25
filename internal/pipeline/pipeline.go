// Package pipeline wires the analysis stages together: ingest and coerce the
// survey, encode and scale features, sweep cluster counts, fit, score, and
// profile. Every stage produces a new value; nothing mutates upstream data,
// so row position stays a valid link all the way back to the input.
package pipeline

import (
	"fmt"
	"log"

	"github.com/kjellvand/personacluster/internal/config"
	"github.com/kjellvand/personacluster/internal/database"
	"github.com/kjellvand/personacluster/internal/dataset"
	"github.com/kjellvand/personacluster/internal/features"
	"github.com/kjellvand/personacluster/internal/kmeans"
	"github.com/kjellvand/personacluster/internal/profile"
	"github.com/kjellvand/personacluster/internal/report"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full pipeline run.
type Result struct {
	SourceFile     string
	Steps          []StepResult
	RunID          int64
	Silhouette     float64
	Elbow          []kmeans.ElbowPoint
	Summaries      []profile.Summary
	ReportMarkdown string
}

// Options adjusts a single run.
type Options struct {
	K         int    // overrides the configured k when > 0
	SkipElbow bool   // skip the diagnostic sweep
	PlotPath  string // where to write the elbow PNG; empty disables it
}

// Pipeline runs the survey clustering analysis.
type Pipeline struct {
	cfg *config.Config
	db  *database.DB
}

// New creates a new pipeline.
func New(cfg *config.Config, db *database.DB) *Pipeline {
	return &Pipeline{cfg: cfg, db: db}
}

// Run executes the full analysis for one CSV file. It stops at the first
// fatal step; row-level data problems are drops, not errors.
func (p *Pipeline) Run(csvPath string, opts Options) *Result {
	r := &Result{SourceFile: csvPath}

	k := p.cfg.Clustering.K
	if opts.K > 0 {
		k = opts.K
	}

	// Step 1: ingest and coerce
	log.Printf("coercing %s", csvPath)
	table, err := dataset.ReadCSV(csvPath)
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Coerce", Err: err})
		return r
	}
	ds, err := dataset.Coerce(table, schemaFromConfig(p.cfg.Survey))
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Coerce", Err: err})
		return r
	}
	for _, d := range ds.Dropped {
		log.Printf("dropped row %d: %s=%q (%s)", d.Row+1, d.Column, d.Value, d.Reason)
	}
	r.Steps = append(r.Steps, StepResult{
		Name:    "Coerce",
		Summary: fmt.Sprintf("Kept %d of %d rows (%d dropped)", ds.Len(), len(table.Rows), len(ds.Dropped)),
	})

	// Step 2: encode
	encoded := features.Encode(ds)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Encode",
		Summary: fmt.Sprintf("Built %d feature columns", len(encoded.Columns)),
	})

	// Step 3: scale
	scaled := features.Standardize(encoded)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Scale",
		Summary: fmt.Sprintf("Standardized %d rows", len(scaled.Rows)),
	})

	fitCfg := kmeans.Config{
		MaxIter:  p.cfg.Clustering.MaxIter,
		Restarts: p.cfg.Clustering.Restarts,
		Seed:     p.cfg.Clustering.Seed,
	}

	// Step 4: elbow sweep (diagnostic only; never picks k)
	if !opts.SkipElbow {
		elbow, err := kmeans.Sweep(scaled.Rows, p.cfg.Clustering.KMax, fitCfg)
		if err != nil {
			r.Steps = append(r.Steps, StepResult{Name: "Elbow", Err: err})
			return r
		}
		r.Elbow = elbow

		summary := fmt.Sprintf("Swept k=1..%d", elbow[len(elbow)-1].K)
		if opts.PlotPath != "" {
			if err := report.WriteElbowPlot(elbow, opts.PlotPath); err != nil {
				r.Steps = append(r.Steps, StepResult{Name: "Elbow", Err: err})
				return r
			}
			summary += ", plot written to " + opts.PlotPath
		}
		r.Steps = append(r.Steps, StepResult{Name: "Elbow", Summary: summary})
	}

	// Step 5: fit
	fitCfg.K = k
	fit, err := kmeans.Fit(scaled.Rows, fitCfg)
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Fit", Err: err})
		return r
	}
	if fit.Unconverged > 0 {
		log.Printf("warning: %d of %d restarts hit the iteration cap (%d)",
			fit.Unconverged, p.cfg.Clustering.Restarts, p.cfg.Clustering.MaxIter)
	}
	r.Steps = append(r.Steps, StepResult{
		Name:    "Fit",
		Summary: fmt.Sprintf("k=%d, inertia %.2f (restart %d)", k, fit.Inertia, fit.Restart),
	})

	// Step 6: score
	r.Silhouette = kmeans.Silhouette(scaled.Rows, fit.Labels)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Score",
		Summary: fmt.Sprintf("Silhouette %.3f", r.Silhouette),
	})

	// Step 7: profile against the original typed records
	summaries, err := profile.Build(ds, fit.Labels)
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Profile", Err: err})
		return r
	}
	r.Summaries = summaries
	r.Steps = append(r.Steps, StepResult{
		Name:    "Profile",
		Summary: fmt.Sprintf("Profiled %d clusters", len(summaries)),
	})

	r.ReportMarkdown = report.Markdown(report.RunInfo{
		SourceFile:         csvPath,
		RowsTotal:          len(table.Rows),
		RowsKept:           ds.Len(),
		Dropped:            ds.Dropped,
		K:                  k,
		Silhouette:         r.Silhouette,
		Elbow:              r.Elbow,
		NumericColumns:     ds.Schema.NumericColumns,
		CategoricalColumns: ds.Schema.CategoricalColumns(),
		Summaries:          summaries,
	})

	// Step 8: store outputs
	runID, err := p.store(csvPath, table, ds, scaled, k, r)
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Store", Err: err})
		return r
	}
	r.RunID = runID
	r.Steps = append(r.Steps, StepResult{
		Name:    "Store",
		Summary: fmt.Sprintf("Saved run %d", runID),
	})

	return r
}

func (p *Pipeline) store(csvPath string, table *dataset.Table, ds *dataset.Dataset, scaled *features.Matrix, k int, r *Result) (int64, error) {
	elbow := make([]database.ElbowPoint, len(r.Elbow))
	for i, pt := range r.Elbow {
		elbow[i] = database.ElbowPoint{K: pt.K, Inertia: pt.Inertia}
	}

	catCols := ds.Schema.CategoricalColumns()
	profiles := make([]database.ClusterProfile, len(r.Summaries))
	for i, s := range r.Summaries {
		means := make(map[string]float64, len(s.NumericMeans))
		for j, col := range ds.Schema.NumericColumns {
			means[col] = s.NumericMeans[j]
		}
		modes := make(map[string]string, len(s.CategoricalModes))
		for j, col := range catCols {
			modes[col] = s.CategoricalModes[j]
		}
		profiles[i] = database.ClusterProfile{Label: s.Cluster, Size: s.Size, NumericMeans: means, CategoricalModes: modes}
	}

	return p.db.InsertRun(database.Run{
		SourceFile:     csvPath,
		RowsTotal:      len(table.Rows),
		RowsKept:       ds.Len(),
		K:              k,
		Seed:           p.cfg.Clustering.Seed,
		Restarts:       p.cfg.Clustering.Restarts,
		Silhouette:     r.Silhouette,
		FeatureColumns: scaled.Columns,
		ReportMarkdown: r.ReportMarkdown,
	}, elbow, profiles)
}

func schemaFromConfig(s config.Survey) dataset.Schema {
	return dataset.Schema{
		IDColumn:       s.IDColumn,
		NumericColumns: s.NumericColumns,
		OrdinalColumn:  s.OrdinalColumn,
		OrdinalLevels:  s.OrdinalLevels,
		NominalColumns: s.NominalColumns,
	}
}
