package database

// Run holds metadata and the rendered report for one pipeline run.
type Run struct {
	ID             int64
	SourceFile     string
	RowsTotal      int
	RowsKept       int
	K              int
	Seed           int64
	Restarts       int
	Silhouette     float64
	FeatureColumns []string
	ReportMarkdown string
	CreatedAt      *string
}

// ElbowPoint is one (k, inertia) sample of a stored elbow sweep.
type ElbowPoint struct {
	K       int
	Inertia float64
}

// ClusterProfile is a stored per-cluster summary.
type ClusterProfile struct {
	RunID            int64
	Label            int
	Size             int
	NumericMeans     map[string]float64
	CategoricalModes map[string]string
}
