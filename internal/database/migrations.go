package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    source_file TEXT NOT NULL,
    rows_total INTEGER NOT NULL,
    rows_kept INTEGER NOT NULL,
    k INTEGER NOT NULL,
    seed INTEGER NOT NULL,
    restarts INTEGER NOT NULL,
    silhouette REAL NOT NULL,
    feature_columns TEXT,
    report_markdown TEXT,
    created_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS elbow_points (
    run_id INTEGER NOT NULL REFERENCES runs(id),
    k INTEGER NOT NULL,
    inertia REAL NOT NULL,
    PRIMARY KEY (run_id, k)
);

CREATE TABLE IF NOT EXISTS cluster_profiles (
    run_id INTEGER NOT NULL REFERENCES runs(id),
    label INTEGER NOT NULL,
    size INTEGER NOT NULL,
    numeric_means TEXT NOT NULL,
    categorical_modes TEXT NOT NULL,
    PRIMARY KEY (run_id, label)
);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
