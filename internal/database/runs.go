package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// InsertRun stores a run with its elbow points and cluster profiles in one
// transaction and returns the new run ID.
func (db *DB) InsertRun(run Run, elbow []ElbowPoint, profiles []ClusterProfile) (int64, error) {
	columnsJSON, err := json.Marshal(run.FeatureColumns)
	if err != nil {
		return 0, fmt.Errorf("encoding feature columns: %w", err)
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO runs (source_file, rows_total, rows_kept, k, seed, restarts, silhouette, feature_columns, report_markdown)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.SourceFile, run.RowsTotal, run.RowsKept, run.K, run.Seed, run.Restarts,
		run.Silhouette, string(columnsJSON), run.ReportMarkdown,
	)
	if err != nil {
		return 0, err
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, p := range elbow {
		if _, err := tx.Exec(
			"INSERT INTO elbow_points (run_id, k, inertia) VALUES (?, ?, ?)",
			runID, p.K, p.Inertia,
		); err != nil {
			return 0, err
		}
	}

	for _, p := range profiles {
		means, err := json.Marshal(p.NumericMeans)
		if err != nil {
			return 0, fmt.Errorf("encoding numeric means: %w", err)
		}
		modes, err := json.Marshal(p.CategoricalModes)
		if err != nil {
			return 0, fmt.Errorf("encoding categorical modes: %w", err)
		}
		if _, err := tx.Exec(
			"INSERT INTO cluster_profiles (run_id, label, size, numeric_means, categorical_modes) VALUES (?, ?, ?, ?, ?)",
			runID, p.Label, p.Size, string(means), string(modes),
		); err != nil {
			return 0, err
		}
	}

	return runID, tx.Commit()
}

// GetRun returns a run by ID, or nil if it does not exist.
func (db *DB) GetRun(id int64) (*Run, error) {
	row := db.conn.QueryRow(
		`SELECT id, source_file, rows_total, rows_kept, k, seed, restarts, silhouette, feature_columns, report_markdown, created_at
		FROM runs WHERE id = ?`, id,
	)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return run, err
}

// GetAllRuns returns all runs, newest first.
func (db *DB) GetAllRuns() ([]Run, error) {
	rows, err := db.conn.Query(
		`SELECT id, source_file, rows_total, rows_kept, k, seed, restarts, silhouette, feature_columns, report_markdown, created_at
		FROM runs ORDER BY id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetElbowPoints returns the stored elbow curve for a run, ordered by k.
func (db *DB) GetElbowPoints(runID int64) ([]ElbowPoint, error) {
	rows, err := db.conn.Query(
		"SELECT k, inertia FROM elbow_points WHERE run_id = ? ORDER BY k", runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []ElbowPoint
	for rows.Next() {
		var p ElbowPoint
		if err := rows.Scan(&p.K, &p.Inertia); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// GetProfiles returns the stored cluster profiles for a run, ordered by label.
func (db *DB) GetProfiles(runID int64) ([]ClusterProfile, error) {
	rows, err := db.conn.Query(
		"SELECT run_id, label, size, numeric_means, categorical_modes FROM cluster_profiles WHERE run_id = ? ORDER BY label",
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []ClusterProfile
	for rows.Next() {
		var p ClusterProfile
		var means, modes string
		if err := rows.Scan(&p.RunID, &p.Label, &p.Size, &means, &modes); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(means), &p.NumericMeans); err != nil {
			return nil, fmt.Errorf("decoding numeric means: %w", err)
		}
		if err := json.Unmarshal([]byte(modes), &p.CategoricalModes); err != nil {
			return nil, fmt.Errorf("decoding categorical modes: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*Run, error) {
	var run Run
	var columnsJSON string
	if err := row.Scan(
		&run.ID, &run.SourceFile, &run.RowsTotal, &run.RowsKept, &run.K, &run.Seed,
		&run.Restarts, &run.Silhouette, &columnsJSON, &run.ReportMarkdown, &run.CreatedAt,
	); err != nil {
		return nil, err
	}
	if columnsJSON != "" {
		if err := json.Unmarshal([]byte(columnsJSON), &run.FeatureColumns); err != nil {
			return nil, fmt.Errorf("decoding feature columns: %w", err)
		}
	}
	return &run, nil
}
