package database

import (
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testRun() Run {
	return Run{
		SourceFile:     "survey.csv",
		RowsTotal:      12,
		RowsKept:       11,
		K:              4,
		Seed:           42,
		Restarts:       10,
		Silhouette:     0.512,
		FeatureColumns: []string{"StudyHoursPerDay", "Internet", "Device_Laptop"},
		ReportMarkdown: "# Run report\n",
	}
}

func TestOpenReusesExistingStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	if db.Path() != path {
		t.Errorf("expected path %s, got %s", path, db.Path())
	}
	id, err := db.InsertRun(testRun(), nil, nil)
	if err != nil {
		t.Fatalf("failed to insert run: %v", err)
	}
	db.Close()

	// Reopening must re-run migrations idempotently and keep stored runs.
	db, err = Open(path)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer db.Close()
	run, err := db.GetRun(id)
	if err != nil {
		t.Fatalf("failed to get run after reopen: %v", err)
	}
	if run == nil {
		t.Fatal("expected run to survive reopen")
	}
}

func TestInsertAndGetRun(t *testing.T) {
	db := openTestDB(t)

	elbow := []ElbowPoint{{K: 1, Inertia: 100}, {K: 2, Inertia: 40}, {K: 3, Inertia: 25}}
	profiles := []ClusterProfile{
		{Label: 0, Size: 6, NumericMeans: map[string]float64{"Age": 21.5}, CategoricalModes: map[string]string{"Internet": "Fast"}},
		{Label: 1, Size: 5, NumericMeans: map[string]float64{"Age": 30.2}, CategoricalModes: map[string]string{"Internet": "Slow"}},
	}

	id, err := db.InsertRun(testRun(), elbow, profiles)
	if err != nil {
		t.Fatalf("failed to insert run: %v", err)
	}

	run, err := db.GetRun(id)
	if err != nil {
		t.Fatalf("failed to get run: %v", err)
	}
	if run == nil {
		t.Fatal("expected run, got nil")
	}
	if run.SourceFile != "survey.csv" || run.RowsKept != 11 || run.K != 4 {
		t.Errorf("unexpected run: %+v", run)
	}
	if len(run.FeatureColumns) != 3 || run.FeatureColumns[2] != "Device_Laptop" {
		t.Errorf("unexpected feature columns: %v", run.FeatureColumns)
	}
	if run.CreatedAt == nil {
		t.Error("expected created_at to be set")
	}
}

func TestGetRunNotFound(t *testing.T) {
	db := openTestDB(t)
	run, err := db.GetRun(999)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run != nil {
		t.Errorf("expected nil for missing run, got %+v", run)
	}
}

func TestGetAllRunsNewestFirst(t *testing.T) {
	db := openTestDB(t)

	first, _ := db.InsertRun(testRun(), nil, nil)
	second, _ := db.InsertRun(testRun(), nil, nil)

	runs, err := db.GetAllRuns()
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != second || runs[1].ID != first {
		t.Errorf("expected newest first, got ids %d, %d", runs[0].ID, runs[1].ID)
	}
}

func TestGetElbowPoints(t *testing.T) {
	db := openTestDB(t)

	elbow := []ElbowPoint{{K: 2, Inertia: 40}, {K: 1, Inertia: 100}}
	id, err := db.InsertRun(testRun(), elbow, nil)
	if err != nil {
		t.Fatalf("failed to insert run: %v", err)
	}

	points, err := db.GetElbowPoints(id)
	if err != nil {
		t.Fatalf("failed to get elbow points: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	if points[0].K != 1 || points[1].K != 2 {
		t.Errorf("expected points ordered by k, got %v", points)
	}
}

func TestGetProfiles(t *testing.T) {
	db := openTestDB(t)

	profiles := []ClusterProfile{
		{Label: 1, Size: 5, NumericMeans: map[string]float64{"Age": 30}, CategoricalModes: map[string]string{"Device": "Mobile"}},
		{Label: 0, Size: 6, NumericMeans: map[string]float64{"Age": 21}, CategoricalModes: map[string]string{"Device": "Laptop"}},
	}
	id, err := db.InsertRun(testRun(), nil, profiles)
	if err != nil {
		t.Fatalf("failed to insert run: %v", err)
	}

	got, err := db.GetProfiles(id)
	if err != nil {
		t.Fatalf("failed to get profiles: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(got))
	}
	if got[0].Label != 0 || got[0].CategoricalModes["Device"] != "Laptop" {
		t.Errorf("unexpected first profile: %+v", got[0])
	}
	if got[1].NumericMeans["Age"] != 30 {
		t.Errorf("unexpected second profile: %+v", got[1])
	}
}
