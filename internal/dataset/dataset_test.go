package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func testSchema() Schema {
	return Schema{
		IDColumn:       "StudentID",
		NumericColumns: []string{"StudyHoursPerDay", "TechSkill", "Motivation", "Age"},
		OrdinalColumn:  "Internet",
		OrdinalLevels:  []string{"Slow", "Average", "Fast"},
		NominalColumns: []string{"Device", "Location", "OnlineClassPreference", "DataAccess"},
	}
}

func surveyHeader() []string {
	return []string{
		"StudentID", "StudyHoursPerDay", "TechSkill", "Motivation", "Age",
		"Internet", "Device", "Location", "OnlineClassPreference", "DataAccess",
	}
}

func surveyRow(id string, i int) []string {
	return []string{
		id, fmt.Sprintf("%d.5", i%6), "3", "4", fmt.Sprintf("%d", 18+i%5),
		"Fast", "Laptop", "Urban", "Yes", "Wifi",
	}
}

func TestCoerceDropsNonNumericIdentifier(t *testing.T) {
	table := &Table{Header: surveyHeader()}
	for i := 1; i <= 11; i++ {
		table.Rows = append(table.Rows, surveyRow(fmt.Sprintf("%d", i), i))
	}
	table.Rows = append(table.Rows, surveyRow("MAIN", 12))

	ds, err := Coerce(table, testSchema())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ds.Len() != 11 {
		t.Errorf("expected 11 rows kept, got %d", ds.Len())
	}
	if len(ds.Dropped) != 1 {
		t.Fatalf("expected 1 drop, got %d", len(ds.Dropped))
	}
	d := ds.Dropped[0]
	if d.Value != "MAIN" || d.Column != "StudentID" {
		t.Errorf("expected MAIN identifier drop, got %+v", d)
	}
	if ds.IDs[0] != 1 || ds.IDs[10] != 11 {
		t.Errorf("expected ids 1..11 in order, got first=%d last=%d", ds.IDs[0], ds.IDs[10])
	}
}

func TestCoerceDropsRowWithBadNumericField(t *testing.T) {
	table := &Table{Header: surveyHeader()}
	table.Rows = append(table.Rows, surveyRow("1", 1))
	bad := surveyRow("2", 2)
	bad[3] = "very motivated" // Motivation
	table.Rows = append(table.Rows, bad)
	table.Rows = append(table.Rows, surveyRow("3", 3))

	ds, err := Coerce(table, testSchema())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ds.Len() != 2 {
		t.Errorf("expected 2 rows kept, got %d", ds.Len())
	}
	if len(ds.Dropped) != 1 || ds.Dropped[0].Column != "Motivation" {
		t.Errorf("expected a Motivation drop, got %+v", ds.Dropped)
	}
	// The whole row goes, never a column-wise repair.
	if ds.IDs[0] != 1 || ds.IDs[1] != 3 {
		t.Errorf("expected ids [1 3], got %v", ds.IDs)
	}
}

func TestCoerceDropsNonFiniteNumericField(t *testing.T) {
	table := &Table{Header: surveyHeader()}
	table.Rows = append(table.Rows, surveyRow("1", 1))
	for i, v := range []string{"NaN", "Inf", "+Inf", "-inf"} {
		bad := surveyRow(fmt.Sprintf("%d", i+2), i+2)
		bad[1] = v // StudyHoursPerDay
		table.Rows = append(table.Rows, bad)
	}

	ds, err := Coerce(table, testSchema())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ds.Len() != 1 {
		t.Errorf("expected 1 row kept, got %d", ds.Len())
	}
	if len(ds.Dropped) != 4 {
		t.Fatalf("expected 4 drops, got %d", len(ds.Dropped))
	}
	for _, d := range ds.Dropped {
		if d.Column != "StudyHoursPerDay" || d.Reason != "non-finite value" {
			t.Errorf("expected non-finite StudyHoursPerDay drop, got %+v", d)
		}
	}
}

func TestCoerceDropsNonFiniteIdentifier(t *testing.T) {
	table := &Table{Header: surveyHeader()}
	table.Rows = append(table.Rows, surveyRow("NaN", 1))
	table.Rows = append(table.Rows, surveyRow("2", 2))

	ds, err := Coerce(table, testSchema())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// int64(NaN) is math.MinInt64; the row must be dropped, not kept with a
	// garbage identifier.
	if ds.Len() != 1 || ds.IDs[0] != 2 {
		t.Errorf("expected only id 2 kept, got %v", ds.IDs)
	}
	if len(ds.Dropped) != 1 || ds.Dropped[0].Column != "StudentID" {
		t.Errorf("expected a StudentID drop, got %+v", ds.Dropped)
	}
}

func TestCoerceDropsUnknownOrdinalLevel(t *testing.T) {
	table := &Table{Header: surveyHeader()}
	table.Rows = append(table.Rows, surveyRow("1", 1))
	bad := surveyRow("2", 2)
	bad[5] = "Blazing"
	table.Rows = append(table.Rows, bad)

	ds, err := Coerce(table, testSchema())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ds.Len() != 1 {
		t.Errorf("expected 1 row kept, got %d", ds.Len())
	}
	if len(ds.Dropped) != 1 || ds.Dropped[0].Reason != "value outside ordinal levels" {
		t.Errorf("expected ordinal drop, got %+v", ds.Dropped)
	}
}

func TestCoerceMissingColumnIsFatal(t *testing.T) {
	table := &Table{
		Header: []string{"StudentID", "StudyHoursPerDay"},
		Rows:   [][]string{{"1", "2.0"}},
	}
	if _, err := Coerce(table, testSchema()); err == nil {
		t.Fatal("expected error for missing columns")
	}
}

func TestCoerceEmptyResultIsFatal(t *testing.T) {
	table := &Table{Header: surveyHeader()}
	table.Rows = append(table.Rows, surveyRow("MAIN", 1))

	if _, err := Coerce(table, testSchema()); err == nil {
		t.Fatal("expected error when coercion empties the dataset")
	}
}

func TestCoerceAcceptsFloatIdentifier(t *testing.T) {
	table := &Table{Header: surveyHeader()}
	table.Rows = append(table.Rows, surveyRow("7.0", 1))

	ds, err := Coerce(table, testSchema())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ds.IDs[0] != 7 {
		t.Errorf("expected id 7, got %d", ds.IDs[0])
	}
}

func TestReadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "survey.csv")
	content := "StudentID,Age\n1,20\n2,21\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	table, err := ReadCSV(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(table.Header) != 2 || table.Header[0] != "StudentID" {
		t.Errorf("unexpected header: %v", table.Header)
	}
	if len(table.Rows) != 2 {
		t.Errorf("expected 2 rows, got %d", len(table.Rows))
	}
}

func TestReadCSVMissingFile(t *testing.T) {
	if _, err := ReadCSV(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestCategoricalColumnsOrder(t *testing.T) {
	s := testSchema()
	cols := s.CategoricalColumns()
	if cols[0] != "Internet" {
		t.Errorf("expected ordinal column first, got %v", cols)
	}
	if len(cols) != 5 {
		t.Errorf("expected 5 categorical columns, got %d", len(cols))
	}
}
