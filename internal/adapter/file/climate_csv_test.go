package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func writeTestFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestClimateCSV_LoadsPerLocationFiles(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	writeTestFile(t, dir, "BLR-0001.csv",
		"location_id,date,ghi_whm2,t2m_c,ws10_ms,rh2m_pct\n"+
			"BLR-0001,2023-01-01,5200.5,24.1,2.5,61\n"+
			"BLR-0001,2023-01-02,5100.0,23.8,2.2,64\n")
	writeTestFile(t, dir, "BLR-0002.csv",
		"location_id,date,ghi_whm2,t2m_c,ws10_ms,rh2m_pct\n"+
			"BLR-0002,2023-01-01,4980.0,25.0,3.1,55\n")
	writeTestFile(t, dir, "notes.txt", "not climate data")
	source := NewClimateCSV(dir, newTestLogger())

	// Act
	series, err := source.Load(context.Background())

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("expected 2 locations, got %d", len(series))
	}
	first := series["BLR-0001"]
	if len(first) != 2 {
		t.Fatalf("expected 2 records for BLR-0001, got %d", len(first))
	}
	if first[0].GHIWhm2 != 5200.5 {
		t.Errorf("expected ghi 5200.5, got %v", first[0].GHIWhm2)
	}
	if first[0].LocationID != "BLR-0001" {
		t.Errorf("expected location from filename, got %q", first[0].LocationID)
	}
	if !first[0].Date.Equal(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected dates truncated to UTC midnight, got %v", first[0].Date)
	}
}

func TestClimateCSV_MissingColumnFails(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	writeTestFile(t, dir, "BLR-0001.csv",
		"location_id,date,ghi_whm2,t2m_c\n"+
			"BLR-0001,2023-01-01,5200.5,24.1\n")
	source := NewClimateCSV(dir, newTestLogger())

	// Act
	_, err := source.Load(context.Background())

	// Assert
	if err == nil {
		t.Fatal("expected an error for a file missing required columns")
	}
}

func TestClimateCSV_BadValueFailsWithLineContext(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	writeTestFile(t, dir, "BLR-0001.csv",
		"location_id,date,ghi_whm2,t2m_c,ws10_ms,rh2m_pct\n"+
			"BLR-0001,2023-01-01,not-a-number,24.1,2.5,61\n")
	source := NewClimateCSV(dir, newTestLogger())

	// Act
	_, err := source.Load(context.Background())

	// Assert
	if err == nil {
		t.Fatal("expected an error for an unparseable value")
	}
}

func TestClimateCSV_MissingDirFails(t *testing.T) {
	// Arrange
	source := NewClimateCSV(filepath.Join(t.TempDir(), "absent"), newTestLogger())

	// Act
	_, err := source.Load(context.Background())

	// Assert
	if err == nil {
		t.Fatal("expected an error for a missing climate dir")
	}
}
