package file

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"testing"
	"time"

	"github.com/urjalabs/solatlas/internal/domain"
)

func TestReportStore_RunReportRoundTrip(t *testing.T) {
	// Arrange
	store := NewReportStore(filepath.Join(t.TempDir(), "reports"), newTestLogger())
	report := &domain.RunReport{
		RunID:      "run-1",
		ModelID:    "abc123",
		StartedAt:  time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2024, 3, 1, 10, 5, 0, 0, time.UTC),
		Succeeded:  []string{"BLR-0001", "BLR-0002"},
		Failed:     []domain.ZoneFailure{{ZoneID: "BLR-0003", Reason: "no horizon rows"}},
	}

	// Act
	if err := store.SaveRun(context.Background(), report); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	got, err := store.LoadRun(context.Background())

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.RunID != "run-1" || got.ModelID != "abc123" {
		t.Errorf("expected run stamps to survive the round trip, got %+v", got)
	}
	if len(got.Succeeded) != 2 || len(got.Failed) != 1 {
		t.Errorf("expected zone outcomes to survive the round trip, got %+v", got)
	}
}

func TestReportStore_AnnualRoundTripKeepsRunID(t *testing.T) {
	// Arrange
	store := NewReportStore(filepath.Join(t.TempDir(), "reports"), newTestLogger())
	annual := map[string]float64{"BLR-0001": 15400, "BLR-0002": 14900}

	// Act
	if err := store.SaveAnnual(context.Background(), "run-7", annual); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	runID, got, err := store.LoadAnnual(context.Background())

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if runID != "run-7" {
		t.Errorf("expected run id run-7, got %q", runID)
	}
	if got["BLR-0001"] != 15400 || got["BLR-0002"] != 14900 {
		t.Errorf("expected annual totals to survive the round trip, got %v", got)
	}
}

func TestReportStore_MissingReportIsNotExist(t *testing.T) {
	// Arrange
	store := NewReportStore(filepath.Join(t.TempDir(), "reports"), newTestLogger())

	// Act
	_, err := store.LoadQA(context.Background())

	// Assert
	if err == nil {
		t.Fatal("expected an error for a missing report")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected fs.ErrNotExist, got %v", err)
	}
}

func TestModelStore_SaveThenLoadRoundTrip(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "models", "model.json")
	store := NewModelStore(path, newTestLogger())
	model := &domain.FittedModel{
		ID:      "abc123",
		Variant: domain.ModelVariantRidge,
		Schema:  []string{"ghi_whm2", "t2m_c"},
		Params: domain.EstimatorParams{
			Ridge: &domain.RidgeParams{
				Weights:   []float64{1.5, -0.2},
				Intercept: 40,
				Mean:      []float64{5000, 24},
				Std:       []float64{400, 2},
				Lambda:    1.0,
			},
		},
		TrainRows: 600,
	}

	// Act
	savedPath, err := store.Save(context.Background(), model)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	got, err := store.Load(context.Background())

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if savedPath != path {
		t.Errorf("expected saved path %q, got %q", path, savedPath)
	}
	if got.ID != "abc123" || got.Variant != domain.ModelVariantRidge {
		t.Errorf("expected model identity to survive the round trip, got %+v", got)
	}
	if got.Params.Ridge == nil || got.Params.Ridge.Weights[0] != 1.5 {
		t.Errorf("expected ridge params to survive the round trip, got %+v", got.Params)
	}
}

func TestModelStore_MissingFileFails(t *testing.T) {
	// Arrange
	store := NewModelStore(filepath.Join(t.TempDir(), "absent.json"), newTestLogger())

	// Act
	_, err := store.Load(context.Background())

	// Assert
	if err == nil {
		t.Fatal("expected an error for a missing model file")
	}
}
