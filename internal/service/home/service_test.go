package home

import (
	"context"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/urjalabs/solatlas/internal/domain"
	"github.com/urjalabs/solatlas/internal/mocks"
)

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

// squareZone builds a roughly 0.02 degree square around the center.
func squareZone(id string, lat, lon float64) domain.Zone {
	d := 0.01
	return domain.Zone{
		ID:                       id,
		Label:                    id,
		RepresentativeLocationID: id,
		CentroidLat:              lat,
		CentroidLon:              lon,
		Geometry: orb.Polygon{orb.Ring{
			{lon - d, lat - d},
			{lon + d, lat - d},
			{lon + d, lat + d},
			{lon - d, lat + d},
			{lon - d, lat - d},
		}},
	}
}

func artifactOf(zones []domain.Zone, results []domain.ZoneResult) *mocks.MockArtifactStore {
	return &mocks.MockArtifactStore{
		ReadFunc: func(ctx context.Context) ([]domain.Zone, []domain.ZoneResult, error) {
			return zones, results, nil
		},
	}
}

func loadedService(t *testing.T) *Service {
	t.Helper()
	zones := []domain.Zone{
		squareZone("BLR-0001", 12.95, 77.55),
		squareZone("BLR-0002", 12.95, 77.60),
		squareZone("BLR-0003", 13.00, 77.55),
	}
	results := []domain.ZoneResult{
		{ZoneID: "BLR-0001", PredictedAnnualKWh: 14000.0, SuitabilityScore: 80.0},
		{ZoneID: "BLR-0002", PredictedAnnualKWh: 13000.0, SuitabilityScore: 40.0},
		{ZoneID: "BLR-0003", PredictedAnnualKWh: 15000.0, SuitabilityScore: 100.0},
	}
	svc := NewService(artifactOf(zones, results), 25.0, newTestLogger()).(*Service)
	if err := svc.Reload(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	return svc
}

func TestEstimate_ContainmentWinsOverProximity(t *testing.T) {
	// Arrange
	svc := loadedService(t)

	// Act: inside BLR-0002 even though BLR-0001's centroid is not far.
	est, err := svc.Estimate(context.Background(), 12.952, 77.603, 5.0)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if est.ZoneID != "BLR-0002" {
		t.Errorf("expected containment match BLR-0002, got %s", est.ZoneID)
	}
	if est.Matched != "contains" {
		t.Errorf("expected match mode contains, got %s", est.Matched)
	}
}

func TestEstimate_NearestCentroidWhenNotContained(t *testing.T) {
	// Arrange
	svc := loadedService(t)

	// Act: between cells, inside the covered bound but in no polygon.
	est, err := svc.Estimate(context.Background(), 12.97, 77.555, 5.0)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if est.Matched != "nearest" {
		t.Errorf("expected match mode nearest, got %s", est.Matched)
	}
	if est.ZoneID == "" {
		t.Error("expected a zone to be matched")
	}
}

func TestEstimate_ScalesLinearlyWithCapacity(t *testing.T) {
	// Arrange
	svc := loadedService(t)

	// Act
	half, err := svc.Estimate(context.Background(), 12.95, 77.55, 5.0)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	double, err := svc.Estimate(context.Background(), 12.95, 77.55, 20.0)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if math.Abs(half.EstimatedKWh-14000.0/2) > 1e-9 {
		t.Errorf("expected a 5 kW install to yield half the reference, got %f", half.EstimatedKWh)
	}
	if math.Abs(double.EstimatedKWh-14000.0*2) > 1e-9 {
		t.Errorf("expected a 20 kW install to yield double the reference, got %f", double.EstimatedKWh)
	}
	if half.ZoneAnnualKWh != 14000.0 {
		t.Errorf("expected the zone baseline to be reported unscaled, got %f", half.ZoneAnnualKWh)
	}
}

func TestEstimate_FarOutsideCoverageFailsTyped(t *testing.T) {
	// Arrange
	svc := loadedService(t)

	// Act: Chennai is about 290 km from the Bengaluru grid.
	_, err := svc.Estimate(context.Background(), 13.0827, 80.2707, 5.0)

	// Assert
	if err == nil {
		t.Fatal("expected OutOfCoverageError, got nil")
	}
	coverage, ok := err.(*domain.OutOfCoverageError)
	if !ok {
		t.Fatalf("expected *domain.OutOfCoverageError, got %T", err)
	}
	if coverage.DistanceKM < 100.0 {
		t.Errorf("expected a large distance in the error, got %f", coverage.DistanceKM)
	}
}

func TestEstimate_JustOutsideBoundStillServed(t *testing.T) {
	// Arrange
	svc := loadedService(t)

	// Act: a few km east of the covered bound, within the 25 km margin.
	est, err := svc.Estimate(context.Background(), 12.95, 77.70, 5.0)

	// Assert
	if err != nil {
		t.Fatalf("expected the margin to cover nearby points, got %v", err)
	}
	if est.Matched != "nearest" {
		t.Errorf("expected match mode nearest, got %s", est.Matched)
	}
}

func TestEstimate_NonPositiveCapacityFails(t *testing.T) {
	// Arrange
	svc := loadedService(t)

	// Act
	_, err := svc.Estimate(context.Background(), 12.95, 77.55, 0)

	// Assert
	if err == nil {
		t.Fatal("expected an error for zero capacity, got nil")
	}
}

func TestEstimate_WithoutLoadedArtifactFails(t *testing.T) {
	// Arrange
	svc := NewService(artifactOf(nil, nil), 25.0, newTestLogger())

	// Act
	_, err := svc.Estimate(context.Background(), 12.95, 77.55, 5.0)

	// Assert
	if err == nil {
		t.Fatal("expected an error before the first reload, got nil")
	}
}

func TestReload_BumpsVersion(t *testing.T) {
	// Arrange
	svc := loadedService(t)
	before := svc.Version()

	// Act
	if err := svc.Reload(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	after := svc.Version()

	// Assert
	if after <= before {
		t.Errorf("expected the version to advance on reload, got %d then %d", before, after)
	}
}

func TestReload_ZonesWithoutResultsDropped(t *testing.T) {
	// Arrange
	zones := []domain.Zone{
		squareZone("BLR-0001", 12.95, 77.55),
		squareZone("BLR-0002", 12.95, 77.60),
	}
	results := []domain.ZoneResult{
		{ZoneID: "BLR-0001", PredictedAnnualKWh: 14000.0, SuitabilityScore: 80.0},
	}
	svc := NewService(artifactOf(zones, results), 25.0, newTestLogger())
	if err := svc.Reload(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// Act: a point inside the zone that has no result.
	est, err := svc.Estimate(context.Background(), 12.95, 77.60, 5.0)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if est.ZoneID != "BLR-0001" {
		t.Errorf("expected the unscored zone to be invisible, got %s", est.ZoneID)
	}
}
