package file

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"

	"github.com/urjalabs/solatlas/internal/domain"
)

func squareZone(id, label, locationID string, lat, lon float64) domain.Zone {
	d := 0.01
	return domain.Zone{
		ID:                       id,
		Label:                    label,
		RepresentativeLocationID: locationID,
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

func TestZonesGeoJSON_WriteThenLoadRoundTrip(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "zones.geojson")
	store := NewZonesGeoJSON(path, newTestLogger())
	zones := []domain.Zone{
		squareZone("BLR-0002", "NE", "BLR-0002", 13.01, 77.62),
		squareZone("BLR-0001", "Center", "BLR-0001", 12.97, 77.59),
	}

	// Act
	if err := store.Write(context.Background(), zones); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	got, err := store.Load(context.Background())

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 zones, got %d", len(got))
	}
	if got[0].ID != "BLR-0001" || got[1].ID != "BLR-0002" {
		t.Fatalf("expected zones sorted by id, got %q, %q", got[0].ID, got[1].ID)
	}
	if got[0].Label != "Center" || got[0].RepresentativeLocationID != "BLR-0001" {
		t.Errorf("expected properties to survive the round trip, got %+v", got[0])
	}
	if got[0].CentroidLat != 12.97 || got[0].CentroidLon != 77.59 {
		t.Errorf("expected centroid to survive the round trip, got %v, %v", got[0].CentroidLat, got[0].CentroidLon)
	}
	if len(got[0].Geometry) == 0 || len(got[0].Geometry[0]) != 5 {
		t.Errorf("expected the polygon ring to survive the round trip, got %v", got[0].Geometry)
	}
}

func TestZonesGeoJSON_MissingZoneIDFails(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "zones.geojson")
	store := NewZonesGeoJSON(path, newTestLogger())
	zone := squareZone("", "Center", "BLR-0001", 12.97, 77.59)
	if err := store.Write(context.Background(), []domain.Zone{zone}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// Act
	_, err := store.Load(context.Background())

	// Assert
	if err == nil {
		t.Fatal("expected an error for a feature without zone_id")
	}
}

func TestZonesGeoJSON_MissingFileFails(t *testing.T) {
	// Arrange
	store := NewZonesGeoJSON(filepath.Join(t.TempDir(), "absent.geojson"), newTestLogger())

	// Act
	_, err := store.Load(context.Background())

	// Assert
	if err == nil {
		t.Fatal("expected an error for a missing zones file")
	}
}
