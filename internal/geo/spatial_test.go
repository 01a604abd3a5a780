package geo

import (
	"math"
	"testing"
)

func TestHaversineKM_KnownDistance(t *testing.T) {
	// Arrange: Bengaluru to Chennai, roughly 290 km apart.
	blrLat, blrLon := 12.9716, 77.5946
	maaLat, maaLon := 13.0827, 80.2707

	// Act
	d := HaversineKM(blrLat, blrLon, maaLat, maaLon)

	// Assert
	if d < 280 || d > 300 {
		t.Errorf("expected distance near 290 km, got %.1f", d)
	}
}

func TestHaversineKM_ZeroForSamePoint(t *testing.T) {
	d := HaversineKM(12.9716, 77.5946, 12.9716, 77.5946)
	if d != 0 {
		t.Errorf("expected 0, got %f", d)
	}
}

func TestBearingDeg_Cardinals(t *testing.T) {
	tests := []struct {
		name           string
		dLat, dLon     float64
		wantLo, wantHi float64
	}{
		{"north", 0.1, 0.0, 359.9, 0.1},
		{"east", 0.0, 0.1, 89.9, 90.1},
		{"south", -0.1, 0.0, 179.9, 180.1},
		{"west", 0.0, -0.1, 269.9, 270.1},
	}

	lat, lon := 12.9716, 77.5946
	for _, tt := range tests {
		b := BearingDeg(lat, lon, lat+tt.dLat, lon+tt.dLon)
		if tt.wantLo > tt.wantHi {
			// Wraps through 0.
			if !(b >= tt.wantLo || b <= tt.wantHi) {
				t.Errorf("%s: bearing %.2f outside [%v, %v]", tt.name, b, tt.wantLo, tt.wantHi)
			}
			continue
		}
		if b < tt.wantLo || b > tt.wantHi {
			t.Errorf("%s: bearing %.2f outside [%v, %v]", tt.name, b, tt.wantLo, tt.wantHi)
		}
	}
}

func TestOctant_Sectors(t *testing.T) {
	tests := []struct {
		bearing float64
		want    string
	}{
		{0, "N"},
		{44, "NE"},
		{90, "E"},
		{135, "SE"},
		{180, "S"},
		{225, "SW"},
		{270, "W"},
		{315, "NW"},
		{350, "N"},
	}

	for _, tt := range tests {
		if got := Octant(tt.bearing); got != tt.want {
			t.Errorf("Octant(%v) = %s, want %s", tt.bearing, got, tt.want)
		}
	}
}

func TestDegPerKM_RoundTrip(t *testing.T) {
	// One km north then back south lands within a meter.
	lat := 12.9716
	d := HaversineKM(lat, 77.0, lat+DegPerKMLat(), 77.0)
	if math.Abs(d-1.0) > 0.01 {
		t.Errorf("expected ~1 km per DegPerKMLat step, got %.4f", d)
	}

	d = HaversineKM(lat, 77.0, lat, 77.0+DegPerKMLon(lat))
	if math.Abs(d-1.0) > 0.01 {
		t.Errorf("expected ~1 km per DegPerKMLon step, got %.4f", d)
	}
}
