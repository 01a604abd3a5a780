package qaqc

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/urjalabs/solatlas/internal/domain"
)

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func testThresholds() Thresholds {
	return Thresholds{
		MinDays:           330,
		MaxZeroDays:       40,
		CapacityFactorMin: 0.12,
		CapacityFactorMax: 0.28,
		MeanDailyKWhMin:   5.0,
		MeanDailyKWhMax:   60.0,
		FullYearDays:      360,
		CapacityKW:        10.0,
	}
}

// yearOf builds n valid days starting January 1 of the year, each producing
// kwh, with the first zeroDays of them forced to zero output.
func yearOf(locationID string, year, n int, kwh float64, zeroDays int) []domain.EnergyDay {
	start := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	days := make([]domain.EnergyDay, 0, n)
	for i := 0; i < n; i++ {
		e := kwh
		if i < zeroDays {
			e = 0
		}
		days = append(days, domain.EnergyDay{
			LocationID: locationID,
			Date:       start.AddDate(0, 0, i),
			EnergyKWh:  e,
			Valid:      true,
		})
	}
	return days
}

func TestScreen_HealthyYearPasses(t *testing.T) {
	// Arrange
	svc := NewService(testThresholds(), newTestLogger())
	// 48 kWh/day on a 10 kW plant is a 0.2 capacity factor.
	labels := map[string][]domain.EnergyDay{
		"BLR-0001": yearOf("BLR-0001", 2023, 365, 48.0, 0),
	}

	// Act
	report, err := svc.Screen(context.Background(), labels)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	passing := report.Passing()
	if len(passing) != 1 || passing[0] != "BLR-0001" {
		t.Fatalf("expected BLR-0001 to pass, got %v", passing)
	}
	year := report.Locations[0].Years[0]
	if !year.FullYear {
		t.Error("expected a 365-day year to count as full")
	}
	if year.CapacityFactor < 0.19 || year.CapacityFactor > 0.21 {
		t.Errorf("expected capacity factor near 0.2, got %f", year.CapacityFactor)
	}
}

func TestScreen_ImplausiblyHighOutputFails(t *testing.T) {
	// Arrange
	svc := NewService(testThresholds(), newTestLogger())
	// 100 kWh/day on a 10 kW plant is a 0.42 capacity factor, beyond physical.
	labels := map[string][]domain.EnergyDay{
		"BLR-0002": yearOf("BLR-0002", 2023, 365, 100.0, 0),
	}

	// Act
	report, err := svc.Screen(context.Background(), labels)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(report.Passing()) != 0 {
		t.Fatal("expected the location to fail screening")
	}
	year := report.Locations[0].Years[0]
	if len(year.Reasons) == 0 {
		t.Fatal("expected failure reasons to be recorded")
	}
}

func TestScreen_TooManyZeroDaysFails(t *testing.T) {
	// Arrange
	svc := NewService(testThresholds(), newTestLogger())
	labels := map[string][]domain.EnergyDay{
		"BLR-0003": yearOf("BLR-0003", 2023, 365, 55.0, 80),
	}

	// Act
	report, err := svc.Screen(context.Background(), labels)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(report.Passing()) != 0 {
		t.Fatal("expected a year with 80 zero days to fail")
	}
	year := report.Locations[0].Years[0]
	if year.ZeroDays != 80 {
		t.Errorf("expected 80 zero days counted, got %d", year.ZeroDays)
	}
}

func TestScreen_PartialYearNeverDecides(t *testing.T) {
	// Arrange
	svc := NewService(testThresholds(), newTestLogger())
	// 120 healthy days: too short to pass, and too short to condemn.
	labels := map[string][]domain.EnergyDay{
		"BLR-0004": yearOf("BLR-0004", 2023, 120, 48.0, 0),
	}

	// Act
	report, err := svc.Screen(context.Background(), labels)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(report.Passing()) != 0 {
		t.Fatal("expected a location with only a partial year not to pass")
	}
	year := report.Locations[0].Years[0]
	if year.FullYear {
		t.Error("expected 120 days not to count as a full year")
	}
}

func TestScreen_OneGoodYearAmongBadOnesPasses(t *testing.T) {
	// Arrange
	svc := NewService(testThresholds(), newTestLogger())
	days := yearOf("BLR-0005", 2022, 365, 100.0, 0)
	days = append(days, yearOf("BLR-0005", 2023, 365, 48.0, 0)...)
	labels := map[string][]domain.EnergyDay{"BLR-0005": days}

	// Act
	report, err := svc.Screen(context.Background(), labels)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(report.Passing()) != 1 {
		t.Fatal("expected one passing full year to qualify the location")
	}
	loc := report.Locations[0]
	if len(loc.Years) != 2 {
		t.Fatalf("expected both years reported, got %d", len(loc.Years))
	}
	if loc.Years[0].Passed {
		t.Error("expected the 2022 year to fail")
	}
	if !loc.Years[1].Passed {
		t.Error("expected the 2023 year to pass")
	}
}

func TestScreen_InvalidDaysAreIgnored(t *testing.T) {
	// Arrange
	svc := NewService(testThresholds(), newTestLogger())
	days := yearOf("BLR-0006", 2023, 365, 48.0, 0)
	for i := 0; i < 100; i++ {
		days[i].Valid = false
	}
	labels := map[string][]domain.EnergyDay{"BLR-0006": days}

	// Act
	report, err := svc.Screen(context.Background(), labels)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	year := report.Locations[0].Years[0]
	if year.Days != 265 {
		t.Errorf("expected 265 usable days after excluding invalid ones, got %d", year.Days)
	}
	if len(report.Passing()) != 0 {
		t.Fatal("expected 265 usable days to fall short of a full year")
	}
}

func TestScreen_ZeroCapacityFails(t *testing.T) {
	// Arrange
	thresholds := testThresholds()
	thresholds.CapacityKW = 0
	svc := NewService(thresholds, newTestLogger())

	// Act
	_, err := svc.Screen(context.Background(), map[string][]domain.EnergyDay{})

	// Assert
	if err == nil {
		t.Fatal("expected an error for zero capacity, got nil")
	}
}
