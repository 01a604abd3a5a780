package pvsim

import (
	"context"
	"math"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/urjalabs/solatlas/internal/domain"
)

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func referencePlant() Plant {
	return Plant{
		CapacityKW:  10.0,
		TiltDeg:     13.0,
		AzimuthDeg:  180.0,
		Albedo:      0.20,
		GammaPdc:    -0.004,
		InverterEff: 0.96,
	}
}

const bengaluruLat = 12.9716

func bengaluruDay(date time.Time, ghi float64) domain.ClimateRecord {
	return domain.ClimateRecord{
		LocationID: "BLR-0001",
		Date:       date,
		GHIWhm2:    ghi,
		T2MC:       24.0,
		WS10MS:     2.5,
		RH2MPct:    60.0,
	}
}

func TestDailyEnergyKWh_TypicalTropicalDay(t *testing.T) {
	// Arrange
	svc := NewService(referencePlant(), newTestLogger())
	rec := bengaluruDay(time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC), 5500.0)

	// Act
	kwh := svc.DailyEnergyKWh(bengaluruLat, rec)

	// Assert
	if kwh < 35.0 || kwh > 60.0 {
		t.Errorf("expected a 10 kW plant on a clear tropical day to yield 35-60 kWh, got %f", kwh)
	}
}

func TestDailyEnergyKWh_AnnualCapacityFactorInPlausibleBand(t *testing.T) {
	// Arrange
	svc := NewService(referencePlant(), newTestLogger())
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	// Act
	var total float64
	for i := 0; i < 365; i++ {
		date := start.AddDate(0, 0, i)
		// Seasonal irradiance cycle with a monsoon dip around July.
		ghi := 5300.0 + 700.0*math.Sin(2*math.Pi*(float64(i)-80.0)/365.25)
		if m := date.Month(); m >= time.June && m <= time.September {
			ghi *= 0.75
		}
		total += svc.DailyEnergyKWh(bengaluruLat, bengaluruDay(date, ghi))
	}
	capacityFactor := total / (10.0 * 24.0 * 365.0)

	// Assert
	if capacityFactor < 0.12 || capacityFactor > 0.28 {
		t.Errorf("expected capacity factor in [0.12, 0.28], got %f (annual %f kWh)", capacityFactor, total)
	}
}

func TestDailyEnergyKWh_MoreIrradianceMoreEnergy(t *testing.T) {
	// Arrange
	svc := NewService(referencePlant(), newTestLogger())
	date := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

	// Act
	low := svc.DailyEnergyKWh(bengaluruLat, bengaluruDay(date, 2000.0))
	high := svc.DailyEnergyKWh(bengaluruLat, bengaluruDay(date, 6000.0))

	// Assert
	if high <= low {
		t.Errorf("expected energy to increase with irradiance, got %f then %f", low, high)
	}
}

func TestDailyEnergyKWh_HotDayYieldsLess(t *testing.T) {
	// Arrange
	svc := NewService(referencePlant(), newTestLogger())
	date := time.Date(2023, 4, 20, 0, 0, 0, 0, time.UTC)
	cool := bengaluruDay(date, 5500.0)
	cool.T2MC = 18.0
	hot := bengaluruDay(date, 5500.0)
	hot.T2MC = 40.0

	// Act
	coolKWh := svc.DailyEnergyKWh(bengaluruLat, cool)
	hotKWh := svc.DailyEnergyKWh(bengaluruLat, hot)

	// Assert
	if hotKWh >= coolKWh {
		t.Errorf("expected the hot day to yield less, got cool %f vs hot %f", coolKWh, hotKWh)
	}
}

func TestDailyEnergyKWh_ZeroIrradianceZeroEnergy(t *testing.T) {
	// Arrange
	svc := NewService(referencePlant(), newTestLogger())
	rec := bengaluruDay(time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC), 0.0)

	// Act
	kwh := svc.DailyEnergyKWh(bengaluruLat, rec)

	// Assert
	if kwh != 0 {
		t.Errorf("expected zero energy for zero irradiance, got %f", kwh)
	}
}

func TestSimulate_FlagsNegativeIrradianceInvalid(t *testing.T) {
	// Arrange
	svc := NewService(referencePlant(), newTestLogger())
	date := time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)
	series := []domain.ClimateRecord{
		bengaluruDay(date, 5200.0),
		bengaluruDay(date.AddDate(0, 0, 1), -999.0),
		bengaluruDay(date.AddDate(0, 0, 2), 5100.0),
	}

	// Act
	days, err := svc.Simulate(context.Background(), bengaluruLat, series)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(days) != 3 {
		t.Fatalf("expected one output day per input day, got %d", len(days))
	}
	if !days[0].Valid || days[0].EnergyKWh <= 0 {
		t.Errorf("expected a valid positive first day, got %+v", days[0])
	}
	if days[1].Valid {
		t.Error("expected the negative-irradiance day to be flagged invalid")
	}
	if !days[2].Valid {
		t.Error("expected the third day to remain valid")
	}
}

func TestSimulate_FlagsGapFilledDaysInvalid(t *testing.T) {
	// Arrange
	svc := NewService(referencePlant(), newTestLogger())
	date := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	filled := bengaluruDay(date.AddDate(0, 0, 1), 5200.0)
	filled.Filled = true
	series := []domain.ClimateRecord{bengaluruDay(date, 5200.0), filled}

	// Act
	days, err := svc.Simulate(context.Background(), bengaluruLat, series)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !days[0].Valid {
		t.Error("expected the observed day to be valid")
	}
	if days[1].Valid {
		t.Error("expected the gap-filled day to be flagged invalid")
	}
}

func TestDaylightHours_EquatorNearTwelve(t *testing.T) {
	// Arrange / Act
	h := daylightHours(0.0, 80)

	// Assert
	if math.Abs(h-12.0) > 0.2 {
		t.Errorf("expected about 12 daylight hours at the equator near equinox, got %f", h)
	}
}

func TestDaylightHours_PolarExtremes(t *testing.T) {
	// Arrange / Act
	winter := daylightHours(80.0, 355)
	summer := daylightHours(80.0, 172)

	// Assert
	if winter != 0 {
		t.Errorf("expected polar night, got %f hours", winter)
	}
	if summer != 24 {
		t.Errorf("expected midnight sun, got %f hours", summer)
	}
}
