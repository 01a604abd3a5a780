package features

import (
	"context"
	"math"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/urjalabs/solatlas/internal/domain"
	"github.com/urjalabs/solatlas/internal/ports"
)

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func testConfig() ports.FeatureConfig {
	return ports.FeatureConfig{
		Lags:             []int{1, 7},
		RollingMeanDays:  []int{7, 30},
		RollingStdDays:   []int{7},
		SeasonalEncoding: SeasonalCyclical,
		GapToleranceDays: 3,
		MinTrainDays:     60,
	}
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// makeSeries builds n contiguous days starting at start with a mild seasonal
// ghi cycle so rolling statistics are non-degenerate.
func makeSeries(locationID string, start time.Time, n int) ([]domain.ClimateRecord, []domain.EnergyDay) {
	series := make([]domain.ClimateRecord, 0, n)
	labels := make([]domain.EnergyDay, 0, n)
	for i := 0; i < n; i++ {
		date := start.AddDate(0, 0, i)
		ghi := 5000.0 + 800.0*math.Sin(2*math.Pi*float64(i)/365.25)
		series = append(series, domain.ClimateRecord{
			LocationID: locationID,
			Date:       date,
			GHIWhm2:    ghi,
			T2MC:       24.0,
			WS10MS:     2.5,
			RH2MPct:    60.0,
		})
		labels = append(labels, domain.EnergyDay{
			LocationID: locationID,
			Date:       date,
			EnergyKWh:  ghi * 0.01,
			Valid:      true,
		})
	}
	return series, labels
}

func TestBuild_SplitIsChronological(t *testing.T) {
	// Arrange
	builder := NewBuilder(testConfig(), newTestLogger())
	series, labels := makeSeries("BLR-0001", day("2023-01-01"), 400)

	// Act
	train, test, err := builder.Build(context.Background(), series, labels)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(train) == 0 || len(test) == 0 {
		t.Fatalf("expected non-empty partitions, got train=%d test=%d", len(train), len(test))
	}
	lastTrain := train[len(train)-1].Date
	firstTest := test[0].Date
	if !lastTrain.Before(firstTest) {
		t.Errorf("expected every train date before every test date, got train end %s, test start %s",
			lastTrain.Format("2006-01-02"), firstTest.Format("2006-01-02"))
	}
	for i := 1; i < len(train); i++ {
		if !train[i-1].Date.Before(train[i].Date) {
			t.Fatalf("train rows not strictly ordered at index %d", i)
		}
	}
}

func TestBuild_LagUsesOnlyPastDays(t *testing.T) {
	// Arrange
	builder := NewBuilder(testConfig(), newTestLogger())
	series, labels := makeSeries("BLR-0001", day("2023-01-01"), 400)
	byDate := make(map[time.Time]float64, len(series))
	for _, rec := range series {
		byDate[domain.Day(rec.Date)] = rec.GHIWhm2
	}

	// Act
	train, _, err := builder.Build(context.Background(), series, labels)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	idx := indexOf(t, train[0].Names, "ghi_lag7")
	for _, row := range train {
		want, ok := byDate[row.Date.AddDate(0, 0, -7)]
		if !ok {
			t.Fatalf("missing ghi for %s minus 7 days", row.Date.Format("2006-01-02"))
		}
		if math.Abs(row.Values[idx]-want) > 1e-9 {
			t.Errorf("ghi_lag7 on %s: expected %f, got %f", row.Date.Format("2006-01-02"), want, row.Values[idx])
		}
	}
}

func TestBuild_RollingMeanExcludesCurrentDay(t *testing.T) {
	// Arrange
	builder := NewBuilder(testConfig(), newTestLogger())
	series, labels := makeSeries("BLR-0001", day("2023-01-01"), 400)
	// A spike on one day must not appear in that day's own rolling mean.
	spikeAt := 200
	series[spikeAt].GHIWhm2 = 50000.0
	labels[spikeAt].EnergyKWh = 500.0

	// Act
	train, test, err := builder.Build(context.Background(), series, labels)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	all := append(append([]domain.FeatureRow{}, train...), test...)
	idx := indexOf(t, all[0].Names, "ghi_roll7_mean")
	spikeDate := domain.Day(series[spikeAt].Date)
	for _, row := range all {
		if !row.Date.Equal(spikeDate) {
			continue
		}
		if row.Values[idx] > 10000.0 {
			t.Errorf("rolling mean on spike day includes the spike itself: %f", row.Values[idx])
		}
		return
	}
	t.Fatalf("spike day %s not present in output rows", spikeDate.Format("2006-01-02"))
}

func TestBuild_ShortGapForwardFilled(t *testing.T) {
	// Arrange
	builder := NewBuilder(testConfig(), newTestLogger())
	series, labels := makeSeries("BLR-0001", day("2023-01-01"), 400)
	// Remove two consecutive days, inside tolerance.
	cut := append(append([]domain.ClimateRecord{}, series[:150]...), series[152:]...)

	// Act
	_, _, err := builder.Build(context.Background(), cut, labels)

	// Assert
	if err != nil {
		t.Fatalf("expected gap within tolerance to be filled, got %v", err)
	}
}

func TestBuild_LongGapFailsWithDataGapError(t *testing.T) {
	// Arrange
	builder := NewBuilder(testConfig(), newTestLogger())
	series, labels := makeSeries("BLR-0001", day("2023-01-01"), 400)
	cut := append(append([]domain.ClimateRecord{}, series[:150]...), series[160:]...)

	// Act
	_, _, err := builder.Build(context.Background(), cut, labels)

	// Assert
	if err == nil {
		t.Fatal("expected DataGapError, got nil")
	}
	gapErr, ok := err.(*domain.DataGapError)
	if !ok {
		t.Fatalf("expected *domain.DataGapError, got %T", err)
	}
	if gapErr.Days != 10 {
		t.Errorf("expected 10 missing days, got %d", gapErr.Days)
	}
	if gapErr.LocationID != "BLR-0001" {
		t.Errorf("expected location BLR-0001, got %s", gapErr.LocationID)
	}
}

func TestBuild_TooShortSeriesFailsWithInsufficientDataError(t *testing.T) {
	// Arrange
	builder := NewBuilder(testConfig(), newTestLogger())
	series, labels := makeSeries("BLR-0001", day("2023-01-01"), 40)

	// Act
	_, _, err := builder.Build(context.Background(), series, labels)

	// Assert
	if err == nil {
		t.Fatal("expected InsufficientDataError, got nil")
	}
	if _, ok := err.(*domain.InsufficientDataError); !ok {
		t.Fatalf("expected *domain.InsufficientDataError, got %T", err)
	}
}

func TestBuild_FilledDaysExcludedFromLabels(t *testing.T) {
	// Arrange
	builder := NewBuilder(testConfig(), newTestLogger())
	series, labels := makeSeries("BLR-0001", day("2023-01-01"), 400)
	cut := append(append([]domain.ClimateRecord{}, series[:150]...), series[151:]...)
	droppedDate := domain.Day(series[150].Date)

	// Act
	train, test, err := builder.Build(context.Background(), cut, labels)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	for _, row := range append(append([]domain.FeatureRow{}, train...), test...) {
		if row.Date.Equal(droppedDate) {
			t.Errorf("forward-filled day %s must not appear as a labeled row", droppedDate.Format("2006-01-02"))
		}
	}
}

func TestBuild_SchemaIsStableAcrossRows(t *testing.T) {
	// Arrange
	builder := NewBuilder(testConfig(), newTestLogger())
	series, labels := makeSeries("BLR-0001", day("2023-01-01"), 400)

	// Act
	train, test, err := builder.Build(context.Background(), series, labels)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	want := train[0].Names
	for _, row := range append(append([]domain.FeatureRow{}, train...), test...) {
		if !domain.SameSchema(row.Names, want) {
			t.Fatalf("schema differs across rows: %v vs %v", row.Names, want)
		}
		if len(row.Values) != len(want) {
			t.Fatalf("values length %d does not match schema length %d", len(row.Values), len(want))
		}
	}
}

func TestHorizonRows_ReturnsTrailingDays(t *testing.T) {
	// Arrange
	builder := NewBuilder(testConfig(), newTestLogger())
	series, _ := makeSeries("BLR-0001", day("2022-01-01"), 500)

	// Act
	rows, err := builder.HorizonRows(context.Background(), series, 365)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(rows) != 365 {
		t.Fatalf("expected 365 rows, got %d", len(rows))
	}
	last := domain.Day(series[len(series)-1].Date)
	if !rows[len(rows)-1].Date.Equal(last) {
		t.Errorf("expected horizon to end at %s, got %s",
			last.Format("2006-01-02"), rows[len(rows)-1].Date.Format("2006-01-02"))
	}
	for _, row := range rows {
		if row.HasLabel {
			t.Fatal("horizon rows must be unlabeled")
		}
	}
}

func TestHorizonRows_ShortSeriesFails(t *testing.T) {
	// Arrange
	builder := NewBuilder(testConfig(), newTestLogger())
	series, _ := makeSeries("BLR-0001", day("2023-01-01"), 200)

	// Act
	_, err := builder.HorizonRows(context.Background(), series, 365)

	// Assert
	if err == nil {
		t.Fatal("expected InsufficientDataError, got nil")
	}
	if _, ok := err.(*domain.InsufficientDataError); !ok {
		t.Fatalf("expected *domain.InsufficientDataError, got %T", err)
	}
}

func indexOf(t *testing.T, names []string, name string) int {
	t.Helper()
	for i, n := range names {
		if n == name {
			return i
		}
	}
	t.Fatalf("feature %q not in schema %v", name, names)
	return -1
}
