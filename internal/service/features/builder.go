package features

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/urjalabs/solatlas/internal/domain"
	"github.com/urjalabs/solatlas/internal/ports"
)

const (
	SeasonalCyclical    = "cyclical"
	SeasonalMonthBucket = "month-bucket"

	// Rolling windows tolerate a short warmup instead of demanding the full
	// window, mirroring the climatology the labels were screened with.
	minPeriodsShort = 3
	minPeriodsLong  = 10
)

// Builder turns an ordered daily climate series into model-ready feature
// rows. It is a pure transformation: all derived values for a date use only
// records strictly before that date, and the chronological split is
// deterministic for a given cutoff.
type Builder struct {
	cfg ports.FeatureConfig
	log *zap.Logger
}

func NewBuilder(cfg ports.FeatureConfig, log *zap.Logger) ports.FeatureService {
	if len(cfg.Lags) == 0 {
		cfg.Lags = []int{1, 7}
	}
	if len(cfg.RollingMeanDays) == 0 {
		cfg.RollingMeanDays = []int{7, 30}
	}
	if cfg.GapToleranceDays <= 0 {
		cfg.GapToleranceDays = 3
	}
	if cfg.MinTrainDays <= 0 {
		cfg.MinTrainDays = 60
	}
	if cfg.SeasonalEncoding == "" {
		cfg.SeasonalEncoding = SeasonalCyclical
	}
	return &Builder{cfg: cfg, log: log}
}

// Build produces the train and test partitions for one location. The series
// must be sorted ascending by date with no duplicates; calendar gaps up to
// the configured tolerance are forward-filled and flagged, longer gaps fail
// with DataGapError. Rows whose label is missing or derived from filled
// weather are excluded from both partitions.
func (b *Builder) Build(ctx context.Context, series []domain.ClimateRecord, labels []domain.EnergyDay) (train, test []domain.FeatureRow, err error) {
	filled, err := b.fillGaps(series)
	if err != nil {
		return nil, nil, err
	}

	labelIndex := make(map[time.Time]domain.EnergyDay, len(labels))
	for _, day := range labels {
		labelIndex[domain.Day(day.Date)] = day
	}

	rows, err := b.buildRows(filled, labelIndex, true)
	if err != nil {
		return nil, nil, err
	}

	cutoff, err := b.cutoff(filled)
	if err != nil {
		return nil, nil, err
	}

	for _, row := range rows {
		if row.Date.Before(cutoff) {
			train = append(train, row)
		} else {
			test = append(test, row)
		}
	}

	if len(train) < b.cfg.MinTrainDays {
		loc := ""
		if len(series) > 0 {
			loc = series[0].LocationID
		}
		return nil, nil, &domain.InsufficientDataError{LocationID: loc, Have: len(train), Need: b.cfg.MinTrainDays}
	}

	b.log.Debug("Built feature rows",
		zap.Int("train", len(train)),
		zap.Int("test", len(test)),
		zap.Time("cutoff", cutoff),
	)
	return train, test, nil
}

// HorizonRows builds unlabeled rows over the full series and returns the
// trailing days of them, ordered by date ascending. The trailing year of
// observed weather stands in for the prediction horizon.
func (b *Builder) HorizonRows(ctx context.Context, series []domain.ClimateRecord, days int) ([]domain.FeatureRow, error) {
	filled, err := b.fillGaps(series)
	if err != nil {
		return nil, err
	}

	rows, err := b.buildRows(filled, nil, false)
	if err != nil {
		return nil, err
	}
	if len(rows) < days {
		loc := ""
		if len(series) > 0 {
			loc = series[0].LocationID
		}
		return nil, &domain.InsufficientDataError{LocationID: loc, Have: len(rows), Need: days}
	}
	return rows[len(rows)-days:], nil
}

// Schema returns the ordered feature names produced by this configuration.
func (b *Builder) Schema() []string {
	names := []string{"ghi_whm2", "t2m_c", "ws10_ms", "rh2m_pct"}
	for _, lag := range b.cfg.Lags {
		names = append(names, fmt.Sprintf("ghi_lag%d", lag))
	}
	for _, w := range b.cfg.RollingMeanDays {
		names = append(names, fmt.Sprintf("ghi_roll%d_mean", w))
	}
	for _, w := range b.cfg.RollingStdDays {
		names = append(names, fmt.Sprintf("ghi_roll%d_std", w))
	}
	names = append(names, "ghi_clim_month", "ghi_anom")
	switch b.cfg.SeasonalEncoding {
	case SeasonalMonthBucket:
		for m := 1; m <= 12; m++ {
			names = append(names, fmt.Sprintf("month_%02d", m))
		}
	default:
		names = append(names, "doy_sin", "doy_cos")
	}
	names = append(names, "dow", "is_weekend")
	return names
}

// fillGaps reindexes the series to a contiguous daily calendar, forward
// filling runs of missing days up to the tolerance and flagging them. A
// longer run fails with DataGapError. Duplicates and unsorted input are
// rejected.
func (b *Builder) fillGaps(series []domain.ClimateRecord) ([]domain.ClimateRecord, error) {
	if len(series) == 0 {
		return nil, &domain.InsufficientDataError{Have: 0, Need: b.cfg.MinTrainDays}
	}

	out := make([]domain.ClimateRecord, 0, len(series))
	prev := series[0]
	prev.Date = domain.Day(prev.Date)
	out = append(out, prev)

	for _, rec := range series[1:] {
		rec.Date = domain.Day(rec.Date)
		gap := int(rec.Date.Sub(prev.Date).Hours() / 24)
		if gap <= 0 {
			return nil, fmt.Errorf("climate series for %s not sorted ascending by unique date at %s",
				rec.LocationID, rec.Date.Format("2006-01-02"))
		}
		if gap-1 > b.cfg.GapToleranceDays {
			return nil, &domain.DataGapError{
				LocationID: rec.LocationID,
				From:       prev.Date.AddDate(0, 0, 1),
				To:         rec.Date.AddDate(0, 0, -1),
				Days:       gap - 1,
			}
		}
		for i := 1; i < gap; i++ {
			fill := prev
			fill.Date = prev.Date.AddDate(0, 0, i)
			fill.Filled = true
			out = append(out, fill)
		}
		out = append(out, rec)
		prev = rec
	}
	return out, nil
}

func (b *Builder) cutoff(series []domain.ClimateRecord) (time.Time, error) {
	if b.cfg.SplitCutoff != "" {
		t, err := time.Parse("2006-01-02", b.cfg.SplitCutoff)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid split cutoff %q: %w", b.cfg.SplitCutoff, err)
		}
		return domain.Day(t), nil
	}
	// Default: last 20% of the calendar span is held out.
	first, last := series[0].Date, series[len(series)-1].Date
	span := int(last.Sub(first).Hours() / 24)
	return first.AddDate(0, 0, span*4/5), nil
}

// requiredHistory is how many prior days every emitted row needs.
func (b *Builder) requiredHistory() int {
	need := minPeriodsLong
	for _, lag := range b.cfg.Lags {
		if lag > need {
			need = lag
		}
	}
	return need
}

func (b *Builder) buildRows(series []domain.ClimateRecord, labels map[time.Time]domain.EnergyDay, labeled bool) ([]domain.FeatureRow, error) {
	names := b.Schema()
	start := b.requiredHistory()

	ghi := make([]float64, len(series))
	for i, rec := range series {
		ghi[i] = rec.GHIWhm2
	}

	clim := monthlyClimatology(series, labels, labeled)

	rows := make([]domain.FeatureRow, 0, len(series))
	for i := start; i < len(series); i++ {
		rec := series[i]
		if labeled {
			day, ok := labels[rec.Date]
			if !ok || !day.Valid || rec.Filled {
				continue
			}
		}

		values := make([]float64, 0, len(names))
		values = append(values, rec.GHIWhm2, rec.T2MC, rec.WS10MS, rec.RH2MPct)

		for _, lag := range b.cfg.Lags {
			values = append(values, ghi[i-lag])
		}
		for _, w := range b.cfg.RollingMeanDays {
			mean, _ := rollingStats(ghi, i, w, minPeriodsFor(w))
			values = append(values, mean)
		}
		for _, w := range b.cfg.RollingStdDays {
			_, std := rollingStats(ghi, i, w, minPeriodsFor(w))
			values = append(values, std)
		}

		month := clim[rec.Date.Month()]
		values = append(values, month, rec.GHIWhm2-month)

		values = append(values, seasonalValues(b.cfg.SeasonalEncoding, rec.Date)...)

		dow := float64(rec.Date.Weekday())
		weekend := 0.0
		if rec.Date.Weekday() == time.Saturday || rec.Date.Weekday() == time.Sunday {
			weekend = 1.0
		}
		values = append(values, dow, weekend)

		row := domain.FeatureRow{
			LocationID: rec.LocationID,
			Date:       rec.Date,
			Names:      names,
			Values:     values,
		}
		if labeled {
			day := labels[rec.Date]
			row.Label = day.EnergyKWh
			row.HasLabel = true
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func minPeriodsFor(window int) int {
	if window >= 30 {
		return minPeriodsLong
	}
	return minPeriodsShort
}

// rollingStats computes mean and population std of ghi over the window of
// days strictly before index i. With fewer than minPeriods prior days the
// available prefix is used, never the current or later days.
func rollingStats(ghi []float64, i, window, minPeriods int) (mean, std float64) {
	lo := i - window
	if lo < 0 {
		lo = 0
	}
	n := i - lo
	if n < minPeriods {
		lo = i - minPeriods
		if lo < 0 {
			lo = 0
		}
		n = i - lo
	}
	if n == 0 {
		return 0, 0
	}

	var sum float64
	for _, v := range ghi[lo:i] {
		sum += v
	}
	mean = sum / float64(n)

	var sq float64
	for _, v := range ghi[lo:i] {
		d := v - mean
		sq += d * d
	}
	std = math.Sqrt(sq / float64(n))
	return mean, std
}

// monthlyClimatology averages ghi per calendar month. For labeled builds only
// dates with a valid label contribute, so the test period never leaks into a
// statistic applied to training rows.
func monthlyClimatology(series []domain.ClimateRecord, labels map[time.Time]domain.EnergyDay, labeled bool) map[time.Month]float64 {
	sums := make(map[time.Month]float64)
	counts := make(map[time.Month]int)
	for _, rec := range series {
		if labeled {
			day, ok := labels[rec.Date]
			if !ok || !day.Valid {
				continue
			}
		}
		sums[rec.Date.Month()] += rec.GHIWhm2
		counts[rec.Date.Month()]++
	}

	clim := make(map[time.Month]float64, 12)
	var all float64
	var n int
	for m, sum := range sums {
		clim[m] = sum / float64(counts[m])
		all += sum
		n += counts[m]
	}
	overall := 0.0
	if n > 0 {
		overall = all / float64(n)
	}
	for m := time.January; m <= time.December; m++ {
		if _, ok := clim[m]; !ok {
			clim[m] = overall
		}
	}
	return clim
}

func seasonalValues(encoding string, date time.Time) []float64 {
	switch encoding {
	case SeasonalMonthBucket:
		values := make([]float64, 12)
		values[int(date.Month())-1] = 1.0
		return values
	default:
		doy := float64(date.YearDay())
		angle := 2 * math.Pi * doy / 365.25
		return []float64{math.Sin(angle), math.Cos(angle)}
	}
}

// SortSeries orders records ascending by date, a convenience for callers
// assembling series from unordered sources.
func SortSeries(series []domain.ClimateRecord) {
	sort.Slice(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })
}
