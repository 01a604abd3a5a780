package ingest

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/urjalabs/solatlas/internal/domain"
	"github.com/urjalabs/solatlas/internal/ports"
)

// Options control the cleaning pass.
type Options struct {
	QuantileLow      float64
	QuantileHigh     float64
	GapToleranceDays int
}

// Service loads raw per-location climate series, cleans them and persists the
// result. Cleaning order matters: physical clipping first, then robust
// quantile clipping per variable, then calendar reindexing with short-gap
// forward fill.
type Service struct {
	source ports.ClimateSource
	store  ports.ClimateStore
	opts   Options
	log    *zap.Logger
}

func NewService(source ports.ClimateSource, store ports.ClimateStore, opts Options, log *zap.Logger) *Service {
	if opts.QuantileLow <= 0 {
		opts.QuantileLow = 0.01
	}
	if opts.QuantileHigh <= 0 || opts.QuantileHigh >= 1 {
		opts.QuantileHigh = 0.99
	}
	if opts.GapToleranceDays <= 0 {
		opts.GapToleranceDays = 3
	}
	return &Service{source: source, store: store, opts: opts, log: log}
}

// Summary reports what one Run did per location.
type Summary struct {
	Locations   int
	Records     int
	FilledDays  int
	ClippedVals int
}

// Run loads every location from the source, cleans each series and saves it.
// A location whose raw series is unparsable or unsorted aborts the run; gaps
// longer than the tolerance are left explicit for downstream detection.
func (s *Service) Run(ctx context.Context) (*Summary, error) {
	raw, err := s.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading climate source: %w", err)
	}

	locations := make([]string, 0, len(raw))
	for loc := range raw {
		locations = append(locations, loc)
	}
	sort.Strings(locations)

	summary := &Summary{}
	for _, loc := range locations {
		cleaned, filled, clipped, err := s.Clean(raw[loc])
		if err != nil {
			return nil, fmt.Errorf("cleaning series for %s: %w", loc, err)
		}
		if err := s.store.SaveRecords(ctx, cleaned); err != nil {
			return nil, fmt.Errorf("saving records for %s: %w", loc, err)
		}
		summary.Locations++
		summary.Records += len(cleaned)
		summary.FilledDays += filled
		summary.ClippedVals += clipped

		s.log.Debug("Ingested location",
			zap.String("location_id", loc),
			zap.Int("records", len(cleaned)),
			zap.Int("filled_days", filled),
			zap.Int("clipped_values", clipped),
		)
	}

	s.log.Info("Climate ingest finished",
		zap.Int("locations", summary.Locations),
		zap.Int("records", summary.Records),
		zap.Int("filled_days", summary.FilledDays),
		zap.Int("clipped_values", summary.ClippedVals),
	)
	return summary, nil
}

// Clean applies the cleaning pass to one location's series and returns the
// cleaned records plus how many days were forward-filled and how many values
// were clipped.
func (s *Service) Clean(series []domain.ClimateRecord) ([]domain.ClimateRecord, int, int, error) {
	if len(series) == 0 {
		return nil, 0, 0, fmt.Errorf("empty series")
	}

	out := make([]domain.ClimateRecord, len(series))
	copy(out, series)
	for i := range out {
		out[i].Date = domain.Day(out[i].Date)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	for i := 1; i < len(out); i++ {
		if !out[i-1].Date.Before(out[i].Date) {
			return nil, 0, 0, fmt.Errorf("duplicate date %s for %s",
				out[i].Date.Format("2006-01-02"), out[i].LocationID)
		}
	}

	clipped := 0
	for i := range out {
		if out[i].GHIWhm2 < 0 {
			out[i].GHIWhm2 = 0
			clipped++
		}
	}
	clipped += s.quantileClip(out)

	filled := 0
	reindexed := make([]domain.ClimateRecord, 0, len(out))
	reindexed = append(reindexed, out[0])
	for i := 1; i < len(out); i++ {
		prev := reindexed[len(reindexed)-1]
		gap := int(out[i].Date.Sub(prev.Date).Hours()/24) - 1
		if gap > 0 && gap <= s.opts.GapToleranceDays {
			for d := 1; d <= gap; d++ {
				fill := prev
				fill.Date = prev.Date.AddDate(0, 0, d)
				fill.Filled = true
				reindexed = append(reindexed, fill)
				filled++
			}
		}
		reindexed = append(reindexed, out[i])
	}
	return reindexed, filled, clipped, nil
}

// quantileClip limits each variable to its own [qlow, qhigh] sample quantiles
// and reports how many values moved.
func (s *Service) quantileClip(series []domain.ClimateRecord) int {
	get := []func(*domain.ClimateRecord) *float64{
		func(r *domain.ClimateRecord) *float64 { return &r.GHIWhm2 },
		func(r *domain.ClimateRecord) *float64 { return &r.T2MC },
		func(r *domain.ClimateRecord) *float64 { return &r.WS10MS },
		func(r *domain.ClimateRecord) *float64 { return &r.RH2MPct },
	}

	clipped := 0
	values := make([]float64, len(series))
	for _, field := range get {
		for i := range series {
			values[i] = *field(&series[i])
		}
		sorted := append([]float64(nil), values...)
		sort.Float64s(sorted)
		lo := quantile(sorted, s.opts.QuantileLow)
		hi := quantile(sorted, s.opts.QuantileHigh)

		for i := range series {
			v := field(&series[i])
			if *v < lo {
				*v = lo
				clipped++
			} else if *v > hi {
				*v = hi
				clipped++
			}
		}
	}
	return clipped
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
