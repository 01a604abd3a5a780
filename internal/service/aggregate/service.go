package aggregate

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/urjalabs/solatlas/internal/domain"
	"github.com/urjalabs/solatlas/internal/observability/telemetry"
	"github.com/urjalabs/solatlas/internal/ports"
)

// Service predicts each zone's daily output over the horizon and sums it into
// an annual total. Zones fan out across a bounded worker pool; one zone
// failing never takes the batch down with it.
type Service struct {
	forecast ports.ForecastService
	resolver ports.LocationResolver
	workers  int
	log      *zap.Logger
}

func NewService(forecast ports.ForecastService, resolver ports.LocationResolver, workers int, log *zap.Logger) ports.AggregatorService {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Service{forecast: forecast, resolver: resolver, workers: workers, log: log}
}

func (s *Service) Aggregate(ctx context.Context, zones []domain.Zone, model *domain.FittedModel, horizon map[string][]domain.FeatureRow) (map[string]float64, *domain.RunReport, error) {
	if model == nil {
		return nil, nil, fmt.Errorf("aggregate requires a fitted model")
	}

	report := &domain.RunReport{
		RunID:     uuid.New().String(),
		ModelID:   model.ID,
		StartedAt: time.Now().UTC(),
	}

	type outcome struct {
		zoneID string
		annual float64
		err    error
	}

	jobs := make(chan domain.Zone)
	results := make(chan outcome)

	var wg sync.WaitGroup
	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for zone := range jobs {
				annual, err := s.aggregateZone(zone, model, horizon)
				results <- outcome{zoneID: zone.ID, annual: annual, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, zone := range zones {
			select {
			case jobs <- zone:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	annual := make(map[string]float64, len(zones))
	for out := range results {
		if out.err != nil {
			report.Failed = append(report.Failed, domain.ZoneFailure{ZoneID: out.zoneID, Reason: out.err.Error()})
			telemetry.ZonesAggregated.WithLabelValues("failed").Inc()
			s.log.Warn("Zone aggregation failed",
				zap.String("run_id", report.RunID),
				zap.String("zone_id", out.zoneID),
				zap.Error(out.err),
			)
			continue
		}
		annual[out.zoneID] = out.annual
		report.Succeeded = append(report.Succeeded, out.zoneID)
		telemetry.ZonesAggregated.WithLabelValues("succeeded").Inc()
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	sort.Strings(report.Succeeded)
	sort.Slice(report.Failed, func(i, j int) bool { return report.Failed[i].ZoneID < report.Failed[j].ZoneID })
	report.FinishedAt = time.Now().UTC()

	s.log.Info("Aggregated zones",
		zap.String("run_id", report.RunID),
		zap.String("model_id", model.ID),
		zap.Int("succeeded", len(report.Succeeded)),
		zap.Int("failed", len(report.Failed)),
	)

	if len(annual) == 0 {
		return nil, report, fmt.Errorf("no zone could be aggregated (%d attempted)", len(zones))
	}
	return annual, report, nil
}

// aggregateZone resolves the zone's feature sequence, predicts every day of
// it and sums. The sum of daily predictions is the annual figure; it is never
// rescaled from an average.
func (s *Service) aggregateZone(zone domain.Zone, model *domain.FittedModel, horizon map[string][]domain.FeatureRow) (float64, error) {
	rows, err := s.resolver.Resolve(zone, horizon)
	if err != nil {
		return 0, err
	}
	preds, err := s.forecast.Predict(model, rows)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, p := range preds {
		total += p
	}
	return total, nil
}
