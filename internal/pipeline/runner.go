package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/urjalabs/solatlas/internal/domain"
	"github.com/urjalabs/solatlas/internal/observability/telemetry"
	"github.com/urjalabs/solatlas/internal/ports"
	"github.com/urjalabs/solatlas/internal/service/ingest"
	"github.com/urjalabs/solatlas/internal/service/pvsim"
	"github.com/urjalabs/solatlas/internal/service/qaqc"
)

// ArtifactEvent is published on ports.SubjectArtifactUpdated after a
// successful run so serving processes can reload without a restart.
type ArtifactEvent struct {
	RunID        string    `json:"run_id"`
	ArtifactPath string    `json:"artifact_path"`
	FinishedAt   time.Time `json:"finished_at"`
}

// Options tune a full pipeline run.
type Options struct {
	HorizonDays     int
	AllowUnscreened bool
	ArtifactPath    string
	DefaultLat      float64
}

// Runner drives the batch pipeline end to end: ingest, ground truth, QA
// screening, feature building, model training, aggregation and scoring.
type Runner struct {
	ingest     *ingest.Service
	pvsim      *pvsim.Service
	qaqc       *qaqc.Service
	features   ports.FeatureService
	forecast   ports.ForecastService
	aggregator ports.AggregatorService
	scorer     ports.ScorerService
	climate    ports.ClimateStore
	energy     ports.EnergyStore
	zones      ports.ZoneSource
	models     ports.ModelStore
	registry   ports.ModelRegistry
	reports    ports.ReportStore
	queue      ports.MessageQueue
	opts       Options
	log        *zap.Logger
}

func NewRunner(
	ingestSvc *ingest.Service,
	pvsimSvc *pvsim.Service,
	qaqcSvc *qaqc.Service,
	features ports.FeatureService,
	forecast ports.ForecastService,
	aggregator ports.AggregatorService,
	scorer ports.ScorerService,
	climate ports.ClimateStore,
	energy ports.EnergyStore,
	zones ports.ZoneSource,
	models ports.ModelStore,
	registry ports.ModelRegistry,
	reports ports.ReportStore,
	queue ports.MessageQueue,
	opts Options,
	log *zap.Logger,
) *Runner {
	if opts.HorizonDays <= 0 {
		opts.HorizonDays = 365
	}
	return &Runner{
		ingest:     ingestSvc,
		pvsim:      pvsimSvc,
		qaqc:       qaqcSvc,
		features:   features,
		forecast:   forecast,
		aggregator: aggregator,
		scorer:     scorer,
		climate:    climate,
		energy:     energy,
		zones:      zones,
		models:     models,
		registry:   registry,
		reports:    reports,
		queue:      queue,
		opts:       opts,
		log:        log,
	}
}

// Run executes every stage in order. Per-zone aggregation failures are
// recorded in the report; any stage error aborts the run before the artifact
// is touched.
func (r *Runner) Run(ctx context.Context) (*domain.RunReport, error) {
	report, err := r.run(ctx)
	if err != nil {
		telemetry.PipelineRunsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}
	telemetry.PipelineRunsTotal.WithLabelValues("succeeded").Inc()
	return report, nil
}

func (r *Runner) run(ctx context.Context) (*domain.RunReport, error) {
	startedAt := time.Now().UTC()
	runID := uuid.New().String()
	log := r.log.With(zap.String("run_id", runID))
	log.Info("Starting pipeline run")

	var timings []domain.StageTiming
	stage := func(name string, fn func() error) error {
		begin := time.Now()
		err := fn()
		elapsed := time.Since(begin)
		telemetry.StageDuration.WithLabelValues(name).Observe(elapsed.Seconds())
		timings = append(timings, domain.StageTiming{Stage: name, Duration: elapsed})
		if err != nil {
			log.Error("Stage failed",
				zap.String("stage", name),
				zap.Duration("duration", elapsed),
				zap.Error(err))
			return fmt.Errorf("%s stage: %w", name, err)
		}
		log.Info("Stage completed",
			zap.String("stage", name),
			zap.Duration("duration", elapsed))
		return nil
	}

	zones, err := r.zones.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load zones: %w", err)
	}
	latitudes := make(map[string]float64, len(zones))
	for _, zone := range zones {
		latitudes[zone.RepresentativeLocationID] = zone.CentroidLat
	}

	if err := stage("ingest", func() error {
		_, err := r.ingest.Run(ctx)
		return err
	}); err != nil {
		return nil, err
	}

	records := make(map[string][]domain.ClimateRecord)
	labels := make(map[string][]domain.EnergyDay)
	if err := stage("pvsim", func() error {
		locations, err := r.climate.Locations(ctx)
		if err != nil {
			return err
		}
		for _, locationID := range locations {
			series, err := r.climate.RecordsByLocation(ctx, locationID)
			if err != nil {
				return err
			}
			days, err := r.pvsim.Simulate(ctx, r.latitudeOf(locationID, latitudes), series)
			if err != nil {
				return err
			}
			if err := r.energy.SaveDays(ctx, days); err != nil {
				return err
			}
			records[locationID] = series
			labels[locationID] = days
		}
		return nil
	}); err != nil {
		return nil, err
	}

	var eligible []string
	if err := stage("qaqc", func() error {
		qaReport, err := r.qaqc.Screen(ctx, labels)
		if err != nil {
			return err
		}
		if err := r.reports.SaveQA(ctx, qaReport); err != nil {
			return err
		}
		if r.opts.AllowUnscreened {
			for locationID := range labels {
				eligible = append(eligible, locationID)
			}
			sort.Strings(eligible)
			log.Warn("QA screening bypassed, every location is eligible",
				zap.Int("locations", len(eligible)))
			return nil
		}
		eligible = qaReport.Passing()
		if len(eligible) == 0 {
			return fmt.Errorf("no location passed QA screening")
		}
		return nil
	}); err != nil {
		return nil, err
	}

	var train, test []domain.FeatureRow
	horizon := make(map[string][]domain.FeatureRow)
	if err := stage("features", func() error {
		for _, locationID := range eligible {
			locTrain, locTest, err := r.features.Build(ctx, records[locationID], labels[locationID])
			if err != nil {
				log.Warn("Dropping location from training",
					zap.String("location_id", locationID),
					zap.Error(err))
				continue
			}
			rows, err := r.features.HorizonRows(ctx, records[locationID], r.opts.HorizonDays)
			if err != nil {
				log.Warn("Dropping location from aggregation",
					zap.String("location_id", locationID),
					zap.Error(err))
				continue
			}
			train = append(train, locTrain...)
			test = append(test, locTest...)
			horizon[locationID] = rows
		}
		if len(train) == 0 {
			return fmt.Errorf("no training rows from %d eligible locations", len(eligible))
		}
		return nil
	}); err != nil {
		return nil, err
	}

	var model *domain.FittedModel
	if err := stage("fit", func() error {
		fitted, err := r.forecast.Train(ctx, train, test)
		if err != nil {
			return err
		}
		path, err := r.models.Save(ctx, fitted)
		if err != nil {
			return err
		}
		if r.registry != nil {
			record := &domain.ModelRecord{
				ID:        fitted.ID,
				Variant:   fitted.Variant,
				RMSE:      fitted.Metrics.RMSE,
				MAE:       fitted.Metrics.MAE,
				R2:        fitted.Metrics.R2,
				TrainRows: fitted.TrainRows,
				TestRows:  len(test),
				Path:      path,
				TrainedAt: time.Now().UTC(),
			}
			if err := r.registry.Save(ctx, record); err != nil {
				return err
			}
		}
		model = fitted
		return nil
	}); err != nil {
		return nil, err
	}

	var annual map[string]float64
	var report *domain.RunReport
	if err := stage("aggregate", func() error {
		var err error
		annual, report, err = r.aggregator.Aggregate(ctx, zones, model, horizon)
		if err != nil {
			return err
		}
		report.RunID = runID
		return r.reports.SaveAnnual(ctx, runID, annual)
	}); err != nil {
		return nil, err
	}

	var results []domain.ZoneResult
	if err := stage("score", func() error {
		var err error
		results, err = r.scorer.Score(ctx, annual, zones)
		return err
	}); err != nil {
		return nil, err
	}

	report.StartedAt = startedAt
	report.FinishedAt = time.Now().UTC()
	report.Stages = timings
	if err := stage("persist", func() error {
		return r.scorer.Persist(ctx, zones, results, report)
	}); err != nil {
		return nil, err
	}

	r.publishArtifactEvent(report)

	log.Info("Pipeline run finished",
		zap.Int("zones_succeeded", len(report.Succeeded)),
		zap.Int("zones_failed", len(report.Failed)),
		zap.Duration("duration", time.Since(startedAt)))
	return report, nil
}

// publishArtifactEvent tells serving processes to reload. Publish failures
// only cost the live refresh, so they are not fatal.
func (r *Runner) publishArtifactEvent(report *domain.RunReport) {
	if r.queue == nil {
		return
	}
	event := ArtifactEvent{
		RunID:        report.RunID,
		ArtifactPath: r.opts.ArtifactPath,
		FinishedAt:   report.FinishedAt,
	}
	data, err := json.Marshal(event)
	if err != nil {
		r.log.Warn("Failed to marshal artifact event", zap.Error(err))
		return
	}
	if err := r.queue.Publish(ports.SubjectArtifactUpdated, data); err != nil {
		r.log.Warn("Failed to publish artifact event", zap.Error(err))
		return
	}
	r.log.Info("Published artifact event", zap.String("subject", ports.SubjectArtifactUpdated))
}

func (r *Runner) latitudeOf(locationID string, latitudes map[string]float64) float64 {
	if lat, ok := latitudes[locationID]; ok {
		return lat
	}
	return r.opts.DefaultLat
}
