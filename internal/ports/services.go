package ports

import (
	"context"

	"github.com/urjalabs/solatlas/internal/domain"
)

// FeatureConfig is the feature-engineering surface recognized by the builder.
type FeatureConfig struct {
	Lags             []int
	RollingMeanDays  []int
	RollingStdDays   []int
	SeasonalEncoding string // "cyclical" or "month-bucket"
	GapToleranceDays int
	MinTrainDays     int
	SplitCutoff      string // YYYY-MM-DD; rows before it train, from it on test
}

// FeatureService turns an ordered climate series plus labels into model-ready
// train and test feature rows.
type FeatureService interface {
	Build(ctx context.Context, series []domain.ClimateRecord, labels []domain.EnergyDay) (train, test []domain.FeatureRow, err error)
	// HorizonRows builds unlabeled rows for prediction and returns the
	// trailing days of them in ascending date order.
	HorizonRows(ctx context.Context, series []domain.ClimateRecord, days int) ([]domain.FeatureRow, error)
}

// ForecastService owns model fitting, prediction and evaluation.
type ForecastService interface {
	Fit(ctx context.Context, train []domain.FeatureRow) (*domain.FittedModel, error)
	Train(ctx context.Context, train, test []domain.FeatureRow) (*domain.FittedModel, error)
	Predict(model *domain.FittedModel, rows []domain.FeatureRow) ([]float64, error)
	Evaluate(model *domain.FittedModel, rows []domain.FeatureRow) (domain.Metrics, error)
}

// LocationResolver maps a zone to the feature sequence its predictions are
// driven by. Implementations are selected by configuration.
type LocationResolver interface {
	Resolve(zone domain.Zone, horizon map[string][]domain.FeatureRow) ([]domain.FeatureRow, error)
}

// AggregatorService sums per-day predictions into annual totals per zone,
// isolating per-zone failures.
type AggregatorService interface {
	Aggregate(ctx context.Context, zones []domain.Zone, model *domain.FittedModel, horizon map[string][]domain.FeatureRow) (map[string]float64, *domain.RunReport, error)
}

// ScorerService normalizes annual totals into suitability scores and persists
// the merged output artifact.
type ScorerService interface {
	Score(ctx context.Context, annual map[string]float64, zones []domain.Zone) ([]domain.ZoneResult, error)
	Persist(ctx context.Context, zones []domain.Zone, results []domain.ZoneResult, report *domain.RunReport) error
}

// HomeService answers on-demand point queries against the scored artifact.
type HomeService interface {
	Estimate(ctx context.Context, lat, lon, installationKW float64) (*domain.HomeEstimate, error)
	Reload(ctx context.Context) error
	Version() int64
}
