package mocks

import (
	"context"

	"github.com/urjalabs/solatlas/internal/domain"
)

// MockFeatureService is a mock implementation of FeatureService
type MockFeatureService struct {
	BuildFunc       func(ctx context.Context, series []domain.ClimateRecord, labels []domain.EnergyDay) (train, test []domain.FeatureRow, err error)
	HorizonRowsFunc func(ctx context.Context, series []domain.ClimateRecord, days int) ([]domain.FeatureRow, error)
}

func (m *MockFeatureService) Build(ctx context.Context, series []domain.ClimateRecord, labels []domain.EnergyDay) ([]domain.FeatureRow, []domain.FeatureRow, error) {
	if m.BuildFunc != nil {
		return m.BuildFunc(ctx, series, labels)
	}
	return nil, nil, nil
}

func (m *MockFeatureService) HorizonRows(ctx context.Context, series []domain.ClimateRecord, days int) ([]domain.FeatureRow, error) {
	if m.HorizonRowsFunc != nil {
		return m.HorizonRowsFunc(ctx, series, days)
	}
	return nil, nil
}

// MockForecastService is a mock implementation of ForecastService
type MockForecastService struct {
	FitFunc      func(ctx context.Context, train []domain.FeatureRow) (*domain.FittedModel, error)
	TrainFunc    func(ctx context.Context, train, test []domain.FeatureRow) (*domain.FittedModel, error)
	PredictFunc  func(model *domain.FittedModel, rows []domain.FeatureRow) ([]float64, error)
	EvaluateFunc func(model *domain.FittedModel, rows []domain.FeatureRow) (domain.Metrics, error)
}

func (m *MockForecastService) Fit(ctx context.Context, train []domain.FeatureRow) (*domain.FittedModel, error) {
	if m.FitFunc != nil {
		return m.FitFunc(ctx, train)
	}
	return nil, nil
}

func (m *MockForecastService) Train(ctx context.Context, train, test []domain.FeatureRow) (*domain.FittedModel, error) {
	if m.TrainFunc != nil {
		return m.TrainFunc(ctx, train, test)
	}
	return nil, nil
}

func (m *MockForecastService) Predict(model *domain.FittedModel, rows []domain.FeatureRow) ([]float64, error) {
	if m.PredictFunc != nil {
		return m.PredictFunc(model, rows)
	}
	return make([]float64, len(rows)), nil
}

func (m *MockForecastService) Evaluate(model *domain.FittedModel, rows []domain.FeatureRow) (domain.Metrics, error) {
	if m.EvaluateFunc != nil {
		return m.EvaluateFunc(model, rows)
	}
	return domain.Metrics{}, nil
}

// MockLocationResolver is a mock implementation of LocationResolver
type MockLocationResolver struct {
	ResolveFunc func(zone domain.Zone, horizon map[string][]domain.FeatureRow) ([]domain.FeatureRow, error)
}

func (m *MockLocationResolver) Resolve(zone domain.Zone, horizon map[string][]domain.FeatureRow) ([]domain.FeatureRow, error) {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(zone, horizon)
	}
	return nil, nil
}

// MockAggregatorService is a mock implementation of AggregatorService
type MockAggregatorService struct {
	AggregateFunc func(ctx context.Context, zones []domain.Zone, model *domain.FittedModel, horizon map[string][]domain.FeatureRow) (map[string]float64, *domain.RunReport, error)
}

func (m *MockAggregatorService) Aggregate(ctx context.Context, zones []domain.Zone, model *domain.FittedModel, horizon map[string][]domain.FeatureRow) (map[string]float64, *domain.RunReport, error) {
	if m.AggregateFunc != nil {
		return m.AggregateFunc(ctx, zones, model, horizon)
	}
	return nil, nil, nil
}

// MockScorerService is a mock implementation of ScorerService
type MockScorerService struct {
	ScoreFunc   func(ctx context.Context, annual map[string]float64, zones []domain.Zone) ([]domain.ZoneResult, error)
	PersistFunc func(ctx context.Context, zones []domain.Zone, results []domain.ZoneResult, report *domain.RunReport) error
}

func (m *MockScorerService) Score(ctx context.Context, annual map[string]float64, zones []domain.Zone) ([]domain.ZoneResult, error) {
	if m.ScoreFunc != nil {
		return m.ScoreFunc(ctx, annual, zones)
	}
	return nil, nil
}

func (m *MockScorerService) Persist(ctx context.Context, zones []domain.Zone, results []domain.ZoneResult, report *domain.RunReport) error {
	if m.PersistFunc != nil {
		return m.PersistFunc(ctx, zones, results, report)
	}
	return nil
}

// MockHomeService is a mock implementation of HomeService
type MockHomeService struct {
	EstimateFunc func(ctx context.Context, lat, lon, installationKW float64) (*domain.HomeEstimate, error)
	ReloadFunc   func(ctx context.Context) error
	VersionFunc  func() int64
}

func (m *MockHomeService) Estimate(ctx context.Context, lat, lon, installationKW float64) (*domain.HomeEstimate, error) {
	if m.EstimateFunc != nil {
		return m.EstimateFunc(ctx, lat, lon, installationKW)
	}
	return nil, nil
}

func (m *MockHomeService) Reload(ctx context.Context) error {
	if m.ReloadFunc != nil {
		return m.ReloadFunc(ctx)
	}
	return nil
}

func (m *MockHomeService) Version() int64 {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return 0
}
