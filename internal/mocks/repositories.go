package mocks

import (
	"context"

	"github.com/paulmach/orb"

	"github.com/urjalabs/solatlas/internal/domain"
)

// MockClimateStore is a mock implementation of ClimateStore
type MockClimateStore struct {
	SaveRecordsFunc       func(ctx context.Context, records []domain.ClimateRecord) error
	RecordsByLocationFunc func(ctx context.Context, locationID string) ([]domain.ClimateRecord, error)
	LocationsFunc         func(ctx context.Context) ([]string, error)
}

func (m *MockClimateStore) SaveRecords(ctx context.Context, records []domain.ClimateRecord) error {
	if m.SaveRecordsFunc != nil {
		return m.SaveRecordsFunc(ctx, records)
	}
	return nil
}

func (m *MockClimateStore) RecordsByLocation(ctx context.Context, locationID string) ([]domain.ClimateRecord, error) {
	if m.RecordsByLocationFunc != nil {
		return m.RecordsByLocationFunc(ctx, locationID)
	}
	return nil, nil
}

func (m *MockClimateStore) Locations(ctx context.Context) ([]string, error) {
	if m.LocationsFunc != nil {
		return m.LocationsFunc(ctx)
	}
	return nil, nil
}

// MockEnergyStore is a mock implementation of EnergyStore
type MockEnergyStore struct {
	SaveDaysFunc       func(ctx context.Context, days []domain.EnergyDay) error
	DaysByLocationFunc func(ctx context.Context, locationID string) ([]domain.EnergyDay, error)
}

func (m *MockEnergyStore) SaveDays(ctx context.Context, days []domain.EnergyDay) error {
	if m.SaveDaysFunc != nil {
		return m.SaveDaysFunc(ctx, days)
	}
	return nil
}

func (m *MockEnergyStore) DaysByLocation(ctx context.Context, locationID string) ([]domain.EnergyDay, error) {
	if m.DaysByLocationFunc != nil {
		return m.DaysByLocationFunc(ctx, locationID)
	}
	return nil, nil
}

// MockZoneResultRepository is a mock implementation of ZoneResultRepository
type MockZoneResultRepository struct {
	UpsertAllFunc    func(ctx context.Context, results []domain.ZoneResult) error
	ListFunc         func(ctx context.Context) ([]domain.ZoneResult, error)
	FindByZoneIDFunc func(ctx context.Context, zoneID string) (*domain.ZoneResult, error)
}

func (m *MockZoneResultRepository) UpsertAll(ctx context.Context, results []domain.ZoneResult) error {
	if m.UpsertAllFunc != nil {
		return m.UpsertAllFunc(ctx, results)
	}
	return nil
}

func (m *MockZoneResultRepository) List(ctx context.Context) ([]domain.ZoneResult, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func (m *MockZoneResultRepository) FindByZoneID(ctx context.Context, zoneID string) (*domain.ZoneResult, error) {
	if m.FindByZoneIDFunc != nil {
		return m.FindByZoneIDFunc(ctx, zoneID)
	}
	return nil, nil
}

// MockModelRegistry is a mock implementation of ModelRegistry
type MockModelRegistry struct {
	SaveFunc   func(ctx context.Context, record *domain.ModelRecord) error
	LatestFunc func(ctx context.Context, variant domain.ModelVariant) (*domain.ModelRecord, error)
}

func (m *MockModelRegistry) Save(ctx context.Context, record *domain.ModelRecord) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, record)
	}
	return nil
}

func (m *MockModelRegistry) Latest(ctx context.Context, variant domain.ModelVariant) (*domain.ModelRecord, error) {
	if m.LatestFunc != nil {
		return m.LatestFunc(ctx, variant)
	}
	return nil, nil
}

// MockClimateSource is a mock implementation of ClimateSource
type MockClimateSource struct {
	LoadFunc func(ctx context.Context) (map[string][]domain.ClimateRecord, error)
}

func (m *MockClimateSource) Load(ctx context.Context) (map[string][]domain.ClimateRecord, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx)
	}
	return nil, nil
}

// MockZoneSource is a mock implementation of ZoneSource
type MockZoneSource struct {
	LoadFunc func(ctx context.Context) ([]domain.Zone, error)
}

func (m *MockZoneSource) Load(ctx context.Context) ([]domain.Zone, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx)
	}
	return nil, nil
}

// MockArtifactStore is a mock implementation of ArtifactStore
type MockArtifactStore struct {
	WriteFunc func(ctx context.Context, zones []domain.Zone, results []domain.ZoneResult) error
	ReadFunc  func(ctx context.Context) ([]domain.Zone, []domain.ZoneResult, error)
}

func (m *MockArtifactStore) Write(ctx context.Context, zones []domain.Zone, results []domain.ZoneResult) error {
	if m.WriteFunc != nil {
		return m.WriteFunc(ctx, zones, results)
	}
	return nil
}

func (m *MockArtifactStore) Read(ctx context.Context) ([]domain.Zone, []domain.ZoneResult, error) {
	if m.ReadFunc != nil {
		return m.ReadFunc(ctx)
	}
	return nil, nil, nil
}

// MockModelStore is a mock implementation of ModelStore
type MockModelStore struct {
	SaveFunc func(ctx context.Context, model *domain.FittedModel) (string, error)
	LoadFunc func(ctx context.Context) (*domain.FittedModel, error)
}

func (m *MockModelStore) Save(ctx context.Context, model *domain.FittedModel) (string, error) {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, model)
	}
	return "", nil
}

func (m *MockModelStore) Load(ctx context.Context) (*domain.FittedModel, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx)
	}
	return nil, nil
}

// MockReportStore is a mock implementation of ReportStore
type MockReportStore struct {
	SaveRunFunc      func(ctx context.Context, report *domain.RunReport) error
	LoadRunFunc      func(ctx context.Context) (*domain.RunReport, error)
	SaveQAFunc       func(ctx context.Context, report *domain.QAReport) error
	LoadQAFunc       func(ctx context.Context) (*domain.QAReport, error)
	SaveCoverageFunc func(ctx context.Context, report *domain.CoverageReport) error
	SaveAnnualFunc   func(ctx context.Context, runID string, annual map[string]float64) error
	LoadAnnualFunc   func(ctx context.Context) (string, map[string]float64, error)
}

func (m *MockReportStore) SaveRun(ctx context.Context, report *domain.RunReport) error {
	if m.SaveRunFunc != nil {
		return m.SaveRunFunc(ctx, report)
	}
	return nil
}

func (m *MockReportStore) LoadRun(ctx context.Context) (*domain.RunReport, error) {
	if m.LoadRunFunc != nil {
		return m.LoadRunFunc(ctx)
	}
	return nil, nil
}

func (m *MockReportStore) SaveQA(ctx context.Context, report *domain.QAReport) error {
	if m.SaveQAFunc != nil {
		return m.SaveQAFunc(ctx, report)
	}
	return nil
}

func (m *MockReportStore) LoadQA(ctx context.Context) (*domain.QAReport, error) {
	if m.LoadQAFunc != nil {
		return m.LoadQAFunc(ctx)
	}
	return nil, nil
}

func (m *MockReportStore) SaveCoverage(ctx context.Context, report *domain.CoverageReport) error {
	if m.SaveCoverageFunc != nil {
		return m.SaveCoverageFunc(ctx, report)
	}
	return nil
}

func (m *MockReportStore) SaveAnnual(ctx context.Context, runID string, annual map[string]float64) error {
	if m.SaveAnnualFunc != nil {
		return m.SaveAnnualFunc(ctx, runID, annual)
	}
	return nil
}

func (m *MockReportStore) LoadAnnual(ctx context.Context) (string, map[string]float64, error) {
	if m.LoadAnnualFunc != nil {
		return m.LoadAnnualFunc(ctx)
	}
	return "", nil, nil
}

// MockZoneWriter is a mock implementation of ZoneWriter
type MockZoneWriter struct {
	WriteFunc func(ctx context.Context, zones []domain.Zone) error
}

func (m *MockZoneWriter) Write(ctx context.Context, zones []domain.Zone) error {
	if m.WriteFunc != nil {
		return m.WriteFunc(ctx, zones)
	}
	return nil
}

// MockBoundaryProvider is a mock implementation of BoundaryProvider
type MockBoundaryProvider struct {
	BoundaryFunc func(ctx context.Context, name string) (orb.MultiPolygon, error)
}

func (m *MockBoundaryProvider) Boundary(ctx context.Context, name string) (orb.MultiPolygon, error) {
	if m.BoundaryFunc != nil {
		return m.BoundaryFunc(ctx, name)
	}
	return nil, nil
}
