package ports

import (
	"context"

	"github.com/paulmach/orb"

	"github.com/urjalabs/solatlas/internal/domain"
)

// ClimateStore persists cleaned daily climate records in the local pipeline
// store.
type ClimateStore interface {
	SaveRecords(ctx context.Context, records []domain.ClimateRecord) error
	RecordsByLocation(ctx context.Context, locationID string) ([]domain.ClimateRecord, error)
	Locations(ctx context.Context) ([]string, error)
}

// EnergyStore persists simulated ground-truth daily energy labels.
type EnergyStore interface {
	SaveDays(ctx context.Context, days []domain.EnergyDay) error
	DaysByLocation(ctx context.Context, locationID string) ([]domain.EnergyDay, error)
}

// ZoneResultReader is the query side of the scored output table. The API
// serves it from Postgres when configured, from the artifact file otherwise.
type ZoneResultReader interface {
	List(ctx context.Context) ([]domain.ZoneResult, error)
	FindByZoneID(ctx context.Context, zoneID string) (*domain.ZoneResult, error)
}

// ZoneResultRepository is the relational mirror of the scored output table.
type ZoneResultRepository interface {
	ZoneResultReader
	UpsertAll(ctx context.Context, results []domain.ZoneResult) error
}

// ModelRegistry keeps metadata rows for trained models.
type ModelRegistry interface {
	Save(ctx context.Context, record *domain.ModelRecord) error
	Latest(ctx context.Context, variant domain.ModelVariant) (*domain.ModelRecord, error)
}

// ClimateSource reads raw per-location daily climate files from disk.
type ClimateSource interface {
	Load(ctx context.Context) (map[string][]domain.ClimateRecord, error)
}

// ZoneSource reads the fixed zone partition file.
type ZoneSource interface {
	Load(ctx context.Context) ([]domain.Zone, error)
}

// ArtifactStore reads and writes the merged geometry + result artifact, the
// single table the presentation layer depends on.
type ArtifactStore interface {
	Write(ctx context.Context, zones []domain.Zone, results []domain.ZoneResult) error
	Read(ctx context.Context) ([]domain.Zone, []domain.ZoneResult, error)
}

// ModelStore persists fitted models as artifacts on disk.
type ModelStore interface {
	Save(ctx context.Context, model *domain.FittedModel) (string, error)
	Load(ctx context.Context) (*domain.FittedModel, error)
}

// ReportStore persists pipeline reports and intermediate stage outputs.
type ReportStore interface {
	SaveRun(ctx context.Context, report *domain.RunReport) error
	LoadRun(ctx context.Context) (*domain.RunReport, error)
	SaveQA(ctx context.Context, report *domain.QAReport) error
	LoadQA(ctx context.Context) (*domain.QAReport, error)
	SaveCoverage(ctx context.Context, report *domain.CoverageReport) error
	SaveAnnual(ctx context.Context, runID string, annual map[string]float64) error
	LoadAnnual(ctx context.Context) (string, map[string]float64, error)
}

// ZoneWriter persists a generated zone partition.
type ZoneWriter interface {
	Write(ctx context.Context, zones []domain.Zone) error
}

// BoundaryProvider fetches the administrative boundary the zone grid is
// clipped to.
type BoundaryProvider interface {
	Boundary(ctx context.Context, name string) (orb.MultiPolygon, error)
}
