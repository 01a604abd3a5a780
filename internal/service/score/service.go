package score

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/urjalabs/solatlas/internal/domain"
	"github.com/urjalabs/solatlas/internal/ports"
)

// Service turns annual totals into relative suitability scores and persists
// the merged output artifact.
type Service struct {
	artifact ports.ArtifactStore
	repo     ports.ZoneResultRepository
	reports  ports.ReportStore
	log      *zap.Logger
}

// NewService wires the scorer. repo may be nil when no relational store is
// configured; artifact and reports are required.
func NewService(artifact ports.ArtifactStore, repo ports.ZoneResultRepository, reports ports.ReportStore, log *zap.Logger) ports.ScorerService {
	return &Service{artifact: artifact, repo: repo, reports: reports, log: log}
}

// Score min-max scales the annual totals across the zone set into [0, 100].
// Zones absent from the totals (failed upstream) produce no result row. When
// every total is equal the scale is degenerate and every zone scores 100.
func (s *Service) Score(ctx context.Context, annual map[string]float64, zones []domain.Zone) ([]domain.ZoneResult, error) {
	if len(annual) == 0 {
		return nil, fmt.Errorf("no annual totals to score")
	}

	known := make(map[string]bool, len(zones))
	for _, z := range zones {
		known[z.ID] = true
	}
	for id := range annual {
		if !known[id] {
			return nil, fmt.Errorf("annual total for unknown zone %s", id)
		}
	}

	min, max := 0.0, 0.0
	first := true
	for _, v := range annual {
		if first {
			min, max = v, v
			first = false
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	now := time.Now().UTC()
	results := make([]domain.ZoneResult, 0, len(annual))
	for _, zone := range zones {
		total, ok := annual[zone.ID]
		if !ok {
			continue
		}
		score := 100.0
		if max > min {
			score = (total - min) / (max - min) * 100.0
		}
		results = append(results, domain.ZoneResult{
			ZoneID:             zone.ID,
			PredictedAnnualKWh: total,
			SuitabilityScore:   score,
			CreatedAt:          now,
			UpdatedAt:          now,
		})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ZoneID < results[j].ZoneID })

	s.log.Info("Scored zones",
		zap.Int("zones", len(results)),
		zap.Float64("min_annual_kwh", min),
		zap.Float64("max_annual_kwh", max),
	)
	return results, nil
}

// Persist writes the merged artifact, mirrors the rows into the relational
// store when one is configured, and records the run report. The artifact
// write comes first: if it fails nothing else is touched.
func (s *Service) Persist(ctx context.Context, zones []domain.Zone, results []domain.ZoneResult, report *domain.RunReport) error {
	if report != nil {
		for i := range results {
			results[i].ModelID = report.ModelID
			results[i].RunID = report.RunID
		}
	}

	if err := s.artifact.Write(ctx, zones, results); err != nil {
		return fmt.Errorf("writing output artifact: %w", err)
	}

	if s.repo != nil {
		if err := s.repo.UpsertAll(ctx, results); err != nil {
			return fmt.Errorf("upserting zone results: %w", err)
		}
	}

	if report != nil {
		if err := s.reports.SaveRun(ctx, report); err != nil {
			return fmt.Errorf("saving run report: %w", err)
		}
	}

	s.log.Info("Persisted scored artifact",
		zap.Int("zones", len(results)),
	)
	return nil
}
