package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/urjalabs/solatlas/internal/domain"
	"github.com/urjalabs/solatlas/internal/ports"
)

// Artifact persists the merged geometry + result FeatureCollection, the one
// table the presentation layer consumes.
type Artifact struct {
	path string
	log  *zap.Logger
}

func NewArtifact(path string, log *zap.Logger) ports.ArtifactStore {
	return &Artifact{
		path: path,
		log:  log,
	}
}

func (s *Artifact) Write(ctx context.Context, zones []domain.Zone, results []domain.ZoneResult) error {
	byZone := make(map[string]domain.ZoneResult, len(results))
	for _, result := range results {
		byZone[result.ZoneID] = result
	}

	sorted := make([]domain.Zone, len(zones))
	copy(sorted, zones)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	fc := geojson.NewFeatureCollection()
	for _, zone := range sorted {
		result, ok := byZone[zone.ID]
		if !ok {
			s.log.Warn("Zone has no result, omitting from artifact", zap.String("zone_id", zone.ID))
			continue
		}
		f := geojson.NewFeature(zone.Geometry)
		f.Properties = geojson.Properties{
			"zone_id":                    zone.ID,
			"label":                      zone.Label,
			"representative_location_id": zone.RepresentativeLocationID,
			"centroid_lat":               zone.CentroidLat,
			"centroid_lon":               zone.CentroidLon,
			"predicted_annual_kwh":       result.PredictedAnnualKWh,
			"suitability_score":          result.SuitabilityScore,
			"model_id":                   result.ModelID,
			"run_id":                     result.RunID,
			"updated_at":                 result.UpdatedAt.UTC().Format(time.RFC3339),
		}
		fc.Append(f)
	}

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal artifact: %w", err)
	}
	if err := writeAtomic(s.path, data); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}

	s.log.Info("Wrote artifact", zap.String("path", s.path), zap.Int("zones", len(fc.Features)))
	return nil
}

func (s *Artifact) Read(ctx context.Context) ([]domain.Zone, []domain.ZoneResult, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse artifact: %w", err)
	}

	zones := make([]domain.Zone, 0, len(fc.Features))
	results := make([]domain.ZoneResult, 0, len(fc.Features))
	for i, feature := range fc.Features {
		zone, err := zoneFromFeature(feature)
		if err != nil {
			return nil, nil, fmt.Errorf("feature %d: %w", i, err)
		}
		result := domain.ZoneResult{
			ZoneID:             zone.ID,
			PredictedAnnualKWh: feature.Properties.MustFloat64("predicted_annual_kwh", 0),
			SuitabilityScore:   feature.Properties.MustFloat64("suitability_score", 0),
			ModelID:            feature.Properties.MustString("model_id", ""),
			RunID:              feature.Properties.MustString("run_id", ""),
		}
		if raw := feature.Properties.MustString("updated_at", ""); raw != "" {
			if t, err := time.Parse(time.RFC3339, raw); err == nil {
				result.UpdatedAt = t
			}
		}
		zones = append(zones, zone)
		results = append(results, result)
	}
	return zones, results, nil
}
