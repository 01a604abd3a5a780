package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"go.uber.org/zap"

	"github.com/urjalabs/solatlas/internal/domain"
)

// ZonesGeoJSON reads and writes the fixed zone partition as a GeoJSON
// FeatureCollection. It implements both ports.ZoneSource and
// ports.ZoneWriter.
type ZonesGeoJSON struct {
	path string
	log  *zap.Logger
}

func NewZonesGeoJSON(path string, log *zap.Logger) *ZonesGeoJSON {
	return &ZonesGeoJSON{
		path: path,
		log:  log,
	}
}

func (s *ZonesGeoJSON) Load(ctx context.Context) ([]domain.Zone, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read zones file: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse zones file: %w", err)
	}

	zones := make([]domain.Zone, 0, len(fc.Features))
	for i, feature := range fc.Features {
		zone, err := zoneFromFeature(feature)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		zones = append(zones, zone)
	}
	sort.Slice(zones, func(i, j int) bool { return zones[i].ID < zones[j].ID })

	s.log.Info("Loaded zones", zap.String("path", s.path), zap.Int("zones", len(zones)))
	return zones, nil
}

func (s *ZonesGeoJSON) Write(ctx context.Context, zones []domain.Zone) error {
	sorted := make([]domain.Zone, len(zones))
	copy(sorted, zones)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	fc := geojson.NewFeatureCollection()
	for _, zone := range sorted {
		f := geojson.NewFeature(zone.Geometry)
		f.Properties = geojson.Properties{
			"zone_id":                    zone.ID,
			"label":                      zone.Label,
			"representative_location_id": zone.RepresentativeLocationID,
			"centroid_lat":               zone.CentroidLat,
			"centroid_lon":               zone.CentroidLon,
		}
		fc.Append(f)
	}

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal zones: %w", err)
	}
	if err := writeAtomic(s.path, data); err != nil {
		return fmt.Errorf("failed to write zones file: %w", err)
	}

	s.log.Info("Wrote zones", zap.String("path", s.path), zap.Int("zones", len(sorted)))
	return nil
}

// zoneFromFeature rebuilds a Zone from its feature. Missing centroid
// properties fall back to the geometric centroid.
func zoneFromFeature(feature *geojson.Feature) (domain.Zone, error) {
	polygon, err := polygonOf(feature.Geometry)
	if err != nil {
		return domain.Zone{}, err
	}

	zone := domain.Zone{
		ID:                       feature.Properties.MustString("zone_id", ""),
		Label:                    feature.Properties.MustString("label", ""),
		RepresentativeLocationID: feature.Properties.MustString("representative_location_id", ""),
		CentroidLat:              feature.Properties.MustFloat64("centroid_lat", 0),
		CentroidLon:              feature.Properties.MustFloat64("centroid_lon", 0),
		Geometry:                 polygon,
	}
	if zone.ID == "" {
		return domain.Zone{}, fmt.Errorf("missing zone_id property")
	}
	if zone.CentroidLat == 0 && zone.CentroidLon == 0 {
		centroid, _ := planar.CentroidArea(polygon)
		zone.CentroidLat = centroid[1]
		zone.CentroidLon = centroid[0]
	}
	return zone, nil
}

func polygonOf(geometry orb.Geometry) (orb.Polygon, error) {
	switch g := geometry.(type) {
	case orb.Polygon:
		return g, nil
	case orb.MultiPolygon:
		if len(g) == 1 {
			return g[0], nil
		}
		return nil, fmt.Errorf("multipolygon with %d members, want a single polygon", len(g))
	default:
		return nil, fmt.Errorf("unsupported geometry type %T", geometry)
	}
}
