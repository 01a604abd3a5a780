package zonegrid

import (
	"context"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"go.uber.org/zap"

	"github.com/urjalabs/solatlas/internal/domain"
	"github.com/urjalabs/solatlas/internal/geo"
	"github.com/urjalabs/solatlas/internal/ports"
)

// Options configure one grid generation pass.
type Options struct {
	City      string
	CenterLat float64
	CenterLon float64
	CellKM    float64
	IDPrefix  string
}

// Service lays a fixed square grid over the city boundary. This is a one-shot
// setup step: the partition it writes is the stable geography every later
// pipeline run scores against.
type Service struct {
	boundary ports.BoundaryProvider
	writer   ports.ZoneWriter
	opts     Options
	log      *zap.Logger
}

func NewService(boundary ports.BoundaryProvider, writer ports.ZoneWriter, opts Options, log *zap.Logger) *Service {
	if opts.CellKM <= 0 {
		opts.CellKM = 2.0
	}
	if opts.IDPrefix == "" {
		opts.IDPrefix = "ZONE"
	}
	return &Service{boundary: boundary, writer: writer, opts: opts, log: log}
}

// Generate fetches the administrative boundary, grids it and persists the
// partition. Cells whose centroid falls outside the boundary are discarded.
func (s *Service) Generate(ctx context.Context) ([]domain.Zone, *domain.CoverageReport, error) {
	boundary, err := s.boundary.Boundary(ctx, s.opts.City)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching boundary for %s: %w", s.opts.City, err)
	}
	if len(boundary) == 0 {
		return nil, nil, fmt.Errorf("boundary for %s is empty", s.opts.City)
	}

	zones := s.grid(boundary)
	if len(zones) == 0 {
		return nil, nil, fmt.Errorf("no grid cell centroid falls inside the %s boundary", s.opts.City)
	}

	if err := s.writer.Write(ctx, zones); err != nil {
		return nil, nil, fmt.Errorf("writing zone partition: %w", err)
	}

	cellKM2 := s.opts.CellKM * s.opts.CellKM
	report := &domain.CoverageReport{
		BoundaryKM2: boundaryAreaKM2(boundary),
		CoveredKM2:  float64(len(zones)) * cellKM2,
		Zones:       len(zones),
	}
	if report.BoundaryKM2 > 0 {
		report.CoveragePct = report.CoveredKM2 / report.BoundaryKM2 * 100
	}

	s.log.Info("Generated zone partition",
		zap.String("city", s.opts.City),
		zap.Int("zones", len(zones)),
		zap.Float64("cell_km", s.opts.CellKM),
		zap.Float64("coverage_pct", report.CoveragePct),
	)
	return zones, report, nil
}

// grid walks the boundary bbox row by row from the northwest corner, keeping
// cells whose centroid the boundary contains. Walking in a fixed order keeps
// zone numbering stable across runs.
func (s *Service) grid(boundary orb.MultiPolygon) []domain.Zone {
	bound := boundary.Bound()

	latStep := s.opts.CellKM * geo.DegPerKMLat()
	var zones []domain.Zone
	n := 0

	for latTop := bound.Max[1]; latTop > bound.Min[1]; latTop -= latStep {
		latCenter := latTop - latStep/2
		lonStep := s.opts.CellKM * geo.DegPerKMLon(latCenter)
		for lonLeft := bound.Min[0]; lonLeft < bound.Max[0]; lonLeft += lonStep {
			lonCenter := lonLeft + lonStep/2
			if !multiPolygonContains(boundary, orb.Point{lonCenter, latCenter}) {
				continue
			}
			n++
			id := fmt.Sprintf("%s-%04d", s.opts.IDPrefix, n)
			zones = append(zones, domain.Zone{
				ID:                       id,
				Label:                    s.label(latCenter, lonCenter),
				RepresentativeLocationID: id,
				CentroidLat:              latCenter,
				CentroidLon:              lonCenter,
				Geometry: orb.Polygon{orb.Ring{
					{lonLeft, latTop - latStep},
					{lonLeft + lonStep, latTop - latStep},
					{lonLeft + lonStep, latTop},
					{lonLeft, latTop},
					{lonLeft, latTop - latStep},
				}},
			})
		}
	}
	return zones
}

// label names a cell by its compass octant from the city center; the central
// cell containing the center itself is "Center".
func (s *Service) label(lat, lon float64) string {
	distKM := geo.HaversineKM(s.opts.CenterLat, s.opts.CenterLon, lat, lon)
	if distKM < s.opts.CellKM/2 {
		return "Center"
	}
	bearing := geo.BearingDeg(s.opts.CenterLat, s.opts.CenterLon, lat, lon)
	return geo.Octant(bearing)
}

// Validate re-checks an existing partition: unique ids, closed valid rings,
// representative ids present.
func (s *Service) Validate(ctx context.Context, zones []domain.Zone) error {
	if len(zones) == 0 {
		return fmt.Errorf("partition holds no zones")
	}
	seen := make(map[string]bool, len(zones))
	for _, zone := range zones {
		if zone.ID == "" {
			return fmt.Errorf("zone with empty id")
		}
		if seen[zone.ID] {
			return fmt.Errorf("duplicate zone id %s", zone.ID)
		}
		seen[zone.ID] = true
		if zone.RepresentativeLocationID == "" {
			return fmt.Errorf("zone %s has no representative location", zone.ID)
		}
		if len(zone.Geometry) == 0 {
			return fmt.Errorf("zone %s has no geometry", zone.ID)
		}
		for _, ring := range zone.Geometry {
			if len(ring) < 4 {
				return fmt.Errorf("zone %s has a degenerate ring of %d points", zone.ID, len(ring))
			}
			if !ring[0].Equal(ring[len(ring)-1]) {
				return fmt.Errorf("zone %s has an unclosed ring", zone.ID)
			}
		}
		if math.Abs(zone.CentroidLat) > 90 || math.Abs(zone.CentroidLon) > 180 {
			return fmt.Errorf("zone %s centroid out of range", zone.ID)
		}
	}
	s.log.Info("Validated zone partition", zap.Int("zones", len(zones)))
	return nil
}

func multiPolygonContains(mp orb.MultiPolygon, p orb.Point) bool {
	for _, poly := range mp {
		if planar.PolygonContains(poly, p) {
			return true
		}
	}
	return false
}

// boundaryAreaKM2 approximates the boundary area by scaling the planar
// degree-space area with the metric degree lengths at the bound center.
func boundaryAreaKM2(mp orb.MultiPolygon) float64 {
	bound := mp.Bound()
	midLat := (bound.Min[1] + bound.Max[1]) / 2
	kmPerDegLat := 1 / geo.DegPerKMLat()
	kmPerDegLon := 1 / geo.DegPerKMLon(midLat)
	return math.Abs(planar.Area(mp)) * kmPerDegLat * kmPerDegLon
}
