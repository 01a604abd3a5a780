package home

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"go.uber.org/zap"

	"github.com/urjalabs/solatlas/internal/domain"
	"github.com/urjalabs/solatlas/internal/geo"
	"github.com/urjalabs/solatlas/internal/observability/telemetry"
	"github.com/urjalabs/solatlas/internal/ports"
)

// ReferenceCapacityKW is the plant size every zone's annual figure is
// computed for. A user estimate is only meaningful scaled relative to it.
const ReferenceCapacityKW = 10.0

type zoneEntry struct {
	zone   domain.Zone
	result domain.ZoneResult
}

type snapshot struct {
	entries []zoneEntry
	bound   orb.Bound
	version int64
}

// Service answers point queries against an in-memory copy of the scored
// artifact. The snapshot is immutable once installed; Reload swaps it
// atomically behind the lock so queries never see a half-loaded state.
type Service struct {
	store            ports.ArtifactStore
	coverageMarginKM float64
	log              *zap.Logger

	mu   sync.RWMutex
	snap *snapshot
}

func NewService(store ports.ArtifactStore, coverageMarginKM float64, log *zap.Logger) ports.HomeService {
	if coverageMarginKM <= 0 {
		coverageMarginKM = 25.0
	}
	return &Service{store: store, coverageMarginKM: coverageMarginKM, log: log}
}

// Reload reads the artifact from the store and installs it as the serving
// snapshot. The previous snapshot keeps serving until the swap.
func (s *Service) Reload(ctx context.Context) error {
	zones, results, err := s.store.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading scored artifact: %w", err)
	}

	byID := make(map[string]domain.ZoneResult, len(results))
	for _, r := range results {
		byID[r.ZoneID] = r
	}

	snap := &snapshot{version: time.Now().UnixNano()}
	for _, zone := range zones {
		result, ok := byID[zone.ID]
		if !ok {
			continue
		}
		snap.entries = append(snap.entries, zoneEntry{zone: zone, result: result})

		point := orb.Point{zone.CentroidLon, zone.CentroidLat}
		if len(snap.entries) == 1 {
			snap.bound = point.Bound()
		} else {
			snap.bound = snap.bound.Extend(point)
		}
		if len(zone.Geometry) > 0 {
			snap.bound = snap.bound.Union(zone.Geometry.Bound())
		}
	}
	if len(snap.entries) == 0 {
		return fmt.Errorf("scored artifact holds no usable zones")
	}

	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()

	telemetry.ArtifactReloadsTotal.Inc()
	s.log.Info("Loaded scored artifact",
		zap.Int("zones", len(snap.entries)),
		zap.Int64("version", snap.version),
	)
	return nil
}

// Version identifies the installed snapshot. Cache keys embed it so a reload
// naturally retires every stale entry.
func (s *Service) Version() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snap == nil {
		return 0
	}
	return s.snap.version
}

// Estimate locates the zone for the point and scales its annual figure to
// the requested installation size. Containment wins over proximity; points
// beyond the coverage margin fail typed.
func (s *Service) Estimate(ctx context.Context, lat, lon, installationKW float64) (*domain.HomeEstimate, error) {
	if installationKW <= 0 {
		return nil, fmt.Errorf("installation capacity must be positive, got %f kW", installationKW)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("coordinates out of range: lat %f, lon %f", lat, lon)
	}

	s.mu.RLock()
	snap := s.snap
	s.mu.RUnlock()
	if snap == nil {
		return nil, fmt.Errorf("no scored artifact loaded")
	}

	entry, matched, distanceKM := snap.locate(lat, lon)
	if entry == nil || distanceKM > s.coverageMarginKM {
		return nil, &domain.OutOfCoverageError{Lat: lat, Lon: lon, DistanceKM: distanceKM}
	}

	return &domain.HomeEstimate{
		Lat:              lat,
		Lon:              lon,
		InstallationKW:   installationKW,
		ZoneID:           entry.zone.ID,
		ZoneAnnualKWh:    entry.result.PredictedAnnualKWh,
		EstimatedKWh:     entry.result.PredictedAnnualKWh * installationKW / ReferenceCapacityKW,
		SuitabilityScore: entry.result.SuitabilityScore,
		Matched:          matched,
	}, nil
}

// locate returns the matching entry, how it matched and the point's distance
// to coverage (zero when contained or inside the covered bound).
func (snap *snapshot) locate(lat, lon float64) (*zoneEntry, string, float64) {
	point := orb.Point{lon, lat}

	for i := range snap.entries {
		g := snap.entries[i].zone.Geometry
		if len(g) > 0 && planar.PolygonContains(g, point) {
			return &snap.entries[i], "contains", 0
		}
	}

	best := -1
	bestKM := 0.0
	for i := range snap.entries {
		d := geo.HaversineKM(lat, lon, snap.entries[i].zone.CentroidLat, snap.entries[i].zone.CentroidLon)
		if best < 0 || d < bestKM {
			best, bestKM = i, d
		}
	}
	if best < 0 {
		return nil, "", 0
	}
	if snap.bound.Contains(point) {
		return &snap.entries[best], "nearest", 0
	}
	return &snap.entries[best], "nearest", snap.distanceToBound(lat, lon)
}

// distanceToBound measures how far outside the covered bounding box the
// point sits, in km along the dominant axis.
func (snap *snapshot) distanceToBound(lat, lon float64) float64 {
	var dLatKM, dLonKM float64

	if lat < snap.bound.Min[1] {
		dLatKM = (snap.bound.Min[1] - lat) / geo.DegPerKMLat()
	} else if lat > snap.bound.Max[1] {
		dLatKM = (lat - snap.bound.Max[1]) / geo.DegPerKMLat()
	}

	edgeLat := lat
	if lat < snap.bound.Min[1] {
		edgeLat = snap.bound.Min[1]
	} else if lat > snap.bound.Max[1] {
		edgeLat = snap.bound.Max[1]
	}
	if lon < snap.bound.Min[0] {
		dLonKM = (snap.bound.Min[0] - lon) / geo.DegPerKMLon(edgeLat)
	} else if lon > snap.bound.Max[0] {
		dLonKM = (lon - snap.bound.Max[0]) / geo.DegPerKMLon(edgeLat)
	}

	if dLatKM > dLonKM {
		return dLatKM
	}
	return dLonKM
}
