package aggregate

import (
	"fmt"
	"math"
	"sort"

	"github.com/urjalabs/solatlas/internal/domain"
	"github.com/urjalabs/solatlas/internal/geo"
	"github.com/urjalabs/solatlas/internal/ports"
)

// NearestResolver serves each zone the feature rows of its representative
// location. It is the default strategy for grids where every zone carries its
// own sampling point.
type NearestResolver struct{}

func NewNearestResolver() ports.LocationResolver {
	return &NearestResolver{}
}

func (r *NearestResolver) Resolve(zone domain.Zone, horizon map[string][]domain.FeatureRow) ([]domain.FeatureRow, error) {
	rows, ok := horizon[zone.RepresentativeLocationID]
	if !ok || len(rows) == 0 {
		return nil, &domain.MissingZoneDataError{ZoneID: zone.ID, LocationID: zone.RepresentativeLocationID}
	}
	return rows, nil
}

// IDWResolver blends the k nearest location series by inverse distance to the
// zone centroid. All candidate series must share length, schema and date
// alignment; the blended row carries the zone's representative location ID.
type IDWResolver struct {
	neighbors int
	power     float64
	coords    map[string][2]float64 // location_id -> lat, lon
}

func NewIDWResolver(neighbors int, power float64, coords map[string][2]float64) ports.LocationResolver {
	if neighbors < 1 {
		neighbors = 1
	}
	if power <= 0 {
		power = 2.0
	}
	return &IDWResolver{neighbors: neighbors, power: power, coords: coords}
}

func (r *IDWResolver) Resolve(zone domain.Zone, horizon map[string][]domain.FeatureRow) ([]domain.FeatureRow, error) {
	type candidate struct {
		locationID string
		distanceKM float64
	}

	candidates := make([]candidate, 0, len(horizon))
	for loc, rows := range horizon {
		if len(rows) == 0 {
			continue
		}
		coord, ok := r.coords[loc]
		if !ok {
			continue
		}
		candidates = append(candidates, candidate{
			locationID: loc,
			distanceKM: geo.HaversineKM(zone.CentroidLat, zone.CentroidLon, coord[0], coord[1]),
		})
	}
	if len(candidates) == 0 {
		return nil, &domain.MissingZoneDataError{ZoneID: zone.ID, LocationID: zone.RepresentativeLocationID}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].distanceKM != candidates[j].distanceKM {
			return candidates[i].distanceKM < candidates[j].distanceKM
		}
		return candidates[i].locationID < candidates[j].locationID
	})
	k := r.neighbors
	if k > len(candidates) {
		k = len(candidates)
	}
	candidates = candidates[:k]

	// A zone sitting exactly on a sample point takes that series unblended.
	if candidates[0].distanceKM < 1e-9 {
		return horizon[candidates[0].locationID], nil
	}

	base := horizon[candidates[0].locationID]
	weights := make([]float64, k)
	var total float64
	for i, c := range candidates {
		rows := horizon[c.locationID]
		if len(rows) != len(base) {
			return nil, fmt.Errorf("blending zone %s: series length %d for %s does not match %d",
				zone.ID, len(rows), c.locationID, len(base))
		}
		weights[i] = 1 / math.Pow(c.distanceKM, r.power)
		total += weights[i]
	}

	blended := make([]domain.FeatureRow, len(base))
	for d := range base {
		values := make([]float64, len(base[d].Values))
		for i, c := range candidates {
			row := horizon[c.locationID][d]
			if !row.Date.Equal(base[d].Date) {
				return nil, fmt.Errorf("blending zone %s: date %s for %s does not align with %s",
					zone.ID, row.Date.Format("2006-01-02"), c.locationID, base[d].Date.Format("2006-01-02"))
			}
			if !domain.SameSchema(row.Names, base[d].Names) {
				return nil, &domain.SchemaMismatchError{Want: base[d].Names, Got: row.Names}
			}
			w := weights[i] / total
			for j, v := range row.Values {
				values[j] += w * v
			}
		}
		blended[d] = domain.FeatureRow{
			LocationID: zone.RepresentativeLocationID,
			Date:       base[d].Date,
			Names:      base[d].Names,
			Values:     values,
		}
	}
	return blended, nil
}
