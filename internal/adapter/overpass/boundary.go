package overpass

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/paulmach/orb"
	overpass "github.com/serjvanilla/go-overpass"
	"go.uber.org/zap"

	"github.com/urjalabs/solatlas/internal/ports"
)

const defaultEndpoint = "https://overpass-api.de/api/interpreter"

// BoundaryProvider fetches administrative boundaries from the Overpass API
// and assembles the member ways into closed rings.
type BoundaryProvider struct {
	client   *overpass.Client
	attempts int
	log      *zap.Logger
}

func NewBoundaryProvider(endpoint string, timeout time.Duration, log *zap.Logger) ports.BoundaryProvider {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	httpClient := &http.Client{
		Timeout: timeout,
	}
	client := overpass.NewWithSettings(endpoint, 1, httpClient)
	return &BoundaryProvider{
		client:   &client,
		attempts: 3,
		log:      log,
	}
}

func (p *BoundaryProvider) Boundary(ctx context.Context, name string) (orb.MultiPolygon, error) {
	query := fmt.Sprintf(`
		[out:json][timeout:60];
		relation["boundary"="administrative"]["name"="%s"];
		out body;
		>;
		out skel qt;
	`, name)

	result, err := p.executeQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch boundary for %q: %w", name, err)
	}

	relation := pickRelation(result, name)
	if relation == nil {
		return nil, fmt.Errorf("no administrative boundary relation found for %q", name)
	}

	boundary, err := assembleBoundary(relation)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble boundary for %q: %w", name, err)
	}

	p.log.Info("Fetched administrative boundary",
		zap.String("name", name),
		zap.Int64("relation_id", relation.ID),
		zap.Int("polygons", len(boundary)))
	return boundary, nil
}

// executeQuery retries transient Overpass failures with a short backoff. The
// public API rate-limits aggressively, so attempts stay bounded.
func (p *BoundaryProvider) executeQuery(ctx context.Context, query string) (*overpass.Result, error) {
	var lastErr error
	for attempt := 1; attempt <= p.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := p.client.Query(query)
		if err == nil {
			return &result, nil
		}
		lastErr = err
		p.log.Warn("Overpass query failed",
			zap.Int("attempt", attempt),
			zap.Error(err))
		if attempt < p.attempts {
			select {
			case <-time.After(time.Duration(attempt) * 2 * time.Second):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, fmt.Errorf("overpass query failed after %d attempts: %w", p.attempts, lastErr)
}

// pickRelation prefers an exact name match with the lowest admin_level, since
// city queries often also match wards and districts.
func pickRelation(result *overpass.Result, name string) *overpass.Relation {
	var best *overpass.Relation
	bestLevel := 100
	for _, relation := range result.Relations {
		if relation.Tags["name"] != name && relation.Tags["name:en"] != name {
			continue
		}
		level, err := strconv.Atoi(relation.Tags["admin_level"])
		if err != nil {
			level = 99
		}
		if best == nil || level < bestLevel {
			best = relation
			bestLevel = level
		}
	}
	return best
}

// assembleBoundary stitches the relation's outer ways into closed rings.
// Admin boundaries arrive as arbitrarily ordered way fragments, so segments
// are joined end to end by shared endpoints.
func assembleBoundary(relation *overpass.Relation) (orb.MultiPolygon, error) {
	var segments []orb.LineString
	for _, member := range relation.Members {
		if member.Way == nil || (member.Role != "outer" && member.Role != "") {
			continue
		}
		var segment orb.LineString
		for _, node := range member.Way.Nodes {
			if node == nil {
				continue
			}
			segment = append(segment, orb.Point{node.Lon, node.Lat})
		}
		if len(segment) >= 2 {
			segments = append(segments, segment)
		}
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("relation has no outer ways")
	}

	rings := stitchRings(segments)
	if len(rings) == 0 {
		return nil, fmt.Errorf("outer ways do not close into a ring")
	}

	boundary := make(orb.MultiPolygon, 0, len(rings))
	for _, ring := range rings {
		boundary = append(boundary, orb.Polygon{ring})
	}
	return boundary, nil
}

// stitchRings joins segments that share endpoints until each chain closes.
// Chains that never close are dropped.
func stitchRings(segments []orb.LineString) []orb.Ring {
	used := make([]bool, len(segments))
	var rings []orb.Ring

	for i := range segments {
		if used[i] {
			continue
		}
		used[i] = true
		chain := append(orb.LineString(nil), segments[i]...)

		for !closed(chain) {
			extended := false
			for j := range segments {
				if used[j] {
					continue
				}
				next := segments[j]
				switch {
				case chain[len(chain)-1] == next[0]:
					chain = append(chain, next[1:]...)
				case chain[len(chain)-1] == next[len(next)-1]:
					chain = append(chain, reversed(next)[1:]...)
				case chain[0] == next[len(next)-1]:
					chain = append(next[:len(next)-1:len(next)-1], chain...)
				case chain[0] == next[0]:
					chain = append(reversed(next)[:len(next)-1:len(next)-1], chain...)
				default:
					continue
				}
				used[j] = true
				extended = true
				break
			}
			if !extended {
				break
			}
		}

		if closed(chain) && len(chain) >= 4 {
			rings = append(rings, orb.Ring(chain))
		}
	}
	return rings
}

func closed(chain orb.LineString) bool {
	return len(chain) >= 3 && chain[0] == chain[len(chain)-1]
}

func reversed(segment orb.LineString) orb.LineString {
	out := make(orb.LineString, len(segment))
	for i, point := range segment {
		out[len(segment)-1-i] = point
	}
	return out
}
