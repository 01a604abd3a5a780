package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/urjalabs/solatlas/internal/adapter/file"
	"github.com/urjalabs/solatlas/internal/domain"
)

// kmPerDegree is the meridian arc length of one degree of latitude.
const kmPerDegree = 111.32

// GeneratorConfig holds the generator configuration
type GeneratorConfig struct {
	OutDir     string
	Locations  int
	Start      time.Time
	Days       int
	Seed       int64
	CenterLat  float64
	CenterLon  float64
	CellKM     float64
	IDPrefix   string
	WriteZones bool
}

// Summary reports what a generation run produced
type Summary struct {
	ClimateFiles int
	ClimateDir   string
	ZonesFile    string
}

// Generator writes synthetic daily climate series and an optional matching
// zone partition. Series follow an annual sinusoid over day-of-year with
// seeded Gaussian noise and random overcast days; temperature and humidity
// are correlated with irradiance. Output is deterministic per seed.
type Generator struct {
	config *GeneratorConfig
	log    *zap.Logger
}

// NewGenerator creates a new synthetic climate generator
func NewGenerator(config *GeneratorConfig, log *zap.Logger) *Generator {
	return &Generator{
		config: config,
		log:    log,
	}
}

// Generate writes one CSV per location under <out>/climate and, when
// configured, a zones GeoJSON with one cell per location.
func (g *Generator) Generate(ctx context.Context) (*Summary, error) {
	if g.config.Locations <= 0 {
		return nil, fmt.Errorf("locations must be positive, got %d", g.config.Locations)
	}
	if g.config.Days <= 0 {
		return nil, fmt.Errorf("days must be positive, got %d", g.config.Days)
	}

	climateDir := filepath.Join(g.config.OutDir, "climate")
	if err := os.MkdirAll(climateDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating climate dir: %w", err)
	}

	cells := g.layoutGrid()
	for i, cell := range cells {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// One rng per location so a file's content does not depend on how
		// many locations were requested.
		rng := rand.New(rand.NewSource(g.config.Seed + int64(i)*7919))
		path := filepath.Join(climateDir, cell.ID+".csv")
		if err := g.writeSeries(path, cell.ID, rng); err != nil {
			return nil, fmt.Errorf("writing %s: %w", path, err)
		}
		g.log.Debug("Wrote climate series",
			zap.String("location_id", cell.ID),
			zap.Float64("lat", cell.CentroidLat),
			zap.Float64("lon", cell.CentroidLon),
		)
	}

	summary := &Summary{
		ClimateFiles: len(cells),
		ClimateDir:   climateDir,
	}

	if g.config.WriteZones {
		zonesFile := filepath.Join(g.config.OutDir, "zones.geojson")
		writer := file.NewZonesGeoJSON(zonesFile, g.log)
		if err := writer.Write(ctx, cells); err != nil {
			return nil, fmt.Errorf("writing zones: %w", err)
		}
		summary.ZonesFile = zonesFile
	}

	g.log.Info("Generation finished",
		zap.Int("locations", len(cells)),
		zap.Int("days", g.config.Days),
		zap.Int64("seed", g.config.Seed),
	)
	return summary, nil
}

// layoutGrid places the locations on a near-square grid around the center,
// one square zone per location.
func (g *Generator) layoutGrid() []domain.Zone {
	side := int(math.Ceil(math.Sqrt(float64(g.config.Locations))))
	latStep := g.config.CellKM / kmPerDegree
	lonStep := g.config.CellKM / (kmPerDegree * math.Cos(g.config.CenterLat*math.Pi/180))

	cells := make([]domain.Zone, 0, g.config.Locations)
	for i := 0; i < g.config.Locations; i++ {
		row := i / side
		col := i % side
		lat := g.config.CenterLat + (float64(row)-float64(side-1)/2)*latStep
		lon := g.config.CenterLon + (float64(col)-float64(side-1)/2)*lonStep

		id := fmt.Sprintf("%s-%04d", g.config.IDPrefix, i+1)
		halfLat := latStep / 2
		halfLon := lonStep / 2
		cells = append(cells, domain.Zone{
			ID:                       id,
			Label:                    fmt.Sprintf("Cell %d", i+1),
			RepresentativeLocationID: id,
			CentroidLat:              lat,
			CentroidLon:              lon,
			Geometry: orb.Polygon{orb.Ring{
				{lon - halfLon, lat - halfLat},
				{lon + halfLon, lat - halfLat},
				{lon + halfLon, lat + halfLat},
				{lon - halfLon, lat + halfLat},
				{lon - halfLon, lat - halfLat},
			}},
		})
	}
	return cells
}

// writeSeries writes one location's daily series in the pipeline's input
// format: location_id, date, ghi_whm2, t2m_c, ws10_ms, rh2m_pct.
func (g *Generator) writeSeries(path, locationID string, rng *rand.Rand) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"location_id", "date", "ghi_whm2", "t2m_c", "ws10_ms", "rh2m_pct"}); err != nil {
		return err
	}

	// Sites differ by a few percent in their irradiance resource.
	siteFactor := 1 + (rng.Float64()-0.5)*0.06

	for d := 0; d < g.config.Days; d++ {
		date := g.config.Start.AddDate(0, 0, d)
		doy := float64(date.YearDay())
		// Peaks near the June solstice, troughs near the December one.
		season := math.Sin(2 * math.Pi * (doy - 81) / 365.25)

		ghi := (5200 + 900*season) * siteFactor
		ghi += rng.NormFloat64() * 450
		overcast := rng.Float64() < 0.12
		if overcast {
			ghi *= 0.35 + 0.30*rng.Float64()
		}
		ghi = clamp(ghi, 0, 8000)

		t2m := 23.5 + 3.5*season + 2.0*(ghi/5200-1) + rng.NormFloat64()*1.2
		ws10 := math.Max(0.2, 2.6+0.8*math.Sin(2*math.Pi*(doy-150)/365.25)+rng.NormFloat64()*0.9)
		rh2m := 62 - 8*season + rng.NormFloat64()*7
		if overcast {
			rh2m += 18
		}
		rh2m = clamp(rh2m, 15, 100)

		row := []string{
			locationID,
			date.Format("2006-01-02"),
			strconv.FormatFloat(ghi, 'f', 1, 64),
			strconv.FormatFloat(t2m, 'f', 1, 64),
			strconv.FormatFloat(ws10, 'f', 1, 64),
			strconv.FormatFloat(rh2m, 'f', 1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
