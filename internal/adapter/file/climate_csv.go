package file

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/urjalabs/solatlas/internal/domain"
	"github.com/urjalabs/solatlas/internal/ports"
)

// climateColumns are the required columns of per-location climate files.
var climateColumns = []string{"location_id", "date", "ghi_whm2", "t2m_c", "ws10_ms", "rh2m_pct"}

type ClimateCSV struct {
	dir string
	log *zap.Logger
}

// NewClimateCSV reads one CSV file per location from dir, named
// <location_id>.csv.
func NewClimateCSV(dir string, log *zap.Logger) ports.ClimateSource {
	return &ClimateCSV{
		dir: dir,
		log: log,
	}
}

func (s *ClimateCSV) Load(ctx context.Context) (map[string][]domain.ClimateRecord, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read climate dir: %w", err)
	}

	series := make(map[string][]domain.ClimateRecord)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".csv" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		locationID := strings.TrimSuffix(entry.Name(), ".csv")
		records, err := s.loadFile(filepath.Join(s.dir, entry.Name()), locationID)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", entry.Name(), err)
		}
		series[locationID] = records
	}

	s.log.Info("Loaded climate files", zap.String("dir", s.dir), zap.Int("locations", len(series)))
	return series, nil
}

func (s *ClimateCSV) loadFile(path, locationID string) ([]domain.ClimateRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range climateColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	var records []domain.ClimateRecord
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line+1, err)
		}
		line++

		date, err := time.Parse("2006-01-02", strings.TrimSpace(row[cols["date"]]))
		if err != nil {
			return nil, fmt.Errorf("line %d: bad date %q: %w", line, row[cols["date"]], err)
		}
		rec := domain.ClimateRecord{
			LocationID: locationID,
			Date:       domain.Day(date),
		}
		if rec.GHIWhm2, err = parseField(row, cols, "ghi_whm2"); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if rec.T2MC, err = parseField(row, cols, "t2m_c"); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if rec.WS10MS, err = parseField(row, cols, "ws10_ms"); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if rec.RH2MPct, err = parseField(row, cols, "rh2m_pct"); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseField(row []string, cols map[string]int, name string) (float64, error) {
	raw := strings.TrimSpace(row[cols[name]])
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("bad %s %q: %w", name, raw, err)
	}
	return v, nil
}
