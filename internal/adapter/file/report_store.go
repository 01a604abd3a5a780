package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/urjalabs/solatlas/internal/domain"
	"github.com/urjalabs/solatlas/internal/ports"
)

const (
	runReportFile      = "run_report.json"
	qaReportFile       = "qa_report.json"
	coverageReportFile = "coverage_report.json"
	annualFile         = "annual.json"
)

// annualEnvelope records which run produced the annual totals.
type annualEnvelope struct {
	RunID  string             `json:"run_id"`
	Annual map[string]float64 `json:"annual"`
}

type ReportStore struct {
	dir string
	log *zap.Logger
}

func NewReportStore(dir string, log *zap.Logger) ports.ReportStore {
	return &ReportStore{
		dir: dir,
		log: log,
	}
}

func (s *ReportStore) SaveRun(ctx context.Context, report *domain.RunReport) error {
	return s.save(runReportFile, report)
}

func (s *ReportStore) LoadRun(ctx context.Context) (*domain.RunReport, error) {
	var report domain.RunReport
	if err := s.load(runReportFile, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (s *ReportStore) SaveQA(ctx context.Context, report *domain.QAReport) error {
	return s.save(qaReportFile, report)
}

func (s *ReportStore) LoadQA(ctx context.Context) (*domain.QAReport, error) {
	var report domain.QAReport
	if err := s.load(qaReportFile, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (s *ReportStore) SaveCoverage(ctx context.Context, report *domain.CoverageReport) error {
	return s.save(coverageReportFile, report)
}

func (s *ReportStore) SaveAnnual(ctx context.Context, runID string, annual map[string]float64) error {
	return s.save(annualFile, annualEnvelope{RunID: runID, Annual: annual})
}

func (s *ReportStore) LoadAnnual(ctx context.Context) (string, map[string]float64, error) {
	var envelope annualEnvelope
	if err := s.load(annualFile, &envelope); err != nil {
		return "", nil, err
	}
	return envelope.RunID, envelope.Annual, nil
}

func (s *ReportStore) save(name string, v interface{}) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create reports dir: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	path := filepath.Join(s.dir, name)
	if err := writeAtomic(path, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	s.log.Debug("Saved report", zap.String("path", path))
	return nil
}

// load passes the underlying os error through so callers can detect a
// missing file with errors.Is(err, fs.ErrNotExist).
func (s *ReportStore) load(name string, v interface{}) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}
