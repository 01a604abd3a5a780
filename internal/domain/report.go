package domain

import (
	"time"
)

// ZoneFailure records one zone that could not be aggregated, with the reason.
type ZoneFailure struct {
	ZoneID string `json:"zone_id"`
	Reason string `json:"reason"`
}

// StageTiming records how long one pipeline stage took.
type StageTiming struct {
	Stage    string        `json:"stage"`
	Duration time.Duration `json:"duration"`
}

// RunReport is the partial-failure record of a pipeline run: every zone is
// listed exactly once, under Succeeded or Failed.
type RunReport struct {
	RunID      string        `json:"run_id"`
	ModelID    string        `json:"model_id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Stages     []StageTiming `json:"stages,omitempty"`
	Succeeded  []string      `json:"succeeded"`
	Failed     []ZoneFailure `json:"failed"`
}

// QAYearStats are the screening statistics for one location-year.
type QAYearStats struct {
	LocationID     string  `json:"location_id"`
	Year           int     `json:"year"`
	Days           int     `json:"days"`
	ZeroDays       int     `json:"zero_days"`
	AnnualKWh      float64 `json:"annual_kwh"`
	CapacityFactor float64 `json:"capacity_factor"`
	MeanDailyKWh   float64 `json:"mean_daily_kwh"`
	P5DailyKWh     float64 `json:"p5_daily_kwh"`
	P95DailyKWh    float64 `json:"p95_daily_kwh"`
	FullYear       bool    `json:"full_year"`
	Passed         bool    `json:"passed"`
	Reasons        []string `json:"reasons,omitempty"`
}

// QALocationResult is the per-location verdict: a location passes when any of
// its full years passes every check.
type QALocationResult struct {
	LocationID string        `json:"location_id"`
	Passed     bool          `json:"passed"`
	Years      []QAYearStats `json:"years"`
}

// QAReport is the full screening report for one dataset.
type QAReport struct {
	GeneratedAt time.Time          `json:"generated_at"`
	Locations   []QALocationResult `json:"locations"`
}

// Passing returns the IDs of locations that passed screening.
func (r *QAReport) Passing() []string {
	var ids []string
	for _, loc := range r.Locations {
		if loc.Passed {
			ids = append(ids, loc.LocationID)
		}
	}
	return ids
}

// CoverageReport summarizes how much of the source boundary the generated
// zone grid covers.
type CoverageReport struct {
	BoundaryKM2 float64 `json:"boundary_km2"`
	CoveredKM2  float64 `json:"covered_km2"`
	CoveragePct float64 `json:"coverage_pct"`
	Zones       int     `json:"zones"`
}
