package domain

import (
	"time"

	"github.com/paulmach/orb"
)

// Zone is one cell of the fixed partition supplied as pipeline input. The
// geometry is a polygon in WGS84 lon/lat; RepresentativeLocationID names the
// climate series the zone's predictions are driven by.
type Zone struct {
	ID                       string      `json:"zone_id"`
	Label                    string      `json:"label"`
	RepresentativeLocationID string      `json:"representative_location_id"`
	CentroidLat              float64     `json:"centroid_lat"`
	CentroidLon              float64     `json:"centroid_lon"`
	Geometry                 orb.Polygon `json:"-"`
}

// ZoneResult is one row of the scored output table. The full collection,
// sorted by zone_id ascending, is the artifact the presentation layer
// consumes.
type ZoneResult struct {
	ZoneID             string    `json:"zone_id" gorm:"primaryKey;column:zone_id"`
	PredictedAnnualKWh float64   `json:"predicted_annual_kwh" gorm:"column:predicted_annual_kwh"`
	SuitabilityScore   float64   `json:"suitability_score"`
	ModelID            string    `json:"model_id"`
	RunID              string    `json:"run_id"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (ZoneResult) TableName() string { return "zone_results" }
