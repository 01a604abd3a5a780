package domain

import (
	"fmt"
	"time"
)

// DataGapError reports a calendar gap in a climate series that exceeds the
// configured forward-fill tolerance.
type DataGapError struct {
	LocationID string
	From       time.Time
	To         time.Time
	Days       int
}

func (e *DataGapError) Error() string {
	return fmt.Sprintf("data gap for location %s: %d missing days between %s and %s",
		e.LocationID, e.Days, e.From.Format("2006-01-02"), e.To.Format("2006-01-02"))
}

// InsufficientDataError reports a series too short to build the configured
// lag and rolling features.
type InsufficientDataError struct {
	LocationID string
	Have       int
	Need       int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for location %s: have %d days, need %d", e.LocationID, e.Have, e.Need)
}

// SchemaMismatchError reports a feature-set mismatch between a fitted model
// and the rows submitted for fit, predict or evaluate.
type SchemaMismatchError struct {
	Want []string
	Got  []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("feature schema mismatch: want %v, got %v", e.Want, e.Got)
}

// MissingZoneDataError reports a zone with no mapped climate series and no
// configured fallback.
type MissingZoneDataError struct {
	ZoneID     string
	LocationID string
}

func (e *MissingZoneDataError) Error() string {
	if e.LocationID == "" {
		return fmt.Sprintf("zone %s has no mapped climate series", e.ZoneID)
	}
	return fmt.Sprintf("zone %s has no climate series for location %s", e.ZoneID, e.LocationID)
}

// OutOfCoverageError reports a query point outside the covered region.
type OutOfCoverageError struct {
	Lat        float64
	Lon        float64
	DistanceKM float64
}

func (e *OutOfCoverageError) Error() string {
	return fmt.Sprintf("point (%.4f, %.4f) is outside the covered region by %.1f km", e.Lat, e.Lon, e.DistanceKM)
}
