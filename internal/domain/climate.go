package domain

import (
	"time"
)

// ClimateRecord is one day of observed weather for one location. Records are
// immutable once ingested and uniquely keyed by (location_id, date).
type ClimateRecord struct {
	LocationID string    `json:"location_id"`
	Date       time.Time `json:"date"`
	GHIWhm2    float64   `json:"ghi_whm2"` // daily global horizontal irradiation, Wh/m²
	T2MC       float64   `json:"t2m_c"`    // 2 m air temperature, °C
	WS10MS     float64   `json:"ws10_ms"`  // 10 m wind speed, m/s
	RH2MPct    float64   `json:"rh2m_pct"` // relative humidity, %
	Filled     bool      `json:"filled"`   // true when the day was forward-filled across a short gap
}

// EnergyDay is the simulated ground-truth energy yield of the reference
// system for one location and day. Days synthesized from gap-filled weather
// carry Valid=false and are excluded from training labels.
type EnergyDay struct {
	LocationID string    `json:"location_id"`
	Date       time.Time `json:"date"`
	EnergyKWh  float64   `json:"energy_kwh"`
	Valid      bool      `json:"valid"`
}

// Day truncates t to UTC midnight so (location_id, date) keys compare
// reliably regardless of the source timezone.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
