package domain

// HomeEstimate is the answer to an on-demand point query: the matched zone's
// annual prediction scaled to the requested installation size.
type HomeEstimate struct {
	Lat              float64 `json:"lat"`
	Lon              float64 `json:"lon"`
	InstallationKW   float64 `json:"installation_kw"`
	ZoneID           string  `json:"zone_id"`
	ZoneAnnualKWh    float64 `json:"zone_annual_kwh"`
	EstimatedKWh     float64 `json:"estimated_annual_kwh"`
	SuitabilityScore float64 `json:"suitability_score"`
	Matched          string  `json:"matched"` // "contains" or "nearest"
}
