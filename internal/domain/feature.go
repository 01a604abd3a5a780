package domain

import (
	"time"
)

// FeatureRow is one model-ready observation: the ordered feature values for a
// target date plus, when available, the day's energy label. Names and Values
// are index-aligned; the ordered name list is the row's schema. Rows built
// together share the same backing Names slice.
type FeatureRow struct {
	LocationID string    `json:"location_id"`
	Date       time.Time `json:"date"`
	Names      []string  `json:"names"`
	Values     []float64 `json:"values"`
	Label      float64   `json:"label"`
	HasLabel   bool      `json:"has_label"`
}

// SchemaOf returns the schema of the first row, or nil for an empty set.
func SchemaOf(rows []FeatureRow) []string {
	if len(rows) == 0 {
		return nil
	}
	return rows[0].Names
}

// SameSchema reports whether two schemas contain the same names in the same
// order. Feature order is part of the contract: models never reorder.
func SameSchema(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
