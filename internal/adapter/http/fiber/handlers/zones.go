package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/urjalabs/solatlas/internal/domain"
	"github.com/urjalabs/solatlas/internal/ports"
)

// ZoneRow is one row of the scored table as the API serves it: the result
// joined with the zone's partition metadata.
type ZoneRow struct {
	ZoneID             string    `json:"zone_id"`
	Label              string    `json:"label,omitempty"`
	CentroidLat        float64   `json:"centroid_lat"`
	CentroidLon        float64   `json:"centroid_lon"`
	PredictedAnnualKWh float64   `json:"predicted_annual_kwh"`
	SuitabilityScore   float64   `json:"suitability_score"`
	ModelID            string    `json:"model_id"`
	RunID              string    `json:"run_id"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type ZonesHandler struct {
	results ports.ZoneResultReader
	zones   map[string]domain.Zone
	log     *zap.Logger
}

// NewZonesHandler serves the scored table. The zone partition is fixed
// pipeline input, so it is passed in once at startup.
func NewZonesHandler(zones []domain.Zone, results ports.ZoneResultReader, log *zap.Logger) *ZonesHandler {
	byID := make(map[string]domain.Zone, len(zones))
	for _, z := range zones {
		byID[z.ID] = z
	}
	return &ZonesHandler{
		results: results,
		zones:   byID,
		log:     log,
	}
}

func (h *ZonesHandler) List(c *fiber.Ctx) error {
	results, err := h.results.List(c.Context())
	if err != nil {
		return err
	}

	label := c.Query("label")
	rows := make([]ZoneRow, 0, len(results))
	for i := range results {
		row := h.row(&results[i])
		if label != "" && !strings.EqualFold(row.Label, label) {
			continue
		}
		rows = append(rows, row)
	}

	return c.JSON(rows)
}

func (h *ZonesHandler) Get(c *fiber.Ctx) error {
	id := c.Params("id")
	result, err := h.results.FindByZoneID(c.Context(), id)
	if err != nil {
		return err
	}
	if result == nil {
		return fiber.NewError(fiber.StatusNotFound, "Zone not found: "+id)
	}
	return c.JSON(h.row(result))
}

func (h *ZonesHandler) row(result *domain.ZoneResult) ZoneRow {
	row := ZoneRow{
		ZoneID:             result.ZoneID,
		PredictedAnnualKWh: result.PredictedAnnualKWh,
		SuitabilityScore:   result.SuitabilityScore,
		ModelID:            result.ModelID,
		RunID:              result.RunID,
		UpdatedAt:          result.UpdatedAt,
	}
	if zone, ok := h.zones[result.ZoneID]; ok {
		row.Label = zone.Label
		row.CentroidLat = zone.CentroidLat
		row.CentroidLon = zone.CentroidLon
	}
	return row
}
