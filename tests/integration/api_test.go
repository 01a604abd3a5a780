package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/urjalabs/solatlas/internal/adapter/cache"
	"github.com/urjalabs/solatlas/internal/adapter/file"
	"github.com/urjalabs/solatlas/internal/adapter/http/fiber/handlers"
	"github.com/urjalabs/solatlas/internal/adapter/http/fiber/middleware"
	"github.com/urjalabs/solatlas/internal/domain"
	"github.com/urjalabs/solatlas/internal/service/health"
	"github.com/urjalabs/solatlas/internal/service/home"
)

// setupAPI wires the serving stack the way cmd/server does, over a real
// artifact file written to a temp dir.
func setupAPI(t *testing.T) *fiber.App {
	t.Helper()

	tmp := t.TempDir()
	logger := zap.NewNop()
	ctx := context.Background()

	zones := fixtureZones()
	results := []domain.ZoneResult{
		{ZoneID: "TST-0001", PredictedAnnualKWh: 15400, SuitabilityScore: 100, ModelID: "mdl-1", RunID: "run-1"},
		{ZoneID: "TST-0002", PredictedAnnualKWh: 14950, SuitabilityScore: 70.5, ModelID: "mdl-1", RunID: "run-1"},
		{ZoneID: "TST-0003", PredictedAnnualKWh: 14200, SuitabilityScore: 21.3, ModelID: "mdl-1", RunID: "run-1"},
		{ZoneID: "TST-0004", PredictedAnnualKWh: 13875, SuitabilityScore: 0, ModelID: "mdl-1", RunID: "run-1"},
	}

	artifact := file.NewArtifact(filepath.Join(tmp, "suitability_solar.geojson"), logger)
	if err := artifact.Write(ctx, zones, results); err != nil {
		t.Fatalf("Failed to write artifact: %v", err)
	}

	homeService := home.NewService(artifact, 25, logger)
	if err := homeService.Reload(ctx); err != nil {
		t.Fatalf("Failed to load artifact: %v", err)
	}

	reports := file.NewReportStore(filepath.Join(tmp, "reports"), logger)
	if err := reports.SaveRun(ctx, &domain.RunReport{
		RunID:     "run-1",
		ModelID:   "mdl-1",
		Succeeded: []string{"TST-0001", "TST-0002", "TST-0003", "TST-0004"},
	}); err != nil {
		t.Fatalf("Failed to save run report: %v", err)
	}

	estimateCache := cache.NewLocalCache(time.Minute, logger)
	healthService := health.NewService(&health.Config{
		Version: "test",
		Cache:   estimateCache,
		Home:    homeService,
	}, logger)

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})
	health.NewFiberHandler(healthService).RegisterRoutes(app)

	v1 := app.Group("/api/v1")
	zonesHandler := handlers.NewZonesHandler(zones, file.NewZoneResults(artifact, logger), logger)
	v1.Get("/zones", zonesHandler.List)
	v1.Get("/zones/:id", zonesHandler.Get)
	v1.Get("/estimate", handlers.NewEstimateHandler(homeService, estimateCache, 10, time.Minute, logger).Estimate)
	v1.Get("/report", handlers.NewReportHandler(reports, logger).Get)

	return app
}

// TestAPI_Zones reads the scored table through the HTTP surface.
func TestAPI_Zones(t *testing.T) {
	app := setupAPI(t)

	t.Run("List", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/zones", nil)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("Failed to make request: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", resp.StatusCode)
		}

		var rows []struct {
			ZoneID           string  `json:"zone_id"`
			Label            string  `json:"label"`
			SuitabilityScore float64 `json:"suitability_score"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if len(rows) != 4 {
			t.Fatalf("Expected 4 rows, got %d", len(rows))
		}
		if rows[0].ZoneID != "TST-0001" || rows[0].Label != "Cell 1" {
			t.Errorf("Expected TST-0001 labeled Cell 1 first, got %+v", rows[0])
		}
	})

	t.Run("GetByID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/zones/TST-0002", nil)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("Failed to make request: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", resp.StatusCode)
		}

		var row struct {
			ZoneID           string  `json:"zone_id"`
			SuitabilityScore float64 `json:"suitability_score"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&row); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if row.ZoneID != "TST-0002" || row.SuitabilityScore != 70.5 {
			t.Errorf("Expected TST-0002 with score 70.5, got %+v", row)
		}
	})

	t.Run("UnknownZone", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/zones/TST-9999", nil)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("Failed to make request: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", resp.StatusCode)
		}
	})
}

// TestAPI_Estimate covers the point-estimate endpoint end to end.
func TestAPI_Estimate(t *testing.T) {
	app := setupAPI(t)
	zones := fixtureZones()

	t.Run("InsideZone", func(t *testing.T) {
		url := "/api/v1/estimate?lat=" + formatCoord(zones[0].CentroidLat) + "&lon=" + formatCoord(zones[0].CentroidLon) + "&kw=5"
		req := httptest.NewRequest(http.MethodGet, url, nil)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("Failed to make request: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", resp.StatusCode)
		}

		var estimate domain.HomeEstimate
		if err := json.NewDecoder(resp.Body).Decode(&estimate); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if estimate.ZoneID != "TST-0001" {
			t.Errorf("Expected zone TST-0001, got %s", estimate.ZoneID)
		}
		if estimate.Matched != "contains" {
			t.Errorf("Expected a containment match, got %q", estimate.Matched)
		}
		if estimate.EstimatedKWh != 7700 {
			t.Errorf("Expected 7700 kWh for 5 kW, got %.1f", estimate.EstimatedKWh)
		}
	})

	t.Run("MissingParams", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/estimate?lon=77.59", nil)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("Failed to make request: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", resp.StatusCode)
		}
	})

	t.Run("OutOfCoverage", func(t *testing.T) {
		// Mumbai is far beyond the coverage margin.
		req := httptest.NewRequest(http.MethodGet, "/api/v1/estimate?lat=19.0760&lon=72.8777", nil)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("Failed to make request: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusUnprocessableEntity {
			t.Errorf("Expected status 422, got %d", resp.StatusCode)
		}
	})
}

// TestAPI_Report serves the latest run report.
func TestAPI_Report(t *testing.T) {
	app := setupAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/report", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var report domain.RunReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if report.RunID != "run-1" {
		t.Errorf("Expected run-1, got %s", report.RunID)
	}
}

// TestAPI_Health checks the liveness and readiness surface.
func TestAPI_Health(t *testing.T) {
	app := setupAPI(t)

	t.Run("Full", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("Failed to make request: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", resp.StatusCode)
		}

		var body struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if body.Status != "healthy" {
			t.Errorf("Expected healthy with the artifact loaded, got %q", body.Status)
		}
	})

	t.Run("Live", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("Failed to make request: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("Expected status 200, got %d", resp.StatusCode)
		}
	})
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
