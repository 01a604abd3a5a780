package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/urjalabs/solatlas/internal/domain"
	"github.com/urjalabs/solatlas/internal/observability/telemetry"
	"github.com/urjalabs/solatlas/internal/ports"
)

type EstimateHandler struct {
	home      ports.HomeService
	cache     ports.Cache
	defaultKW float64
	ttl       time.Duration
	log       *zap.Logger
}

func NewEstimateHandler(home ports.HomeService, cache ports.Cache, defaultKW float64, ttl time.Duration, log *zap.Logger) *EstimateHandler {
	if defaultKW <= 0 {
		defaultKW = 10.0
	}
	return &EstimateHandler{
		home:      home,
		cache:     cache,
		defaultKW: defaultKW,
		ttl:       ttl,
		log:       log,
	}
}

func (h *EstimateHandler) Estimate(c *fiber.Ctx) error {
	start := time.Now()
	defer func() { telemetry.EstimateLatency.Observe(time.Since(start).Seconds()) }()

	lat, err := queryFloat(c, "lat")
	if err != nil {
		telemetry.EstimateRequestsTotal.WithLabelValues("invalid").Inc()
		return err
	}
	lon, err := queryFloat(c, "lon")
	if err != nil {
		telemetry.EstimateRequestsTotal.WithLabelValues("invalid").Inc()
		return err
	}
	kw := h.defaultKW
	if raw := c.Query("kw"); raw != "" {
		kw, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			telemetry.EstimateRequestsTotal.WithLabelValues("invalid").Inc()
			return fiber.NewError(fiber.StatusBadRequest, "Invalid kw: "+raw)
		}
	}

	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		telemetry.EstimateRequestsTotal.WithLabelValues("invalid").Inc()
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Coordinates out of range: lat %g, lon %g", lat, lon))
	}
	if kw <= 0 {
		telemetry.EstimateRequestsTotal.WithLabelValues("invalid").Inc()
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Installation capacity must be positive, got %g kW", kw))
	}

	// Coordinates round to ~10 m so nearby repeat queries share an entry.
	// The snapshot version in the key retires every entry on artifact reload.
	key := fmt.Sprintf("estimate:v%d:%.4f,%.4f:%.2fkw", h.home.Version(), lat, lon, kw)

	if cached, err := h.cache.Get(c.Context(), key); err == nil && cached != "" {
		var estimate domain.HomeEstimate
		if err := json.Unmarshal([]byte(cached), &estimate); err == nil {
			telemetry.EstimateRequestsTotal.WithLabelValues("ok").Inc()
			return c.JSON(estimate)
		}
	}

	estimate, err := h.home.Estimate(c.Context(), lat, lon, kw)
	if err != nil {
		var coverageErr *domain.OutOfCoverageError
		if errors.As(err, &coverageErr) {
			telemetry.EstimateRequestsTotal.WithLabelValues("out_of_coverage").Inc()
		} else {
			telemetry.EstimateRequestsTotal.WithLabelValues("error").Inc()
		}
		return err
	}

	if err := h.cache.Set(c.Context(), key, estimate, h.ttl); err != nil {
		h.log.Warn("Failed to cache estimate", zap.String("key", key), zap.Error(err))
	}

	telemetry.EstimateRequestsTotal.WithLabelValues("ok").Inc()
	return c.JSON(estimate)
}

func queryFloat(c *fiber.Ctx, name string) (float64, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Missing query parameter: "+name)
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid "+name+": "+raw)
	}
	return value, nil
}
