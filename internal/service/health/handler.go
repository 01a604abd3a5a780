package health

import (
	"github.com/gofiber/fiber/v2"
)

// FiberHandler creates Fiber routes for health checks
type FiberHandler struct {
	service *Service
}

// NewFiberHandler creates a new Fiber health handler
func NewFiberHandler(service *Service) *FiberHandler {
	return &FiberHandler{service: service}
}

// RegisterRoutes registers health check routes
func (h *FiberHandler) RegisterRoutes(app *fiber.App) {
	app.Get("/health", h.Health)
	app.Get("/health/live", h.Live)
	app.Get("/health/ready", h.Health)
}

// Health runs the dependency checks and reports the folded status. An
// unhealthy dependency turns the response into a 503.
func (h *FiberHandler) Health(c *fiber.Ctx) error {
	response := h.service.Check(c.Context())

	status := fiber.StatusOK
	if response.Status == StatusUnhealthy {
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(response)
}

// Live handles the liveness probe
func (h *FiberHandler) Live(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(h.service.Live(c.Context()))
}
