package handlers

import (
	"errors"
	"io/fs"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/urjalabs/solatlas/internal/ports"
)

type ReportHandler struct {
	reports ports.ReportStore
	log     *zap.Logger
}

func NewReportHandler(reports ports.ReportStore, log *zap.Logger) *ReportHandler {
	return &ReportHandler{
		reports: reports,
		log:     log,
	}
}

// Get serves the run report of the most recent pipeline execution.
func (h *ReportHandler) Get(c *fiber.Ctx) error {
	report, err := h.reports.LoadRun(c.Context())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fiber.NewError(fiber.StatusNotFound, "No pipeline run recorded yet")
		}
		return err
	}
	if report == nil {
		return fiber.NewError(fiber.StatusNotFound, "No pipeline run recorded yet")
	}
	return c.JSON(report)
}
