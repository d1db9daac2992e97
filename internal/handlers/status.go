package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/walfleet/walfleet/internal/models"
)

// GetStatus reports the worker state, fleet shape, and task load
func (h *Handler) GetStatus(c *fiber.Ctx) error {
	vols, err := h.worker.Volumes(c.Context())
	if err != nil {
		h.logger.Error("Failed to list volumes for status", "error", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "ARCHIVE_UNAVAILABLE",
				Message: "Failed to reach archive server: " + err.Error(),
				Path:    c.Path(),
			},
		})
	}

	return c.JSON(models.StatusResponse{
		Status:             "running",
		Archive:            h.worker.Archive().String(),
		Targets:            h.worker.Targets(),
		Volumes:            len(vols),
		RunningTasks:       h.scheduler.RunningCount(),
		MaxConcurrentTasks: h.cfg.General.MaxConcurrentTasks,
		Uptime:             time.Since(h.startedAt).Round(time.Second).String(),
		Version:            version,
	})
}
