package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/walfleet/walfleet/internal/models"
)

// ListVolumes reports the volumes of the archive server with their states
func (h *Handler) ListVolumes(c *fiber.Ctx) error {
	states, err := h.worker.VolumeStates(c.Context())
	if err != nil {
		h.logger.Error("Failed to list volume states", "error", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "ARCHIVE_UNAVAILABLE",
				Message: "Failed to reach archive server: " + err.Error(),
				Path:    c.Path(),
			},
		})
	}

	vols := make([]models.VolumeResponse, 0, len(states))
	for _, vs := range states {
		vols = append(vols, models.VolumeResponse{
			Name:  vs.Name,
			State: vs.State,
		})
	}

	return c.JSON(models.VolumeListResponse{
		Volumes: vols,
		Count:   len(vols),
	})
}
