package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/walfleet/walfleet/internal/models"
)

// ListTasks reports the running tasks and the recent task history
func (h *Handler) ListTasks(c *fiber.Ctx) error {
	running := h.scheduler.Running()
	infos := make([]models.TaskInfo, 0, len(running))
	for _, rt := range running {
		infos = append(infos, models.TaskInfo{
			ID:        rt.ID,
			Kind:      rt.Kind,
			Volume:    rt.Volume,
			Target:    rt.Target,
			StartedAt: rt.StartedAt.Format(time.RFC3339),
		})
	}

	records := h.hist.List()
	recent := make([]models.TaskRecord, 0, len(records))
	for _, r := range records {
		recent = append(recent, models.TaskRecord{
			ID:         r.ID,
			Kind:       r.Kind,
			Volume:     r.Volume,
			Target:     r.Target,
			Status:     r.Status,
			StartedAt:  r.StartedAt.Format(time.RFC3339),
			FinishedAt: r.FinishedAt.Format(time.RFC3339),
			Duration:   r.Duration,
			Error:      r.Error,
			Detail:     r.Detail,
		})
	}

	return c.JSON(models.TasksResponse{
		Running: infos,
		Recent:  recent,
	})
}
