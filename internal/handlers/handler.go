package handlers

import (
	"time"

	"github.com/walfleet/walfleet/internal/config"
	"github.com/walfleet/walfleet/internal/history"
	"github.com/walfleet/walfleet/internal/logging"
	"github.com/walfleet/walfleet/internal/worker"
)

// version reported by the health and status endpoints.
const version = "1.0.0"

// Handler contains all HTTP handlers
type Handler struct {
	logger    *logging.Logger
	cfg       *config.Config
	worker    *worker.Worker
	scheduler *worker.Scheduler
	hist      *history.Ring
	startedAt time.Time
}

// New creates a new handler instance
func New(logger *logging.Logger, cfg *config.Config, w *worker.Worker,
	sched *worker.Scheduler, hist *history.Ring,
) *Handler {
	return &Handler{
		logger:    logger,
		cfg:       cfg,
		worker:    w,
		scheduler: sched,
		hist:      hist,
		startedAt: time.Now(),
	}
}
