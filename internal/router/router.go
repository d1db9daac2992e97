package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"github.com/walfleet/walfleet/internal/config"
	"github.com/walfleet/walfleet/internal/handlers"
	"github.com/walfleet/walfleet/internal/history"
	"github.com/walfleet/walfleet/internal/logging"
	"github.com/walfleet/walfleet/internal/middleware"
	"github.com/walfleet/walfleet/internal/worker"
)

// Setup configures all routes and middlewares
func Setup(app *fiber.App, logger *logging.Logger, cfg *config.Config,
	w *worker.Worker, sched *worker.Scheduler, hist *history.Ring,
) *handlers.Handler {
	// Create handler instance
	h := handlers.New(logger, cfg, w, sched, hist)

	// Global middlewares
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-API-Key,X-Request-ID",
	}))
	app.Use(logging.FiberMiddlewareWithConfig(logger, logging.DefaultMiddlewareConfig()))

	// Health check and metrics (no auth required, scrapers send no keys)
	app.Get("/health", h.Health)
	metricsHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	app.Get("/metrics", func(c *fiber.Ctx) error {
		metricsHandler(c.Context())
		return nil
	})

	// API key authentication middleware
	authMiddleware := middleware.APIKeyAuth(logger, cfg.Auth.APIKeys, cfg.Auth.Enabled)

	// API v1 routes (protected by API key)
	v1 := app.Group("/v1", authMiddleware)

	v1.Get("/status", h.GetStatus)
	v1.Get("/tasks", h.ListTasks)
	v1.Get("/volumes", h.ListVolumes)

	// 404 handler
	app.Use(h.NotFound)

	return h
}

// New creates a new Fiber app with configuration
func New(logger *logging.Logger, cfg *config.Config, w *worker.Worker,
	sched *worker.Scheduler, hist *history.Ring,
) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Walfleet Worker",
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	Setup(app, logger, cfg, w, sched, hist)

	return app
}
