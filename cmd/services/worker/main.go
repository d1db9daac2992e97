package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/walfleet/walfleet/internal/checkpoint"
	"github.com/walfleet/walfleet/internal/command"
	"github.com/walfleet/walfleet/internal/config"
	"github.com/walfleet/walfleet/internal/controller"
	"github.com/walfleet/walfleet/internal/events"
	"github.com/walfleet/walfleet/internal/fleet"
	"github.com/walfleet/walfleet/internal/history"
	"github.com/walfleet/walfleet/internal/logging"
	"github.com/walfleet/walfleet/internal/router"
	"github.com/walfleet/walfleet/internal/worker"
)

var (
	Version   = "dev"     // Injected via ldflags during build
	GitCommit = "unknown" // Injected via ldflags during build
	BuildTime = "unknown" // Injected via ldflags during build
)

// workerLayout assembles the servers the worker drives. A worker config
// usually lists no storage or proxy servers, so the layout is built from
// the general section plus the replication targets rather than the fleet
// section.
func workerLayout(cfg *config.Config) fleet.Layout {
	archive := []fleet.Server{cfg.ArchiveServer()}
	targets := cfg.ReplTargets()
	for _, name := range cfg.ReplTargetNames() {
		archive = append(archive, targets[name])
	}
	return fleet.Layout{Archive: archive}
}

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobal(logger)
	logger.Info("Worker service starting...",
		"version", Version, "commit", GitCommit, "build time", BuildTime)
	logger.Info("Maintaining archive", "archive", cfg.ArchiveServer().String(),
		"targets", cfg.ReplTargetNames())

	// Admin command runner for the archive fleet
	runner := command.NewExecRunner(cfg.General.ControllerPath, cfg.General.CommandTimeout)
	walbc := controller.New(runner, workerLayout(cfg))

	// Checkpoint store for merge/replication watermarks
	logger.Info("Opening checkpoint store", "type", cfg.Checkpoint.Type)
	store, err := checkpoint.NewStore(cfg.Checkpoint)
	if err != nil {
		logger.Fatal("Failed to open checkpoint store", "error", err)
	}
	defer func() { _ = store.Close() }()

	// Task event publisher (configurable backend)
	logger.Info("Connecting event publisher", "type", cfg.Events.Type)
	publisher, err := events.NewPublisher(cfg.Events)
	if err != nil {
		logger.Fatal("Failed to connect event publisher", "error", err)
	}
	defer func() { _ = publisher.Close() }()
	emitter := events.NewEmitter(publisher)

	// Log authentication status
	if cfg.Auth.Enabled {
		logger.Info("API key authentication enabled", "num_keys", len(cfg.Auth.APIKeys))
	} else {
		logger.Warn("API key authentication DISABLED - all requests will be allowed")
	}

	// Worker, scheduler, status server
	w := worker.New(cfg, walbc, store)
	hist := history.NewRing(cfg.History.Size)
	sched := worker.NewScheduler(w, emitter, hist)
	app := router.New(logger, cfg, w, sched, hist)

	// Run the maintenance loop until shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		sched.Run(ctx)
	}()

	// Start server in goroutine
	go func() {
		addr := cfg.HTTPAddr()
		logger.Info("Server listening", "address", addr)
		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	// Stop selecting new tasks, then let running ones drain
	cancel()
	<-schedDone

	// Graceful shutdown with 10 second timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Worker exited")
}
