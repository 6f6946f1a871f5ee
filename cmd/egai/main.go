// Package main contains the entrypoint for the EnfermaFit Pro backend.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Machai17/EG-AI/internal/app"
	"github.com/Machai17/EG-AI/internal/config"
	"github.com/Machai17/EG-AI/internal/database"
	"github.com/Machai17/EG-AI/internal/gemini"
	"github.com/Machai17/EG-AI/internal/logger"
	"github.com/Machai17/EG-AI/internal/server"
	"github.com/Machai17/EG-AI/internal/session"
	"github.com/Machai17/EG-AI/internal/tasks"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop() // Ensure context cancellation is signaled before exit
	os.Exit(exitCode)
}

// run initializes and starts all application components (config, logger, db,
// AI client, session controller, HTTP server, scheduler), handles graceful
// shutdown, and returns an exit code (0 for success, 1 for failure).
func run(ctx context.Context) int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Log.Level, cfg.Log.Format)
	log.Info("Logger initialized", "level", cfg.Log.Level, "format", cfg.Log.Format)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	aiClient, err := gemini.NewClient(ctx, cfg.Gemini, log)
	if err != nil {
		log.Error("Failed to initialize Gemini client", "error", err)
		return 1
	}

	controller := session.New(log, store, aiClient)
	if err := controller.Restore(ctx); err != nil {
		log.Error("Failed to restore session from storage", "error", err)
		return 1
	}

	tDeps := tasks.TaskDeps{
		Logger:     log,
		Store:      store,
		Controller: controller,
	}
	sched := app.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))

	handler := server.NewServer(log, controller, store).Router(cfg.Server)
	application := app.NewApp(log, cfg, handler, sched)

	log.Info("Starting application...")
	runErr := application.Run(ctx) // Run blocks until context is cancelled or an error occurs
	log.Info("Application run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Application stopped due to error", "error", runErr)
		// Allow logs to flush before exiting on error
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Application stopped gracefully.")
	time.Sleep(time.Second)
	return 0
}
