// Package app implements application lifecycle management and component
// orchestration: the HTTP server and the task scheduler.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/Machai17/EG-AI/internal/config"
)

// App represents the running application and manages its components' lifecycle.
type App struct {
	logger    *slog.Logger
	cfg       *config.Config
	server    *http.Server
	scheduler *Scheduler
}

// NewApp creates a new application instance wiring the HTTP server and the
// scheduler together.
func NewApp(logger *slog.Logger, cfg *config.Config, handler http.Handler, scheduler *Scheduler) *App {
	return &App{
		logger: logger.With("component", "app"),
		cfg:    cfg,
		server: &http.Server{
			Addr:    cfg.Server.Addr,
			Handler: handler,
		},
		scheduler: scheduler,
	}
}

// Run starts all components and blocks until the context is cancelled or a
// component fails. Shutdown is coordinated: the HTTP server drains within
// the configured timeout and the scheduler waits for running jobs.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("Starting application...")

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("Starting HTTP server", "addr", a.cfg.Server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("HTTP server failed", "error", err)
			return fmt.Errorf("http server failed: %w", err)
		}
		a.logger.Info("HTTP server stopped.")
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("Shutdown signal received, stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("Error during HTTP server shutdown", "error", err)
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		a.logger.Info("Starting scheduler...")
		if err := a.scheduler.Start(); err != nil {
			a.logger.Error("Failed to start scheduler", "error", err)
			return fmt.Errorf("failed to start scheduler: %w", err)
		}

		<-gCtx.Done()
		a.logger.Info("Shutdown signal received, stopping scheduler...")

		if err := a.scheduler.Stop(); err != nil {
			a.logger.Error("Error stopping scheduler", "error", err)
		}

		return nil
	})

	a.logger.Info("Application running. Waiting for shutdown signal or error...")
	err := g.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error("Application stopped due to error", "error", err)
		return err
	}

	a.logger.Info("Application stopped gracefully.")
	return nil
}
