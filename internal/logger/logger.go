// Package logger provides structured logging for the application.
// It uses Go's slog package with configurable levels and formats.
package logger

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// NewLogger creates a new slog Logger with the specified level and format.
// If format is "json", logs are formatted as JSON, otherwise as text.
func NewLogger(levelStr, format string) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// Middleware creates an HTTP request-logging middleware. It logs method,
// path, status code, bytes written and duration for every request.
func Middleware(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			startTime := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			logEntry := log.With(
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)
			logEntry.DebugContext(r.Context(), "Processing request")

			next.ServeHTTP(ww, r)

			logEntry.InfoContext(r.Context(), "Finished request",
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(startTime))
		})
	}
}
