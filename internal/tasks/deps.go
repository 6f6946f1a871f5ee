// Package tasks implements the application's scheduled tasks: database
// maintenance and the simulated vital-signs refresh.
package tasks

import (
	"log/slog"

	"github.com/Machai17/EG-AI/internal/database"
	"github.com/Machai17/EG-AI/internal/session"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger     *slog.Logger
	Store      database.Store
	Controller *session.Controller
}
