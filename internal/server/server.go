// Package server exposes the session controller to the web UI as an
// HTTP/JSON API. It carries no business logic: every state transition
// funnels through the session controller.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Machai17/EG-AI/internal/config"
	"github.com/Machai17/EG-AI/internal/database"
	"github.com/Machai17/EG-AI/internal/logger"
	"github.com/Machai17/EG-AI/internal/session"
)

// Server bundles the dependencies required by the HTTP handlers.
type Server struct {
	log        *slog.Logger
	controller *session.Controller
	store      database.Store
}

// NewServer creates a Server around the session controller and store.
func NewServer(log *slog.Logger, controller *session.Controller, store database.Store) *Server {
	return &Server{
		log:        log.With("component", "server"),
		controller: controller,
		store:      store,
	}
}

// Router builds the chi router with middleware and all API routes.
func (s *Server) Router(cfg config.ServerConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(logger.Middleware(s.log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
		r.Get("/session", s.handleSession)

		r.Post("/messages", s.handleSendMessage)
		r.Post("/messages/{messageID}/favorite", s.handleToggleFavorite)
		r.Post("/courses/{courseID}/lesson", s.handleCourseLesson)
		r.Post("/speech", s.handleSpeech)
		r.Post("/mode", s.handleSwitchMode)
		r.Patch("/settings", s.handleUpdateSettings)

		r.Get("/vitals", s.handleVitals)
		r.Get("/emergency/cpr", s.handleCPRReference)
		r.Post("/calculator/drip", s.handleDripCalculation)

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/countries", s.handleCountries)
			r.Get("/professions", s.handleProfessions)
			r.Get("/languages", s.handleLanguages)
			r.Get("/courses", s.handleCourses)
		})
	})

	return r
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("Failed to encode response", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
