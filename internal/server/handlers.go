package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Machai17/EG-AI/internal/catalog"
	"github.com/Machai17/EG-AI/internal/clinical"
	"github.com/Machai17/EG-AI/internal/session"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.writeError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type loginRequest struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Country    string `json:"country"`
	Profession string `json:"profession"`
	Language   string `json:"language"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	snap, err := s.controller.Login(r.Context(), req.Name, req.Phone, req.Country, req.Profession, req.Language)
	if err != nil {
		if errors.Is(err, session.ErrEmptyInput) {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.controller.Logout(r.Context()); err != nil {
		s.writeError(w, http.StatusInternalServerError, "logout failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.controller.Snapshot())
}

type sendMessageRequest struct {
	Text     string `json:"text"`
	DeepDive bool   `json:"deepDive"`
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	reply, err := s.controller.SendMessage(r.Context(), req.Text, req.DeepDive)
	if err != nil {
		s.writeExchangeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, reply)
}

// writeExchangeError maps message-pipeline failures to HTTP status codes.
func (s *Server) writeExchangeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotAuthenticated):
		s.writeError(w, http.StatusUnauthorized, "not authenticated")
	case errors.Is(err, session.ErrEmptyInput):
		s.writeError(w, http.StatusBadRequest, "message text is empty")
	case errors.Is(err, session.ErrBusy):
		s.writeError(w, http.StatusConflict, "a message is already being processed")
	default:
		s.writeError(w, http.StatusBadGateway, "assistant is unavailable")
	}
}

func (s *Server) handleCourseLesson(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseID")
	if _, err := catalog.CourseByID(courseID); err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}

	reply, err := s.controller.StartCourseLesson(r.Context(), courseID)
	if err != nil {
		s.writeExchangeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "messageID"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid message id")
		return
	}

	msg, err := s.controller.ToggleFavorite(r.Context(), id)
	if err != nil {
		if errors.Is(err, session.ErrNotAuthenticated) {
			s.writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, msg)
}

type speechRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleSpeech(w http.ResponseWriter, r *http.Request) {
	var req speechRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	wav, err := s.controller.RequestSpeech(r.Context(), req.Text)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrNotAuthenticated):
			s.writeError(w, http.StatusUnauthorized, "not authenticated")
		case errors.Is(err, session.ErrEmptyInput):
			s.writeError(w, http.StatusBadRequest, "speech text is empty")
		default:
			s.writeError(w, http.StatusBadGateway, "speech synthesis is unavailable")
		}
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(wav); err != nil {
		s.log.Error("Failed to write audio response", "error", err)
	}
}

type switchModeRequest struct {
	Mode string `json:"mode"`
}

func (s *Server) handleSwitchMode(w http.ResponseWriter, r *http.Request) {
	var req switchModeRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	mode, err := session.ParseMode(req.Mode)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.controller.SwitchMode(mode); err != nil {
		switch {
		case errors.Is(err, session.ErrNotAuthenticated):
			s.writeError(w, http.StatusUnauthorized, "not authenticated")
		case errors.Is(err, session.ErrInvalidTransition):
			s.writeError(w, http.StatusConflict, err.Error())
		default:
			s.writeError(w, http.StatusInternalServerError, "mode switch failed")
		}
		return
	}

	s.writeJSON(w, http.StatusOK, s.controller.Snapshot())
}

type updateSettingsRequest struct {
	Language string `json:"lang,omitempty"`
	Level    string `json:"level,omitempty"`
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	if req.Language != "" {
		lang, err := catalog.ParseLanguage(req.Language)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := s.controller.SetLanguage(lang); err != nil {
			s.writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
	}

	if req.Level != "" {
		level, err := catalog.ParseStudyLevel(req.Level)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := s.controller.SetLevel(level); err != nil {
			s.writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
	}

	s.writeJSON(w, http.StatusOK, s.controller.Snapshot())
}

func (s *Server) handleVitals(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.controller.Vitals())
}

func (s *Server) handleCPRReference(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, clinical.CPRReference())
}

type dripRequest struct {
	VolumeML   float64 `json:"volumeMl"`
	TimeHours  float64 `json:"timeHours"`
	DropFactor int     `json:"dropFactor"`
}

type dripResponse struct {
	DropsPerMinute float64 `json:"dropsPerMinute"`
}

func (s *Server) handleDripCalculation(w http.ResponseWriter, r *http.Request) {
	var req dripRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	rate, err := clinical.DripRate(req.VolumeML, req.TimeHours, req.DropFactor)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, dripResponse{DropsPerMinute: rate})
}

func (s *Server) handleCountries(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, catalog.Countries)
}

func (s *Server) handleProfessions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, catalog.Professions)
}

func (s *Server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, catalog.Languages)
}

func (s *Server) handleCourses(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, catalog.Courses)
}
