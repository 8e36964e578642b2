package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/claude/poseflow/internal/catalog"
	"github.com/claude/poseflow/internal/models"
	"github.com/claude/poseflow/internal/practice"
)

const maxIngestBytes = 10 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Profile(r.Context(), LoginFromRequest(r))
	if err != nil {
		s.writeError(w, "get profile", err)
		return
	}
	if p == nil {
		p = &models.Profile{}
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in practice.ProfileInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	p, err := s.svc.UpdateProfile(r.Context(), LoginFromRequest(r), in)
	if err != nil {
		s.writeError(w, "update profile", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleGetStreak(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Streak(r.Context(), LoginFromRequest(r))
	if err != nil {
		s.writeError(w, "get streak", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleMarkPracticed(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.MarkPracticed(r.Context(), LoginFromRequest(r))
	if err != nil {
		s.writeError(w, "mark practiced", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleLogSession(w http.ResponseWriter, r *http.Request) {
	var in practice.SessionInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	session, err := s.svc.LogSession(r.Context(), LoginFromRequest(r), in)
	if err != nil {
		s.writeError(w, "log session", err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	limit := practice.DefaultSessionLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}
	sessions, err := s.svc.RecentSessions(r.Context(), LoginFromRequest(r), limit)
	if err != nil {
		s.writeError(w, "list sessions", err)
		return
	}
	if sessions == nil {
		sessions = []models.PracticeSession{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	recs, err := s.svc.Recommendations(r.Context(), LoginFromRequest(r))
	if err != nil {
		s.writeError(w, "recommend", err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handlePoses(w http.ResponseWriter, r *http.Request) {
	entries, err := s.svc.Poses(r.Context(), r.URL.Query().Get("difficulty"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if entries == nil {
		entries = []catalog.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// ingestRequest is the batch upload body.
type ingestRequest struct {
	Login    string                  `json:"login"`
	Sessions []practice.SessionInput `json:"sessions"`
}

func (s *Server) handleIngestSessions(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxIngestBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.Login == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "login is required"})
		return
	}

	result, err := s.svc.IngestSessions(r.Context(), req.Login, req.Sessions)
	if err != nil {
		s.writeError(w, "ingest", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// writeError maps service errors to HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	var verr *practice.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "validation failed", "fields": verr.Fields})
	case errors.Is(err, practice.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, models.ErrSessionConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		s.log.Error(op+" error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
