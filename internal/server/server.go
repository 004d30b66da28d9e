// Package server is the HTTP surface: request validation, the ask endpoint,
// liveness and metrics. All routing semantics live behind the router.
package server

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"streamscout/internal/common/logger"
	"streamscout/internal/common/validation"
	"streamscout/internal/router"
)

const maxBodyBytes = 64 << 10

type askRequest struct {
	Text      string `json:"text"`
	SessionID string `json:"session_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
}

type errorResponse struct {
	Success bool     `json:"success"`
	Errors  []string `json:"errors"`
}

type Server struct {
	router    *router.Router
	log       logger.Logger
	version   string
	startedAt time.Time
}

func New(r *router.Router, log logger.Logger, version string) *Server {
	return &Server{
		router:    r,
		log:       log,
		version:   version,
		startedAt: time.Now(),
	}
}

// Handler builds the route table. The mux is rebuilt per call; callers hold
// onto the result.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ask", s.handleAsk)
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{
			Errors: []string{"method not allowed"},
		})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Errors: []string{"unreadable request body"},
		})
		return
	}

	violations, err := validation.ValidateAskRequest(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Errors: []string{"request body must be valid JSON"},
		})
		return
	}
	if len(violations) > 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Errors: violations})
		return
	}

	var req askRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Errors: []string{"request body must be valid JSON"},
		})
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	env := s.router.Route(r.Context(), router.Request{
		SessionID: req.SessionID,
		UserID:    req.UserID,
		Text:      req.Text,
	})

	writeJSON(w, http.StatusOK, env)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "healthy",
		"version":  s.version,
		"uptime_s": int64(time.Since(s.startedAt).Seconds()),
		"time":     time.Now().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
