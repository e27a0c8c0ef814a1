// Package webhook serves the sensor platform's fall-detection callbacks.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/danutirta/childguard_bot/internal/antares"
	"github.com/danutirta/childguard_bot/internal/model"
	"github.com/danutirta/childguard_bot/internal/notify"
	"github.com/danutirta/childguard_bot/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxBodySize = 1 << 20

// Dispatcher fans a fall alert out to the child's teachers.
type Dispatcher interface {
	Dispatch(ctx context.Context, intent model.Intent) (int, error)
}

// Server handles webhook deliveries from the sensor platform.
type Server struct {
	children   repository.ChildRepository
	sessions   repository.SessionRepository
	dispatcher Dispatcher
	logger     *zap.Logger
	mux        *http.ServeMux
	now        func() time.Time
}

// NewServer creates a Server, registers all routes, and returns it.
func NewServer(
	children repository.ChildRepository,
	sessions repository.SessionRepository,
	dispatcher Dispatcher,
	logger *zap.Logger,
) *Server {
	s := &Server{
		children:   children,
		sessions:   sessions,
		dispatcher: dispatcher,
		logger:     logger,
		mux:        http.NewServeMux(),
		now:        time.Now,
	}
	s.routes()
	return s
}

// Handler returns the http.Handler that can be passed to http.Server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /monitor", s.handleMonitor)
	s.mux.HandleFunc("POST /monitor/{device_id}", s.handleMonitor)
	s.mux.HandleFunc("GET /health", s.handleHealth)
}

// handleMonitor normalizes one sensor event and routes fall conditions to
// the child's teachers. Every recognized outcome answers 200 so the
// platform does not retry the same payload forever.
func (s *Server) handleMonitor(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		s.respondJSON(w, http.StatusInternalServerError, map[string]any{"status": "error"})
		return
	}

	event, err := antares.Normalize(body)
	switch {
	case errors.Is(err, antares.ErrInvalidJSON):
		s.logger.Warn("Webhook payload malformed", zap.Error(err))
		s.respondJSON(w, http.StatusOK, map[string]any{"status": "invalid_json"})
		return
	case errors.Is(err, antares.ErrUnrecognizedFormat):
		s.logger.Warn("Webhook payload unrecognized")
		s.respondJSON(w, http.StatusOK, map[string]any{"status": "unrecognized_format"})
		return
	case err != nil:
		s.logger.Error("Webhook normalization failed", zap.Error(err))
		s.respondJSON(w, http.StatusInternalServerError, map[string]any{"status": "error"})
		return
	}

	if event.Handshake {
		s.logger.Info("Subscription verification answered")
		s.respondJSON(w, http.StatusOK, map[string]any{"status": "subscription_verified"})
		return
	}

	// An explicitly routed device id always overrides a body-embedded one.
	deviceID := event.DeviceID
	if explicit := explicitDeviceID(r); explicit != "" {
		deviceID = explicit
	}

	if event.Condition != antares.ConditionFall {
		s.logger.Info("Condition ignored",
			zap.String("condition", event.Condition),
			zap.String("device_id", deviceID))
		s.respondJSON(w, http.StatusOK, map[string]any{
			"status":    "condition_ignored",
			"condition": event.Condition,
		})
		return
	}

	child, err := s.lookupChild(r.Context(), deviceID)
	if err != nil {
		s.logger.Error("Child lookup failed", zap.Error(err))
		s.respondJSON(w, http.StatusInternalServerError, map[string]any{"status": "error"})
		return
	}
	if child == nil {
		s.logger.Warn("Fall alert for unknown device", zap.String("device_id", deviceID))
		s.respondJSON(w, http.StatusOK, map[string]any{
			"status":    "child_not_found",
			"device_id": deviceID,
		})
		return
	}

	intent := model.Intent{
		ID:    uuid.New(),
		Kind:  model.IntentFallAlert,
		Child: child,
		When:  s.now(),
	}

	delivered, err := s.dispatcher.Dispatch(r.Context(), intent)
	switch {
	case errors.Is(err, notify.ErrNoAudience):
		s.respondJSON(w, http.StatusOK, map[string]any{
			"status":    "no_teachers_found",
			"device_id": deviceID,
		})
		return
	case err != nil:
		s.logger.Error("Fall alert dispatch failed", zap.Error(err))
		s.respondJSON(w, http.StatusInternalServerError, map[string]any{"status": "error"})
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"status":     "alert_sent",
		"condition":  event.Condition,
		"recipients": delivered,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	children, err := s.children.Count(r.Context())
	if err != nil {
		s.respondJSON(w, http.StatusInternalServerError, map[string]any{"status": "error"})
		return
	}
	open, err := s.sessions.CountActive(r.Context())
	if err != nil {
		s.respondJSON(w, http.StatusInternalServerError, map[string]any{"status": "error"})
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"status":          "healthy",
		"children":        children,
		"active_sessions": open,
		"timestamp":       s.now().Format(time.RFC3339),
	})
}

// lookupChild tolerates an empty device id, which simply resolves to no
// child.
func (s *Server) lookupChild(ctx context.Context, deviceID string) (*model.Child, error) {
	if deviceID == "" {
		return nil, nil
	}
	return s.children.GetByDeviceID(ctx, deviceID)
}

// explicitDeviceID reads the out-of-band device id sources in precedence
// order: path segment, header, query parameter.
func explicitDeviceID(r *http.Request) string {
	if id := r.PathValue("device_id"); id != "" {
		return id
	}
	if id := r.Header.Get("X-Device-Id"); id != "" {
		return id
	}
	return r.URL.Query().Get("device_id")
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.logger.Error("Failed to encode JSON response", zap.Error(err))
		}
	}
}
