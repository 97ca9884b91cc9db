// Package http exposes the pulse API over REST. Every response uses the
// success envelope: {"success": true, "data": ...} on success and
// {"success": false, "error": KIND, "message": ...} on failure.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/localpulse/pulse-service/internal/models"
	"github.com/localpulse/pulse-service/internal/observability"
	"github.com/localpulse/pulse-service/internal/pulse"
)

// Pulser is the orchestrator surface the handlers need. Implemented by
// pulse.Orchestrator.
type Pulser interface {
	ForPlace(ctx context.Context, place string) (models.PulseSnapshot, error)
	ForCoordinates(ctx context.Context, lat, lon float64) (models.PulseSnapshot, error)
	ForUser(ctx context.Context, userID string) (models.PulseSnapshot, error)
	Refresh(ctx context.Context, place string) (models.PulseSnapshot, error)
	Health() map[string]pulse.SourceHealth
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	pulser       Pulser
	logger       *zap.Logger
	startTime    time.Time
	shuttingDown atomic.Bool
}

// NewHandler returns a new Handler.
func NewHandler(pulser Pulser, logger *zap.Logger) *Handler {
	return &Handler{
		pulser:    pulser,
		logger:    logger,
		startTime: time.Now(),
	}
}

// SetShuttingDown flips the health surface to shutting-down during graceful
// shutdown so load balancers drain the instance.
func (h *Handler) SetShuttingDown(v bool) {
	h.shuttingDown.Store(v)
}

// GetPulseByPlace handles GET /pulse/place/{name}.
func (h *Handler) GetPulseByPlace(w http.ResponseWriter, r *http.Request) {
	place := strings.TrimSpace(mux.Vars(r)["name"])
	snapshot, err := h.pulser.ForPlace(r.Context(), place)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	writeSuccess(w, snapshot)
}

// GetPulseByCoordinates handles GET /pulse/coordinates?lat=&lon=.
func (h *Handler) GetPulseByCoordinates(w http.ResponseWriter, r *http.Request) {
	lat, latErr := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if latErr != nil || lonErr != nil {
		writeEnvelope(w, http.StatusBadRequest, "INVALID_COORDINATES", "lat and lon query parameters must be numbers")
		return
	}

	snapshot, err := h.pulser.ForCoordinates(r.Context(), lat, lon)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	writeSuccess(w, snapshot)
}

// GetPulseForUser handles GET /pulse/user/{userID}.
func (h *Handler) GetPulseForUser(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]
	snapshot, err := h.pulser.ForUser(r.Context(), userID)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	writeSuccess(w, snapshot)
}

// PostRefresh handles POST /pulse/refresh/{name}: drop cached data for a
// place and rebuild the snapshot from live sources.
func (h *Handler) PostRefresh(w http.ResponseWriter, r *http.Request) {
	place := strings.TrimSpace(mux.Vars(r)["name"])
	snapshot, err := h.pulser.Refresh(r.Context(), place)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	writeSuccess(w, snapshot)
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	statusCode := http.StatusOK
	if h.shuttingDown.Load() {
		status = "shutting-down"
		statusCode = http.StatusServiceUnavailable
	}

	resp := map[string]interface{}{
		"status":        status,
		"service":       "pulse-service",
		"uptimeSeconds": int(time.Since(h.startTime).Seconds()),
		"sources":       h.pulser.Health(),
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(resp)
}

// errorKind maps a pulse-level error onto the response kind and HTTP status.
func errorKind(err error) (string, int) {
	switch {
	case errors.Is(err, pulse.ErrLocationRequired):
		return "LOCATION_REQUIRED", http.StatusBadRequest
	case errors.Is(err, pulse.ErrInvalidCoordinates):
		return "INVALID_COORDINATES", http.StatusBadRequest
	case errors.Is(err, pulse.ErrLocationNotFound):
		return "LOCATION_NOT_FOUND", http.StatusNotFound
	case errors.Is(err, pulse.ErrRateLimited):
		return "RATE_LIMIT_EXCEEDED", http.StatusTooManyRequests
	default:
		return "SERVICE_UNAVAILABLE", http.StatusServiceUnavailable
	}
}

func (h *Handler) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	kind, status := errorKind(err)
	if logger, ok := r.Context().Value(loggerKey{}).(*zap.Logger); ok && logger != nil {
		logger.Debug("pulse request failed", zap.String("kind", kind), zap.Error(err))
	}
	writeEnvelope(w, status, kind, err.Error())
}

func writeSuccess(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    data,
	})
}

func writeEnvelope(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   kind,
		"message": message,
	})
}

// writeJSON writes a JSON response with the specified HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// NewRouter assembles the full route table with middleware. The rate limiter
// may be nil to disable limiting; requestTimeout bounds the pulse routes.
func NewRouter(h *Handler, logger *zap.Logger, limiter *rate.Limiter, requestTimeout time.Duration) *mux.Router {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)

	pulseRoutes := router.PathPrefix("/pulse").Subrouter()
	pulseRoutes.Use(RateLimitMiddleware(limiter))
	pulseRoutes.Use(TimeoutMiddleware(requestTimeout))
	pulseRoutes.HandleFunc("/place/{name}", h.GetPulseByPlace).Methods(http.MethodGet)
	pulseRoutes.HandleFunc("/coordinates", h.GetPulseByCoordinates).Methods(http.MethodGet)
	pulseRoutes.HandleFunc("/user/{userID}", h.GetPulseForUser).Methods(http.MethodGet)
	pulseRoutes.HandleFunc("/refresh/{name}", h.PostRefresh).Methods(http.MethodPost)

	router.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)
	router.Handle("/metrics", observability.MetricsHandler()).Methods(http.MethodGet)
	return router
}
