// Package api provides the HTTP server for the Eden reconciliation daemon.
// It exposes the unified timeline read-only, the four reconciliation
// commands, and the static catalog.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/algotables/Eden-Pods-POC-v3/internal/app/reconcile"
)

// Server is the Eden HTTP API server.
type Server struct {
	session        *reconcile.Session
	metricsEnabled bool
}

// NewServer creates a new API server over an owner session.
func NewServer(session *reconcile.Session) *Server {
	return &Server{session: session}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Owner session lifecycle
		r.Post("/session", s.handleStartSession)
		r.Delete("/session", s.handleEndSession)
		r.Get("/session", s.handleSessionStatus)

		// Unified view
		r.Get("/timeline", s.handleTimeline)
		r.Get("/harvests", s.handleListHarvests)
		r.Get("/notifications", s.handleNotifications)

		// Reconciliation commands
		r.Post("/refresh", s.handleRefresh)
		r.Post("/throws", s.handleSubmitThrow)
		r.Post("/throws/failed", s.handleThrowFailed)
		r.Post("/harvests", s.handleAddHarvest)
		r.Post("/harvests/confirm", s.handleConfirmHarvest)
		r.Delete("/harvests/{txid}", s.handleRemoveHarvest)

		// Static catalog
		r.Get("/catalog/pods", s.handlePodTypes)
		r.Get("/catalog/models", s.handleGrowthModels)
		r.Get("/projection", s.handleProjection)
	})

	// Prometheus metrics endpoint
	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}

// corsMiddleware adds CORS headers for local development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
