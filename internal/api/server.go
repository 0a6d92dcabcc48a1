// Package api provides the HTTP server for cpupd. It exposes the
// domain hierarchy, admission evaluation, power transitions and the
// transition journal over a small JSON REST surface.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cpupd-dev/cpupd/internal/app/power"
	"github.com/cpupd-dev/cpupd/internal/health"
)

// Server is the cpupd HTTP API server.
type Server struct {
	svc            *power.Service
	checker        *health.Checker // nil until SetHealth
	metricsEnabled bool
}

// NewServer creates a new API server over the power service.
func NewServer(svc *power.Service) *Server {
	return &Server{svc: svc}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetHealth attaches a health checker; /health then reports its
// per-check statuses instead of a bare ok.
func (s *Server) SetHealth(c *health.Checker) { s.checker = c }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/version", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"version": "0.1.0"})
		})

		r.Get("/domains", s.handleListDomains)
		r.Get("/domains/{name}", s.handleGetDomain)
		r.Post("/domains/{name}/admit", s.handleAdmit)
		r.Post("/domains/{name}/power_off", s.handlePowerOff)
		r.Post("/domains/{name}/power_on", s.handlePowerOn)

		r.Get("/tolerance", s.handleGetTolerance)
		r.Put("/tolerance", s.handleSetTolerance)

		r.Post("/cpus/{cpu}/online", s.handleCpuOnline)
		r.Post("/cpus/{cpu}/wakeup", s.handleCpuWakeup)
		r.Delete("/cpus/{cpu}/wakeup", s.handleCpuClearWakeup)

		r.Get("/transitions", s.handleTransitions)
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.checker == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	statuses := s.checker.Statuses()
	code := http.StatusOK
	if !s.checker.Healthy() {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"healthy": s.checker.Healthy(),
		"checks":  statuses,
	})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    "error",
		},
	})
}
