// Package admin serves the operational HTTP endpoints, health and Prometheus
// metrics, of the controller process and of the agent runner when it is
// given an admin address.
package admin

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Server wires the admin handlers
type Server struct {
	gatherer prometheus.Gatherer
	logger   zerolog.Logger
	started  time.Time
	info     map[string]string
}

// NewServer constructs a Server. info is echoed by /healthz.
func NewServer(gatherer prometheus.Gatherer, logger zerolog.Logger, info map[string]string) *Server {
	return &Server{
		gatherer: gatherer,
		logger:   logger,
		started:  time.Now(),
		info:     info,
	}
}

// Routes builds the admin router
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Uptime string            `json:"uptime"`
	Info   map[string]string `json:"info,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{
		Status: "ok",
		Uptime: time.Since(s.started).Round(time.Second).String(),
		Info:   s.info,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}
