// Package server exposes the simulator over HTTP: factorisations, working
// period exploration, engine listing, health and Prometheus metrics.
package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	activeRequests = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shorsim_active_requests",
		Help: "Current number of requests being served",
	})
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shorsim_requests_total",
		Help: "Total number of requests received by endpoint",
	}, []string{"path"})
)

// Metrics serves the default Prometheus registry, which also holds the
// shor and transform collectors.
type Metrics struct {
	handler http.Handler
}

// NewMetrics returns the /metrics handler.
func NewMetrics() *Metrics {
	return &Metrics{handler: promhttp.Handler()}
}

// Begin records the start of a request on path.
func (m *Metrics) Begin(path string) {
	activeRequests.Inc()
	requestsTotal.WithLabelValues(path).Inc()
}

// End records the end of a request.
func (m *Metrics) End() {
	activeRequests.Dec()
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.metrics.handler.ServeHTTP(w, r)
}

func (s *Server) metricsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.metrics.Begin(r.URL.Path)
		defer s.metrics.End()
		next(w, r)
	}
}
