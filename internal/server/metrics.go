package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/getclawkit/clawkit/internal/status"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	statusUp        *prometheus.GaugeVec
	statusLatency   *prometheus.GaugeVec
	syncedSkills    *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clawkit_http_requests_total",
			Help: "Total number of API requests.",
		}, []string{"route", "method", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "clawkit_http_request_duration_ms",
			Help:    "API request duration in milliseconds.",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
		}, []string{"route"}),
		statusUp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "clawkit_status_up",
			Help: "Whether a monitored service was operational at the last check.",
		}, []string{"service"}),
		statusLatency: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "clawkit_status_latency_ms",
			Help: "Latency of a monitored service at the last check.",
		}, []string{"service"}),
		syncedSkills: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clawkit_skills_synced_total",
			Help: "Skills processed by the sync endpoint, by outcome.",
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.requestDuration,
		m.statusUp,
		m.statusLatency,
		m.syncedSkills,
	)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// instrument records every request by its route pattern, so that IDs in the
// path do not blow up the label cardinality.
func (m *metrics) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		code := ww.Status()
		if code == 0 {
			code = http.StatusOK
		}
		m.requests.WithLabelValues(route, r.Method, strconv.Itoa(code)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(float64(time.Since(start).Milliseconds()))
	})
}

func (m *metrics) recordStatus(snap status.Snapshot) {
	for _, svc := range snap.Services {
		up := 0.0
		if svc.Status == status.Operational {
			up = 1
		}
		m.statusUp.WithLabelValues(svc.ID).Set(up)
		m.statusLatency.WithLabelValues(svc.ID).Set(float64(svc.Latency))
	}
}

func (m *metrics) recordSync(created, updated, skipped, failed int) {
	m.syncedSkills.WithLabelValues("created").Add(float64(created))
	m.syncedSkills.WithLabelValues("updated").Add(float64(updated))
	m.syncedSkills.WithLabelValues("skipped").Add(float64(skipped))
	m.syncedSkills.WithLabelValues("failed").Add(float64(failed))
}
