// Package metrics exposes quiz flow and HTTP counters to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics implements app.Metrics on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	attempts        prometheus.Counter
	prechecks       *prometheus.CounterVec
	submissions     *prometheus.CounterVec
	refreshes       *prometheus.CounterVec
	sockets         *prometheus.GaugeVec
	requestCounter  *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		attempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quiz_attempts_started_total",
			Help: "Attempts begun from the landing screen",
		}),
		prechecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quiz_roll_checks_total",
			Help: "Roll number pre-check outcomes",
		}, []string{"outcome"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quiz_submissions_total",
			Help: "Result inserts by outcome",
		}, []string{"outcome"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quiz_leaderboard_refreshes_total",
			Help: "Leaderboard re-queries by outcome",
		}, []string{"outcome"}),
		sockets: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "quiz_open_sockets",
			Help: "Open websocket connections",
		}, []string{"kind"}),
		requestCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		}, []string{"method", "endpoint"}),
	}
	m.registry.MustRegister(
		m.attempts,
		m.prechecks,
		m.submissions,
		m.refreshes,
		m.sockets,
		m.requestCounter,
		m.requestDuration,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) AttemptStarted() {
	m.attempts.Inc()
}

func (m *Metrics) PrecheckResult(outcome string) {
	m.prechecks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SubmissionResult(outcome string) {
	m.submissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) LeaderboardRefreshed(ok bool) {
	outcome := "success"
	if !ok {
		outcome = "error"
	}
	m.refreshes.WithLabelValues(outcome).Inc()
}

// SocketOpened and SocketClosed track live websockets of a kind
// ("session", "leaderboard").
func (m *Metrics) SocketOpened(kind string) {
	m.sockets.WithLabelValues(kind).Inc()
}

func (m *Metrics) SocketClosed(kind string) {
	m.sockets.WithLabelValues(kind).Dec()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware counts requests by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		endpoint := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			endpoint = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(status)).Inc()
		m.requestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
	})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
