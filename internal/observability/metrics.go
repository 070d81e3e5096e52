package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Session lifecycle events tracked by the sessions counter.
const (
	EventStarted   = "started"
	EventSaved     = "saved"
	EventDiscarded = "discarded"
	EventReset     = "reset"
	EventSwept     = "swept"
)

// Metrics collects the Prometheus metrics for the application.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	sessions        *prometheus.CounterVec
	staging         *prometheus.CounterVec
	saveFailures    *prometheus.CounterVec
}

// NewMetrics initialises the registry and the base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orderbench_http_requests_total",
		Help: "HTTP requests partitioned by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "orderbench_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	sessions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orderbench_edit_sessions_total",
		Help: "Edit session lifecycle events.",
	}, []string{"event"})
	staging := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orderbench_staged_operations_total",
		Help: "Staging operations partitioned by kind and outcome.",
	}, []string{"op", "outcome"})
	saveFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orderbench_save_failures_total",
		Help: "Failed save attempts partitioned by reason.",
	}, []string{"reason"})
	registry.MustRegister(requests, duration, sessions, staging, saveFailures)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		sessions:        sessions,
		staging:         staging,
		saveFailures:    saveFailures,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// AddSessionEvent counts an edit session lifecycle event.
func (m *Metrics) AddSessionEvent(event string) {
	if m == nil {
		return
	}
	m.sessions.WithLabelValues(event).Inc()
}

// AddStagingResult counts a staging operation and whether it was accepted.
func (m *Metrics) AddStagingResult(op string, staged bool) {
	if m == nil {
		return
	}
	outcome := "staged"
	if !staged {
		outcome = "rejected"
	}
	m.staging.WithLabelValues(op, outcome).Inc()
}

// AddSaveFailure counts a failed save attempt by reason.
func (m *Metrics) AddSaveFailure(reason string) {
	if m == nil {
		return
	}
	m.saveFailures.WithLabelValues(reason).Inc()
}

// Registerer exposes the registry so callers can add their own metrics.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
