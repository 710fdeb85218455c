package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// unmatchedRoute labels requests that no chi route accepted, so random
// paths cannot grow the label set.
const unmatchedRoute = "unmatched"

// Metrics owns the process registry plus the HTTP and reconcile collectors.
type Metrics struct {
	registry *prometheus.Registry
	handler  http.Handler

	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	inFlight  prometheus.Gauge
	reconcile *prometheus.CounterVec
	unknown   *prometheus.CounterVec
}

// NewMetrics builds a fresh registry with Go runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lotledger_http_requests_total",
			Help: "HTTP requests by route pattern, method and status code.",
		}, []string{"route", "method", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lotledger_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2, 5},
		}, []string{"route"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lotledger_http_requests_in_flight",
			Help: "HTTP requests currently being served.",
		}),
		reconcile: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lotledger_reconcile_total",
			Help: "Reconcile calls by dataset and outcome.",
		}, []string{"dataset", "outcome"}),
		unknown: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lotledger_reconcile_unknown_invoices_total",
			Help: "Invoice ids passed to reconcile that matched no sale or purchase.",
		}, []string{"dataset"}),
	}
	m.registry.MustRegister(m.requests, m.latency, m.inFlight, m.reconcile, m.unknown,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m.handler = promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
	return m
}

// Handler serves the registry in the Prometheus exposition format. A nil
// Metrics answers 503.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registerer exposes the registry for job metrics.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

// Gatherer exposes the registry for tests and push-style exporters.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return prometheus.DefaultGatherer
	}
	return m.registry
}

// Middleware records one sample per request, labelled with the chi route
// pattern resolved after the handler ran.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.inFlight.Inc()
		defer m.inFlight.Dec()

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := routeLabel(r)
		m.requests.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
		m.latency.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// RecordReconcile counts one reconcile call and the unknown ids it carried.
func (m *Metrics) RecordReconcile(datasetID, outcome string, unknown int) {
	if m == nil {
		return
	}
	m.reconcile.WithLabelValues(datasetID, outcome).Inc()
	if unknown > 0 {
		m.unknown.WithLabelValues(datasetID).Add(float64(unknown))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if !r.wroteHeader {
		r.status = status
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func routeLabel(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return unmatchedRoute
	}
	if pattern := rctx.RoutePattern(); pattern != "" && pattern != "/*" {
		return pattern
	}
	return unmatchedRoute
}
