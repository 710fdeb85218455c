package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	m := NewMetrics()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/sales/{id}/profit", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/sales/s1/profit", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/sales/s2/profit", nil))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	require.Contains(t, body, `lotledger_http_requests_total{code="404",method="GET",route="/api/sales/{id}/profit"} 2`)
	require.False(t, strings.Contains(body, "/api/sales/s1/profit"))
}

func TestMiddlewareCollapsesUnmatchedPaths(t *testing.T) {
	m := NewMetrics()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/random/a", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/random/b", nil))

	require.Equal(t, float64(2), counterValue(t, m, "lotledger_http_requests_total",
		map[string]string{"route": unmatchedRoute, "method": http.MethodGet, "code": "404"}))
}

func TestRecordReconcile(t *testing.T) {
	m := NewMetrics()
	m.RecordReconcile("business", "saved", 0)
	m.RecordReconcile("business", "dry_run", 2)
	m.RecordReconcile("business", "saved", 1)

	require.Equal(t, float64(2), counterValue(t, m, "lotledger_reconcile_total",
		map[string]string{"dataset": "business", "outcome": "saved"}))
	require.Equal(t, float64(1), counterValue(t, m, "lotledger_reconcile_total",
		map[string]string{"dataset": "business", "outcome": "dry_run"}))
	require.Equal(t, float64(3), counterValue(t, m, "lotledger_reconcile_unknown_invoices_total",
		map[string]string{"dataset": "business"}))
}

func counterValue(t *testing.T, m *Metrics, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := m.Gatherer().Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
	metrics:
		for _, metric := range family.GetMetric() {
			got := make(map[string]string, len(metric.GetLabel()))
			for _, pair := range metric.GetLabel() {
				got[pair.GetName()] = pair.GetValue()
			}
			for k, v := range labels {
				if got[k] != v {
					continue metrics
				}
			}
			return metric.GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s%v not found", name, labels)
	return 0
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	called := false
	m.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.True(t, called)
	m.RecordReconcile("business", "saved", 1)
}
