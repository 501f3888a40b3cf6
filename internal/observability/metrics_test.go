package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestHandlerExposesLedgerAndRuntimeMetrics(t *testing.T) {
	m := NewMetrics()
	m.Ledger().SaleRecorded(3)

	body := scrape(t, m)
	require.Contains(t, body, "inventario_units_sold_total 3")
	require.Contains(t, body, "go_goroutines")
}

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	m := NewMetrics()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, path := range []string{"/products/1", "/products/2"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusTeapot, rec.Code)
	}

	require.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/products/{id}", "418")))
	require.Equal(t, 0.0, testutil.ToFloat64(m.inFlight))
	require.Contains(t, scrape(t, m), `inventario_http_request_duration_seconds_bucket{method="GET",route="/products/{id}"`)
}

func TestMiddlewareWithoutRouteContext(t *testing.T) {
	m := NewMetrics()
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	req := httptest.NewRequest(http.MethodPost, "/raw", nil).WithContext(context.Background())
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodPost, "unmatched", "201")))
}

func TestNilMetricsPassThrough(t *testing.T) {
	var m *Metrics
	called := false
	m.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.True(t, called)
	require.Nil(t, m.Ledger())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestLedgerMetricsCounters(t *testing.T) {
	m := NewLedgerMetrics(prometheus.NewRegistry())

	m.SaleRecorded(2)
	m.SaleRecorded(5)
	m.SaleDeleted("by_name")
	m.SaleRejected(ReasonInsufficientStock)
	m.SaleRejected(ReasonInsufficientStock)

	require.Equal(t, 2.0, testutil.ToFloat64(m.sales))
	require.Equal(t, 7.0, testutil.ToFloat64(m.units))
	require.Equal(t, 1.0, testutil.ToFloat64(m.deletions.WithLabelValues("by_name")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.rejections.WithLabelValues(ReasonInsufficientStock)))

	var nilMetrics *LedgerMetrics
	require.NotPanics(t, func() { nilMetrics.SaleRecorded(1) })
}
