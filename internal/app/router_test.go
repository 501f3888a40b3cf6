package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/inventario/internal/auth"
	"github.com/odyssey-erp/inventario/internal/catalog"
	"github.com/odyssey-erp/inventario/internal/inventory"
	"github.com/odyssey-erp/inventario/internal/observability"
	"github.com/odyssey-erp/inventario/internal/products"
	"github.com/odyssey-erp/inventario/internal/shared"
	"github.com/odyssey-erp/inventario/jobs"
)

type routerFixture struct {
	handler  http.Handler
	sessions *shared.SessionManager
}

func newRouterFixture(t *testing.T, readiness map[string]ReadinessCheck) routerFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessions := shared.NewSessionManager(client, "test_session", time.Hour)
	cfg := &Config{
		AppEnv:             "test",
		AppRequestTimeout:  5 * time.Second,
		CORSAllowedOrigins: []string{"http://localhost:5173"},
		RateLimitPerMinute: 1000,
	}

	handler := NewRouter(RouterParams{
		Logger:           logger,
		Config:           cfg,
		SessionManager:   sessions,
		AuthHandler:      auth.NewHandler(logger, auth.NewService(nil, sessions)),
		ProductsHandler:  products.NewHandler(logger, products.NewService(nil)),
		CatalogHandler:   catalog.NewHandler(logger, catalog.NewService(nil, nil)),
		InventoryHandler: inventory.NewHandler(logger, inventory.NewService(nil, inventory.ServiceConfig{})),
		JobHandler:       jobs.NewHandler(nil, nil, logger),
		Metrics:          observability.NewMetrics(),
		Readiness:        readiness,
	})
	return routerFixture{handler: handler, sessions: sessions}
}

func (f routerFixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthzIsPublic(t *testing.T) {
	f := newRouterFixture(t, nil)
	rec := f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestReadinessReportsFailingDependency(t *testing.T) {
	f := newRouterFixture(t, map[string]ReadinessCheck{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	})
	rec := f.do(httptest.NewRequest(http.MethodGet, "/readyz", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, map[string]string{"postgres": "up", "redis": "down"}, body)
}

func TestBusinessRoutesRequireSession(t *testing.T) {
	f := newRouterFixture(t, nil)
	for _, path := range []string{"/products", "/categories", "/brands", "/sales", "/sales/summary", "/jobs/health", "/auth/me"} {
		rec := f.do(httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code, path)
		require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"), path)
	}

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	require.Equal(t, http.StatusUnauthorized, f.do(req).Code)
}

func TestSessionGrantsAccess(t *testing.T) {
	f := newRouterFixture(t, nil)
	sess, err := f.sessions.Create(context.Background(), 7, "admin")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+sess.Token)
	rec := f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"username":"admin"`)

	req = httptest.NewRequest(http.MethodGet, "/jobs/health", nil)
	req.Header.Set("Authorization", "Bearer "+sess.Token)
	require.Equal(t, http.StatusOK, f.do(req).Code)
}

func TestCORSPreflight(t *testing.T) {
	f := newRouterFixture(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/sales", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Idempotency-Key")
	rec := f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Idempotency-Key")

	req = httptest.NewRequest(http.MethodOptions, "/sales", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = f.do(req)
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Methods"))
}

func TestMetricsEndpointExposesHTTPCounters(t *testing.T) {
	f := newRouterFixture(t, nil)
	f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))

	rec := f.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "inventario_http_requests_total")
}
