package inventory

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, repo *memoryRepo, cfg ServiceConfig) http.Handler {
	t.Helper()
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), NewService(repo, cfg))
	r := chi.NewRouter()
	r.Route("/sales", h.MountRoutes)
	return r
}

func TestHandleSellAndDelete(t *testing.T) {
	repo := newMemoryRepo(laptop())
	router := newTestRouter(t, repo, ServiceConfig{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/sales", strings.NewReader(`{"product_id":1,"quantity":2}`)))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var sold struct {
		Product struct {
			Stock    int             `json:"stock"`
			Margin   decimal.Decimal `json:"margin"`
			LowStock bool            `json:"low_stock"`
		} `json:"product"`
		Sale Sale `json:"sale"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &sold))
	require.Equal(t, 8, sold.Product.Stock)
	require.True(t, decimal.RequireFromString("66.67").Equal(sold.Product.Margin))
	require.True(t, decimal.NewFromInt(200).Equal(sold.Sale.TotalAmount))

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/sales/1", nil))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var deleted DeleteSaleResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &deleted))
	require.True(t, deleted.Restored)
	require.Equal(t, RestoreDirect, deleted.Path)
	require.Equal(t, 10, repo.stock(1))

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/sales/1", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandleSellErrors(t *testing.T) {
	repo := newMemoryRepo(laptop())
	router := newTestRouter(t, repo, ServiceConfig{Idempotency: &memoryIdempotency{keys: map[string]bool{}}})

	cases := []struct {
		name   string
		body   string
		key    string
		status int
	}{
		{"insufficient stock", `{"product_id":1,"quantity":11}`, "", http.StatusUnprocessableEntity},
		{"zero quantity", `{"product_id":1,"quantity":0}`, "", http.StatusBadRequest},
		{"negative quantity", `{"product_id":1,"quantity":-3}`, "", http.StatusBadRequest},
		{"unknown product", `{"product_id":9,"quantity":1}`, "", http.StatusNotFound},
		{"malformed", `{"product_id":`, "", http.StatusBadRequest},
		{"first keyed", `{"product_id":1,"quantity":1}`, "k-1", http.StatusCreated},
		{"replayed key", `{"product_id":1,"quantity":1}`, "k-1", http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/sales", strings.NewReader(tc.body))
			if tc.key != "" {
				req.Header.Set(IdempotencyHeader, tc.key)
			}
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			require.Equal(t, tc.status, rr.Code, rr.Body.String())
		})
	}
	require.Equal(t, 9, repo.stock(1))
}

func TestHandleListSummaryAndExport(t *testing.T) {
	repo := newMemoryRepo(laptop())
	router := newTestRouter(t, repo, ServiceConfig{})
	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/sales", strings.NewReader(`{"product_id":1,"quantity":1}`)))
		require.Equal(t, http.StatusCreated, rr.Code)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/sales?from=2024-03-01&to=2024-03-01", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var list []Sale
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list, 3)
	require.Equal(t, int64(3), list[0].ID)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/sales?from=yesterday", nil))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/sales/summary", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var sum Summary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &sum))
	require.Equal(t, int64(3), sum.Units)
	require.True(t, decimal.NewFromInt(300).Equal(sum.Revenue))

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/sales/export.xlsx", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Header().Get("Content-Disposition"), ".xlsx")
	require.True(t, strings.HasPrefix(rr.Body.String(), "PK"), "xlsx is a zip container")

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/sales/2", nil))
	require.Equal(t, http.StatusOK, rr.Code)
}
