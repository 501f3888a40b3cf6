package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/inventario/internal/auth"
	"github.com/odyssey-erp/inventario/internal/catalog"
	"github.com/odyssey-erp/inventario/internal/inventory"
	"github.com/odyssey-erp/inventario/internal/observability"
	"github.com/odyssey-erp/inventario/internal/platform/httpx"
	"github.com/odyssey-erp/inventario/internal/products"
	"github.com/odyssey-erp/inventario/internal/shared"
	"github.com/odyssey-erp/inventario/jobs"
)

// ReadinessCheck reports whether a dependency answers.
type ReadinessCheck func(ctx context.Context) error

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	SessionManager   *shared.SessionManager
	AuthHandler      *auth.Handler
	ProductsHandler  *products.Handler
	CatalogHandler   *catalog.Handler
	InventoryHandler *inventory.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
	Readiness        map[string]ReadinessCheck
}

// NewRouter constructs the chi.Router with the API defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", readinessHandler(params.Logger, params.Readiness))
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	r.Route("/auth", func(r chi.Router) {
		params.AuthHandler.MountRoutes(r)
		r.With(RequireSession(params.SessionManager, params.Logger)).Get("/me", params.AuthHandler.Me)
	})

	r.Group(func(r chi.Router) {
		r.Use(RequireSession(params.SessionManager, params.Logger))
		r.Route("/products", params.ProductsHandler.MountRoutes)
		r.Route("/categories", params.CatalogHandler.MountCategoryRoutes)
		r.Route("/brands", params.CatalogHandler.MountBrandRoutes)
		r.Route("/sales", params.InventoryHandler.MountRoutes)
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}

func readinessHandler(logger *slog.Logger, checks map[string]ReadinessCheck) http.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		report := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.Warn("readiness check failed", slog.String("dependency", name), slog.Any("error", err))
				report[name] = "down"
				status = http.StatusServiceUnavailable
				continue
			}
			report[name] = "up"
		}
		httpx.JSON(w, status, report)
	}
}
