package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/inventario/internal/app"
	"github.com/odyssey-erp/inventario/internal/auth"
	"github.com/odyssey-erp/inventario/internal/catalog"
	"github.com/odyssey-erp/inventario/internal/inventory"
	"github.com/odyssey-erp/inventario/internal/observability"
	"github.com/odyssey-erp/inventario/internal/platform/cache"
	"github.com/odyssey-erp/inventario/internal/platform/db"
	"github.com/odyssey-erp/inventario/internal/products"
	"github.com/odyssey-erp/inventario/internal/shared"
	"github.com/odyssey-erp/inventario/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if cfg.PGAutoMigrate {
		if err := db.Migrate(ctx, cfg.PGDSN); err != nil {
			logger.Error("apply migrations", slog.Any("error", err))
			os.Exit(1)
		}
	}

	dbpool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	sessionManager := shared.NewSessionManager(redisClient, "inventario_session", cfg.SessionTTL)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)

	authService := auth.NewService(auth.NewRepository(dbpool), sessionManager)
	authHandler := auth.NewHandler(logger, authService)

	productRepo := products.NewRepository(dbpool)
	productService := products.NewService(productRepo)
	productHandler := products.NewHandler(logger, productService)

	catalogService := catalog.NewService(catalog.NewRepository(dbpool), productRepo)
	catalogHandler := catalog.NewHandler(logger, catalogService)

	inventoryService := inventory.NewService(inventory.NewRepository(dbpool), inventory.ServiceConfig{
		Idempotency: idempotencyStore,
		Cache:       inventory.NewSummaryCache(redisClient, cfg.SummaryCacheTTL),
		Metrics:     metrics.Ledger(),
		Logger:      logger,
	})
	inventoryHandler := inventory.NewHandler(logger, inventoryService)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, jobClient, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		SessionManager:   sessionManager,
		AuthHandler:      authHandler,
		ProductsHandler:  productHandler,
		CatalogHandler:   catalogHandler,
		InventoryHandler: inventoryHandler,
		JobHandler:       jobHandler,
		Metrics:          metrics,
		Readiness: map[string]app.ReadinessCheck{
			"postgres": dbpool.Ping,
			"redis": func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
		},
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
