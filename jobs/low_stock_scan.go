package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/inventario/internal/jobs"
	"github.com/odyssey-erp/inventario/internal/products"
)

// LowStockLister returns products whose stock is at or below their minimum.
type LowStockLister interface {
	LowStock(ctx context.Context, limit int) ([]products.Product, error)
}

// LowStockScanJob reports products that need restocking.
type LowStockScanJob struct {
	Products LowStockLister
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// NewLowStockScanJob initialises the low-stock scan handler.
func NewLowStockScanJob(lister LowStockLister, logger *slog.Logger, metrics *jobmetrics.Metrics) *LowStockScanJob {
	return &LowStockScanJob{Products: lister, Logger: logger, Metrics: metrics}
}

// Handle executes the scan.
func (j *LowStockScanJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Products == nil {
		return errors.New("low stock scan: handler not configured")
	}
	var payload LowStockScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Limit <= 0 {
		payload.Limit = defaultLowStockLimit
	}

	tracker := j.Metrics.Track(TaskLowStockScan)
	defer func() { err = tracker.End(err) }()

	logger := j.logger().With(slog.Int("limit", payload.Limit))
	items, err := j.Products.LowStock(ctx, payload.Limit)
	if err != nil {
		logger.Error("low stock scan failed", slog.Any("error", err))
		return err
	}
	for _, p := range items {
		logger.Warn("product below minimum stock",
			slog.Int64("product_id", p.ID),
			slog.String("name", p.Name),
			slog.Int("stock", p.Stock),
			slog.Int("min_stock", p.MinStock),
		)
	}
	j.Metrics.SetLowStock(len(items))
	logger.Info("low stock scan completed", slog.Int("products", len(items)))
	return nil
}

func (j *LowStockScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
