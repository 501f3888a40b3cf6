package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLowStockScan lists products at or below their minimum stock.
	TaskLowStockScan = "inventory:low_stock_scan"
	// TaskIdempotencyCleanup purges expired sell idempotency keys.
	TaskIdempotencyCleanup = "shared:idempotency_cleanup"

	defaultLowStockLimit = 500
)

// LowStockScanPayload bounds a single scan.
type LowStockScanPayload struct {
	Limit int `json:"limit"`
}

// IdempotencyCleanupPayload sets how long processed keys are kept.
type IdempotencyCleanupPayload struct {
	Retention time.Duration `json:"retention"`
}

// NewLowStockScanTask constructs an Asynq task for the low-stock scan.
func NewLowStockScanTask(limit int) (*asynq.Task, error) {
	if limit <= 0 {
		limit = defaultLowStockLimit
	}
	body, err := json.Marshal(LowStockScanPayload{Limit: limit})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLowStockScan, body, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}

// NewIdempotencyCleanupTask constructs an Asynq task that purges old keys.
func NewIdempotencyCleanupTask(retention time.Duration) (*asynq.Task, error) {
	body, err := json.Marshal(IdempotencyCleanupPayload{Retention: retention})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, body, asynq.Queue(QueueDefault), asynq.MaxRetry(1)), nil
}
