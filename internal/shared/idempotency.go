package shared

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/odyssey-erp/inventario/internal/platform/db"
)

// ErrIdempotencyConflict indicates the key was already used for a request.
var ErrIdempotencyConflict = errors.New("idempotent request already processed")

// IdempotencyStore persists request keys so a retried sell is not applied twice.
type IdempotencyStore struct {
	db db.DBTX
}

// NewIdempotencyStore constructs the store.
func NewIdempotencyStore(q db.DBTX) *IdempotencyStore {
	return &IdempotencyStore{db: q}
}

// CheckAndInsert claims key for module. A key that is already claimed
// yields ErrIdempotencyConflict.
func (s *IdempotencyStore) CheckAndInsert(ctx context.Context, key, module string) error {
	if s == nil {
		return errors.New("idempotency store not initialised")
	}
	if key == "" || module == "" {
		return fmt.Errorf("idempotency: key and module required: %w", ErrInvalidArgument)
	}
	_, err := s.db.Exec(ctx, `INSERT INTO idempotency_keys (key, module, created_at) VALUES ($1, $2, now())`, key, module)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrIdempotencyConflict
		}
		return fmt.Errorf("idempotency: insert: %w", err)
	}
	return nil
}

// Release forgets key so the request can be retried after a failure.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if s == nil || key == "" {
		return nil
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM idempotency_keys WHERE key=$1`, key); err != nil {
		return fmt.Errorf("idempotency: release: %w", err)
	}
	return nil
}

// Cleanup removes entries older than retention and reports how many went.
func (s *IdempotencyStore) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	if s == nil {
		return 0, nil
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM idempotency_keys WHERE created_at < $1`, time.Now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("idempotency: cleanup: %w", err)
	}
	return tag.RowsAffected(), nil
}
