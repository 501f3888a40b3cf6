package shared

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

type execStub struct {
	seen map[string]bool
	sql  []string
	tag  pgconn.CommandTag
	err  error
}

func (s *execStub) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	s.sql = append(s.sql, sql)
	if s.err != nil {
		return pgconn.CommandTag{}, s.err
	}
	if s.seen != nil && len(args) > 0 {
		key, _ := args[0].(string)
		if s.seen[key] {
			return pgconn.CommandTag{}, &pgconn.PgError{Code: "23505"}
		}
		s.seen[key] = true
	}
	return s.tag, nil
}

func (s *execStub) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (s *execStub) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func TestIdempotencyStoreRejectsReusedKey(t *testing.T) {
	store := NewIdempotencyStore(&execStub{seen: map[string]bool{}})
	ctx := context.Background()

	require.NoError(t, store.CheckAndInsert(ctx, "sell-1", "inventory.sell"))
	require.ErrorIs(t, store.CheckAndInsert(ctx, "sell-1", "inventory.sell"), ErrIdempotencyConflict)
	require.NoError(t, store.CheckAndInsert(ctx, "sell-2", "inventory.sell"))
}

func TestIdempotencyStoreValidatesInput(t *testing.T) {
	store := NewIdempotencyStore(&execStub{})
	require.ErrorIs(t, store.CheckAndInsert(context.Background(), "", "inventory.sell"), ErrInvalidArgument)

	var nilStore *IdempotencyStore
	require.Error(t, nilStore.CheckAndInsert(context.Background(), "k", "m"))
	require.NoError(t, nilStore.Release(context.Background(), "k"))
}

func TestIdempotencyStoreWrapsDatabaseErrors(t *testing.T) {
	boom := errors.New("connection reset")
	store := NewIdempotencyStore(&execStub{err: boom})
	err := store.CheckAndInsert(context.Background(), "k", "m")
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, ErrIdempotencyConflict)
}

func TestIdempotencyCleanupReportsRemoved(t *testing.T) {
	stub := &execStub{tag: pgconn.NewCommandTag("DELETE 3")}
	n, err := NewIdempotencyStore(stub).Cleanup(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	require.Equal(t, int64(3), n)
	require.Contains(t, stub.sql[0], "DELETE FROM idempotency_keys")
}
