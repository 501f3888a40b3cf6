package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*SummaryCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSummaryCache(client, time.Minute), mr
}

func TestSummaryServedFromCacheUntilLedgerChanges(t *testing.T) {
	cache, _ := newTestCache(t)
	repo := newMemoryRepo(laptop())
	svc := NewService(repo, ServiceConfig{Cache: cache})
	ctx := context.Background()

	_, err := svc.Sell(ctx, SellInput{ProductID: 1, Quantity: 2})
	require.NoError(t, err)

	sum, err := svc.Summary(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Equal(t, int64(1), sum.SalesCount)
	require.True(t, decimal.NewFromInt(200).Equal(sum.Revenue))
	require.True(t, decimal.NewFromInt(120).Equal(sum.Cost))
	require.True(t, decimal.NewFromInt(80).Equal(sum.Profit))

	_, err = svc.Summary(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Equal(t, 1, repo.summarizeCalls, "second read must hit the cache")

	_, err = svc.Sell(ctx, SellInput{ProductID: 1, Quantity: 3})
	require.NoError(t, err)

	sum, err = svc.Summary(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Equal(t, 2, repo.summarizeCalls)
	require.Equal(t, int64(5), sum.Units)
}

func TestSummaryCacheVersioning(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	ver, err := cache.Version(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), ver)

	key, err := cache.BuildKey(ctx, "open", "open")
	require.NoError(t, err)
	require.Equal(t, "inventory:summary:open:open:1", key)

	require.NoError(t, cache.Bump(ctx))
	stored, err := mr.Get(summaryVersionKey)
	require.NoError(t, err)
	require.Equal(t, "2", stored)
}

func TestSummaryCacheExpires(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()
	calls := 0
	loader := func(context.Context) (Summary, error) {
		calls++
		return Summary{SalesCount: int64(calls)}, nil
	}

	key, err := cache.BuildKey(ctx, "a", "b")
	require.NoError(t, err)
	_, err = cache.Fetch(ctx, key, loader)
	require.NoError(t, err)
	_, err = cache.Fetch(ctx, key, loader)
	require.NoError(t, err)
	require.Equal(t, 1, calls)

	mr.FastForward(2 * time.Minute)
	sum, err := cache.Fetch(ctx, key, loader)
	require.NoError(t, err)
	require.Equal(t, int64(2), sum.SalesCount)
}

func TestNilSummaryCachePassesThrough(t *testing.T) {
	var cache *SummaryCache
	ctx := context.Background()

	key, err := cache.BuildKey(ctx, "x")
	require.NoError(t, err)
	require.Equal(t, "inventory:summary:x", key)
	require.NoError(t, cache.Bump(ctx))

	sum, err := cache.Fetch(ctx, key, func(context.Context) (Summary, error) {
		return Summary{Units: 9}, nil
	})
	require.NoError(t, err)
	require.Equal(t, int64(9), sum.Units)
}
