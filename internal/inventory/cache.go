package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const summaryVersionKey = "inventory:sales:version"

// SummaryCache stores sales aggregates in Redis. Entries are keyed by a
// version that every ledger change bumps, so stale aggregates are never
// read back once stock moved.
type SummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSummaryCache instantiates the cache. A nil client disables caching.
func NewSummaryCache(client *redis.Client, ttl time.Duration) *SummaryCache {
	return &SummaryCache{client: client, ttl: ttl}
}

// Version returns the current version, initialising it when missing.
func (c *SummaryCache) Version(ctx context.Context) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, summaryVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.SetNX(ctx, summaryVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, summaryVersionKey).Int64()
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// BuildKey composes a cache key bound to the current version.
func (c *SummaryCache) BuildKey(ctx context.Context, parts ...string) (string, error) {
	joined := strings.Join(append([]string{"inventory", "summary"}, parts...), ":")
	if c == nil || c.client == nil {
		return joined, nil
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%d", joined, ver), nil
}

// Fetch loads the summary stored at key or populates it with loader.
func (c *SummaryCache) Fetch(ctx context.Context, key string, loader func(context.Context) (Summary, error)) (Summary, error) {
	if c == nil || c.client == nil {
		return loader(ctx)
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var sum Summary
		if err := json.Unmarshal(payload, &sum); err == nil {
			return sum, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		return Summary{}, err
	}
	sum, err := loader(ctx)
	if err != nil {
		return Summary{}, err
	}
	raw, err := json.Marshal(sum)
	if err != nil {
		return Summary{}, err
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return Summary{}, err
	}
	return sum, nil
}

// Bump invalidates every cached summary.
func (c *SummaryCache) Bump(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, summaryVersionKey).Err()
}
