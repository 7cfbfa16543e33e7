package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alanyoungcy/polyarb/internal/domain"
	"github.com/redis/go-redis/v9"
)

// MarketCache implements domain.MarketCache by storing each fetched market
// snapshot as a single JSON string with a TTL.
//
// Key schema:
//
//	markets:snapshot:{key} - JSON array of domain.Market
type MarketCache struct {
	rdb *redis.Client
}

// NewMarketCache creates a MarketCache backed by the given Client.
func NewMarketCache(c *Client) *MarketCache {
	return &MarketCache{rdb: c.Underlying()}
}

func snapshotKey(key string) string { return "markets:snapshot:" + key }

// GetSnapshot returns the cached markets for key.
// It returns domain.ErrNotFound when the snapshot is absent or expired.
func (mc *MarketCache) GetSnapshot(ctx context.Context, key string) ([]domain.Market, error) {
	data, err := mc.rdb.Get(ctx, snapshotKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis: get snapshot %s: %w", key, err)
	}

	var markets []domain.Market
	if err := json.Unmarshal(data, &markets); err != nil {
		return nil, fmt.Errorf("redis: unmarshal snapshot %s: %w", key, err)
	}
	return markets, nil
}

// SetSnapshot stores markets under key for ttl. A non-positive ttl is a no-op.
func (mc *MarketCache) SetSnapshot(ctx context.Context, key string, markets []domain.Market, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(markets)
	if err != nil {
		return fmt.Errorf("redis: marshal snapshot %s: %w", key, err)
	}
	if err := mc.rdb.Set(ctx, snapshotKey(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set snapshot %s: %w", key, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.MarketCache = (*MarketCache)(nil)
