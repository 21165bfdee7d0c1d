package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Position is a cached last-known fix.
type Position struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// PositionCache keeps each shuttle's last known position in redis so the
// resolver does not hit Postgres for every sensor-only message. The database
// remains authoritative; cache errors are for the caller to log and ignore.
type PositionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPositionCache returns redis-backed cache.
func NewPositionCache(client *redis.Client, ttl time.Duration) *PositionCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &PositionCache{client: client, ttl: ttl}
}

func (c *PositionCache) key(mac string) string {
	return fmt.Sprintf("shuttles:lastpos:%s", mac)
}

// Get returns the cached position, or nil on a miss.
func (c *PositionCache) Get(ctx context.Context, mac string) (*Position, error) {
	result, err := c.client.Get(ctx, c.key(mac)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var p Position
	if err := json.Unmarshal([]byte(result), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Set stores the position with the configured TTL.
func (c *PositionCache) Set(ctx context.Context, mac string, p Position) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(mac), data, c.ttl).Err()
}
