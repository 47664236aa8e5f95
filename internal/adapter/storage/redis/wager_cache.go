package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// WagerCache implements ports.WagerCache: JSON snapshots of wagers keyed by id.
type WagerCache struct {
	client goredis.Cmdable
	prefix string
}

// NewWagerCache creates a new Redis-backed wager snapshot cache.
func NewWagerCache(client goredis.Cmdable) *WagerCache {
	return &WagerCache{
		client: client,
		prefix: keyspace + "wager:",
	}
}

// Get returns the cached snapshot, or nil, nil on a miss.
func (c *WagerCache) Get(ctx context.Context, id uuid.UUID) ([]byte, error) {
	val, err := c.client.Get(ctx, c.prefix+id.String()).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis wager cache get: %w", err)
	}
	return val, nil
}

// Set stores a snapshot for ttl.
func (c *WagerCache) Set(ctx context.Context, id uuid.UUID, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+id.String(), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis wager cache set: %w", err)
	}
	return nil
}

// Delete evicts a snapshot. Evicting a missing key is not an error.
func (c *WagerCache) Delete(ctx context.Context, id uuid.UUID) error {
	if err := c.client.Del(ctx, c.prefix+id.String()).Err(); err != nil {
		return fmt.Errorf("redis wager cache delete: %w", err)
	}
	return nil
}
