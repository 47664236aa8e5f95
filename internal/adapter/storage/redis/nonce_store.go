package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// NonceStore implements ports.NonceStore using Redis SET NX.
// Nonces are scoped per actor, so two actors may reuse the same value.
type NonceStore struct {
	client goredis.Cmdable
	prefix string
}

// NewNonceStore creates a new Redis-backed nonce store.
func NewNonceStore(client goredis.Cmdable) *NonceStore {
	return &NonceStore{
		client: client,
		prefix: keyspace + "nonce:",
	}
}

// CheckAndSet records nonce for actorID and reports whether it was unseen.
func (s *NonceStore) CheckAndSet(ctx context.Context, actorID string, nonce string, ttl time.Duration) (bool, error) {
	if nonce == "" {
		return false, errors.New("empty nonce")
	}

	key := s.prefix + actorID + ":" + nonce
	result, err := s.client.SetArgs(ctx, key, 1, goredis.SetArgs{
		Mode: "NX",
		TTL:  ttl,
	}).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis nonce check: %w", err)
	}
	return result == "OK", nil
}
