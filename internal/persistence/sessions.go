// Package persistence wraps the external stores: the Redis key-value store
// session identifiers live in, the relational memory store one routine
// reads, and the local SQLite run ledger.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/basket/routines/internal/routine"
)

// Sessions is the Redis-backed key-value store for session identifiers and
// routine artifacts. Keys and values are flat strings with native per-key
// expiry; the harness is the sole writer of any given session key.
type Sessions struct {
	client *redis.Client
}

var _ routine.SessionStore = (*Sessions)(nil)

// OpenSessions builds a client for the store at url (redis:// form). The
// connection itself is lazy; Ping verifies it when diagnostics ask.
func OpenSessions(url string) (*Sessions, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &Sessions{client: redis.NewClient(opts)}, nil
}

// Get reads key. ok is false when the key is absent or expired.
func (s *Sessions) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return val, true, nil
}

// SetEx writes value under key with the given expiry.
func (s *Sessions) SetEx(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.SetEx(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("setex %s: %w", key, err)
	}
	return nil
}

// Expire refreshes the expiry on key without touching its value. Returns
// false when the key does not exist.
func (s *Sessions) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.Expire(ctx, key, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("expire %s: %w", key, err)
	}
	return ok, nil
}

// Ping verifies connectivity, for diagnostics.
func (s *Sessions) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

// Close releases the client's connections.
func (s *Sessions) Close() error {
	return s.client.Close()
}
