package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/rahulvs07/complyark-data-shield/pkg/errors"
)

// CacheRepository stores JSON payloads in Redis. A nil client turns every
// read into a miss and every write into a no-op.
type CacheRepository struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewCacheRepository constructs a cache repository namespacing keys under prefix.
func NewCacheRepository(client *redis.Client, prefix string, logger *zap.Logger) *CacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheRepository{client: client, prefix: prefix, logger: logger}
}

func (r *CacheRepository) key(k string) string {
	return r.prefix + k
}

// Get unmarshals the cached value into dest or returns ErrCacheMiss.
func (r *CacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	if r.client == nil {
		return appErrors.ErrCacheMiss
	}

	raw, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return appErrors.ErrCacheMiss
		}
		return fmt.Errorf("redis get %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		r.logger.Warn("dropping undecodable cache entry", zap.String("key", key), zap.Error(err))
		_ = r.client.Del(ctx, r.key(key)).Err()
		return appErrors.ErrCacheMiss
	}
	return nil
}

// Set marshals value and stores it with ttl.
func (r *CacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}
	if err := r.client.Set(ctx, r.key(key), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes the given keys.
func (r *CacheRepository) Delete(ctx context.Context, keys ...string) error {
	if r.client == nil || len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.key(k)
	}
	if err := r.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

// Ping reports whether Redis is reachable. A nil client is always healthy.
func (r *CacheRepository) Ping(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	return r.client.Ping(ctx).Err()
}

// Close releases the underlying Redis connection if present.
func (r *CacheRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
