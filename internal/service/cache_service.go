package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/rahulvs07/complyark-data-shield/pkg/errors"
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type cacheMetrics interface {
	RecordCacheOperation(hit bool, duration time.Duration)
	ObserveCacheWrite(duration time.Duration)
}

// CacheService wraps a CacheRepository with metrics and an on/off switch.
// Cache failures are logged and reported as misses so callers fall back to
// the store.
type CacheService struct {
	repo       CacheRepository
	metrics    cacheMetrics
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics cacheMetrics, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get loads key into dest and reports whether it was a hit.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) bool {
	if !s.Enabled() {
		return false
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	hit := err == nil
	if s.metrics != nil {
		s.metrics.RecordCacheOperation(hit, time.Since(start))
	}
	if err != nil && !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	}
	return hit
}

// Set stores value under key. A non-positive ttl uses the default.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if !s.Enabled() {
		return
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	if s.metrics != nil {
		s.metrics.ObserveCacheWrite(time.Since(start))
	}
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate removes keys.
func (s *CacheService) Invalidate(ctx context.Context, keys ...string) {
	if !s.Enabled() {
		return
	}
	if err := s.repo.Delete(ctx, keys...); err != nil {
		s.logger.Warn("cache invalidate failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
