package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/placementhub/placement-api/pkg/errors"
)

type cacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type cacheRecorder interface {
	RecordCacheOperation(hit bool, duration time.Duration)
}

// CacheService wraps the Redis-backed cache repository and records
// hit/miss metrics on every read. Services depend on this rather than
// the repository so cache instrumentation stays in one place.
type CacheService struct {
	repo    cacheStore
	metrics cacheRecorder
	logger  *zap.Logger
}

// NewCacheService constructs a CacheService. metrics may be nil.
func NewCacheService(repo cacheStore, metrics cacheRecorder, logger *zap.Logger) *CacheService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, logger: logger}
}

// Get loads a cached value into dest. Misses surface as ErrCacheMiss so
// callers fall through to the source of truth.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) error {
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	duration := time.Since(start)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordCacheOperation(false, duration)
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return err
	}
	if s.metrics != nil {
		s.metrics.RecordCacheOperation(true, duration)
	}
	return nil
}

// Set stores a value under key.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if err := s.repo.Set(ctx, key, value, ttl); err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

// DeleteByPattern invalidates all keys matching pattern.
func (s *CacheService) DeleteByPattern(ctx context.Context, pattern string) error {
	if err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("cache invalidation failed", zap.String("pattern", pattern), zap.Error(err))
		return err
	}
	return nil
}
