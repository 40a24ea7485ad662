package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrCacheMiss is returned by Cache.Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// minGenerationTTL bounds how long an idle owner's generation key is kept.
const minGenerationTTL = 24 * time.Hour

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Service computes per-owner statistics. When a cache is configured, results
// are stored under a key that includes the owner's generation token, and
// Invalidate replaces that token instead of deleting keys. Tokens are random,
// so a generation key that expired or was evicted never resurrects an old
// entry.
type Service struct {
	repo   Repository
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger

	// owners whose last invalidation did not reach the cache
	stale sync.Map
}

func NewService(repo Repository, cache Cache, ttl time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

func (s *Service) Compute(ctx context.Context, owner int64) (Stats, error) {
	if s.cache == nil {
		return s.repo.Aggregate(ctx, owner)
	}

	key, err := s.cacheKey(ctx, owner)
	if err != nil {
		s.logger.Warn("stats cache generation lookup failed", zap.Int64("owner", owner), zap.Error(err))
		return s.repo.Aggregate(ctx, owner)
	}

	if data, err := s.cache.Get(ctx, key); err == nil {
		var st Stats
		if err := json.Unmarshal(data, &st); err == nil {
			return st, nil
		}
		s.logger.Warn("stats cache entry unreadable", zap.String("key", key))
	} else if !errors.Is(err, ErrCacheMiss) {
		s.logger.Warn("stats cache get failed", zap.String("key", key), zap.Error(err))
	}

	st, err := s.repo.Aggregate(ctx, owner)
	if err != nil {
		return Stats{}, err
	}

	if data, err := json.Marshal(st); err == nil {
		if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
			s.logger.Warn("stats cache set failed", zap.String("key", key), zap.Error(err))
		}
	}
	return st, nil
}

// Invalidate implements invoice.StatsInvalidator. If the cache cannot be
// reached the owner is marked stale and Compute bypasses the cache until a
// new generation has been written.
func (s *Service) Invalidate(ctx context.Context, owner int64) {
	if s.cache == nil {
		return
	}
	if _, err := s.newGeneration(ctx, owner); err != nil {
		s.stale.Store(owner, struct{}{})
		s.logger.Warn("stats cache invalidation failed", zap.Int64("owner", owner), zap.Error(err))
		return
	}
	s.stale.Delete(owner)
}

func (s *Service) cacheKey(ctx context.Context, owner int64) (string, error) {
	if _, dirty := s.stale.Load(owner); dirty {
		gen, err := s.newGeneration(ctx, owner)
		if err != nil {
			return "", err
		}
		s.stale.Delete(owner)
		return dataKey(owner, gen), nil
	}

	data, err := s.cache.Get(ctx, generationKey(owner))
	switch {
	case err == nil:
		return dataKey(owner, string(data)), nil
	case errors.Is(err, ErrCacheMiss):
		gen, err := s.newGeneration(ctx, owner)
		if err != nil {
			return "", err
		}
		return dataKey(owner, gen), nil
	default:
		return "", err
	}
}

func (s *Service) newGeneration(ctx context.Context, owner int64) (string, error) {
	gen := uuid.NewString()
	if err := s.cache.Set(ctx, generationKey(owner), []byte(gen), s.generationTTL()); err != nil {
		return "", err
	}
	return gen, nil
}

// generationTTL always outlives the entries written under the generation.
func (s *Service) generationTTL() time.Duration {
	if ttl := 2 * s.ttl; ttl > minGenerationTTL {
		return ttl
	}
	return minGenerationTTL
}

func dataKey(owner int64, gen string) string {
	return fmt.Sprintf("stats:%d:%s", owner, gen)
}

func generationKey(owner int64) string {
	return fmt.Sprintf("stats:gen:%d", owner)
}
