package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/damoang/qna-revision/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// TagCacheConfig 캐시 설정
type TagCacheConfig struct {
	TTL       time.Duration
	KeyPrefix string
}

// DefaultTagCacheConfig 기본 캐시 설정
func DefaultTagCacheConfig() *TagCacheConfig {
	return &TagCacheConfig{
		TTL:       10 * time.Minute,
		KeyPrefix: "qna:tag:",
	}
}

// CachedTagRepository read-through Redis cache of tag existence
type CachedTagRepository struct {
	repo   TagRepository
	redis  *redis.Client
	config *TagCacheConfig
}

// NewCachedTagRepository wraps repo with a Redis cache
func NewCachedTagRepository(repo TagRepository, redisClient *redis.Client, config *TagCacheConfig) TagRepository {
	if config == nil {
		config = DefaultTagCacheConfig()
	}
	return &CachedTagRepository{
		repo:   repo,
		redis:  redisClient,
		config: config,
	}
}

func (r *CachedTagRepository) keyExists(id uint64) string {
	return fmt.Sprintf("%sexists:%d", r.config.KeyPrefix, id)
}

// Exists answers from Redis when possible. Cache failures fall through to the database.
func (r *CachedTagRepository) Exists(ctx context.Context, id uint64) (bool, error) {
	key := r.keyExists(id)

	val, err := r.redis.Get(ctx, key).Result()
	switch {
	case err == nil && val == "1":
		return true, nil
	case err != nil && err != redis.Nil:
		logger.GetLogger().Warn().Err(err).Str("key", key).Msg("tag cache read failed")
	}

	exists, err := r.repo.Exists(ctx, id)
	if err != nil {
		return false, err
	}

	// only positive answers are cached; a tag created later must be usable at once
	if !exists {
		return false, nil
	}
	if err := r.redis.Set(ctx, key, "1", r.config.TTL).Err(); err != nil {
		logger.GetLogger().Warn().Err(err).Str("key", key).Msg("tag cache write failed")
	}
	return exists, nil
}

// Invalidate drops the cached flag for a tag
func (r *CachedTagRepository) Invalidate(ctx context.Context, id uint64) error {
	return r.redis.Del(ctx, r.keyExists(id)).Err()
}
