package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ikkim/venue-backend/internal/app/model"
	"github.com/ikkim/venue-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const datasetCacheKeyPrefix = "venues:dataset:"

type cachedSource struct {
	inner  VenueSource
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewCachedSource puts a Redis cache-aside layer in front of inner. Redis
// failures fall through to inner; they never fail a load on their own.
func NewCachedSource(inner VenueSource, client *redis.Client, ttl time.Duration) VenueSource {
	return &cachedSource{
		inner:  inner,
		client: client,
		key:    datasetCacheKeyPrefix + inner.Name(),
		ttl:    ttl,
	}
}

func (s *cachedSource) Name() string {
	return s.inner.Name()
}

func (s *cachedSource) Fetch(ctx context.Context) (*model.VenueDataset, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	switch {
	case err == nil:
		ds, decodeErr := DecodeDataset(data)
		if decodeErr == nil {
			logger.Debug("Venue dataset served from cache", map[string]interface{}{
				"key": s.key,
			})
			return ds, nil
		}
		logger.Warn("Discarding unreadable cached venue dataset", map[string]interface{}{
			"key":   s.key,
			"error": decodeErr.Error(),
		})
	case errors.Is(err, redis.Nil):
	default:
		logger.Warn("Venue dataset cache unavailable", map[string]interface{}{
			"key":   s.key,
			"error": err.Error(),
		})
	}

	ds, err := s.inner.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	encoded, err := EncodeDataset(ds)
	if err != nil {
		logger.Warn("Failed to encode venue dataset for cache", map[string]interface{}{
			"error": err.Error(),
		})
		return ds, nil
	}
	if err := s.client.Set(ctx, s.key, encoded, s.ttl).Err(); err != nil {
		logger.Warn("Failed to cache venue dataset", map[string]interface{}{
			"key":   s.key,
			"error": err.Error(),
		})
	}
	return ds, nil
}

func (s *cachedSource) Invalidate(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		logger.Error("Failed to invalidate venue dataset cache", err, map[string]interface{}{
			"key": s.key,
		})
		return err
	}
	return nil
}
