package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is the Redis-backed ListingCache, for deployments where several
// server instances share one storage root and one cache. Listings are stored
// as JSON arrays. Unlike MemoryCache there is no cross-process miss
// collapsing; listings are cheap to refetch, so concurrent misses simply race
// to Set the same value.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a listing cache backed by the Redis server at addr.
//
// Parameters:
//   - addr: The Redis address in host:port form
//   - ttl: Time-to-live for cached listings
//
// Returns:
//   - A new RedisCache
func NewRedisCache(addr string, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
	}
}

// GetOrFetch implements ListingCache.
func (c *RedisCache) GetOrFetch(ctx context.Context, key string, fetchFn FetchFunc) ([]string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == nil {
		var listing []string
		if err := json.Unmarshal([]byte(val), &listing); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cached listing: %w", err)
		}

		return listing, nil
	}
	if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis get error: %w", err)
	}

	listing, err := fetchFn(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(listing)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal listing: %w", err)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return nil, fmt.Errorf("failed to cache listing: %w", err)
	}

	return listing, nil
}

// Invalidate implements ListingCache.
func (c *RedisCache) Invalidate(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}

	return nil
}

// Close releases the underlying Redis client.
//
// Returns:
//   - An error if closing the client fails
func (c *RedisCache) Close() error {
	return c.client.Close()
}
