package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// MemoryCache is the in-process ListingCache. It uses go-cache for storage
// and singleflight to collapse concurrent misses for the same key into one
// List call against the filesystem.
type MemoryCache struct {
	cache *cache.Cache
	ttl   time.Duration
	group singleflight.Group
}

// NewMemoryCache creates an in-process listing cache whose entries expire
// after ttl.
//
// Parameters:
//   - ttl: Time-to-live for cached listings
//
// Returns:
//   - A new MemoryCache
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		cache: cache.New(ttl, 10*ttl),
		ttl:   ttl,
	}
}

// GetOrFetch implements ListingCache.
func (c *MemoryCache) GetOrFetch(ctx context.Context, key string, fetchFn FetchFunc) ([]string, error) {
	if val, found := c.cache.Get(key); found {
		if listing, ok := val.([]string); ok {
			return listing, nil
		}
	}

	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Another goroutine may have populated the cache while we waited
		// for the singleflight slot.
		if cached, found := c.cache.Get(key); found {
			if listing, ok := cached.([]string); ok {
				return listing, nil
			}
		}

		listing, err := fetchFn(ctx)
		if err != nil {
			return nil, err
		}

		c.cache.Set(key, listing, c.ttl)
		return listing, nil
	})
	if err != nil {
		return nil, err
	}

	listing, ok := val.([]string)
	if !ok {
		return nil, fmt.Errorf("unexpected type in cache for key %s", key)
	}

	return listing, nil
}

// Invalidate implements ListingCache.
func (c *MemoryCache) Invalidate(ctx context.Context, key string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	c.cache.Delete(key)
	return nil
}
