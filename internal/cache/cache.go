// Package cache provides the directory-listing cache behind the ls command.
// Two backends exist: an in-process cache for single-instance deployments and
// a Redis-backed cache for setups where several server instances share one
// storage root.
package cache

import "context"

// FetchFunc produces a fresh directory listing on a cache miss.
type FetchFunc func(ctx context.Context) ([]string, error)

// ListingCache caches directory listings under string keys with a fixed TTL.
// Implementations must be safe for concurrent use and must collapse
// concurrent misses for the same key into a single fetch.
type ListingCache interface {
	// GetOrFetch returns the cached listing for key, fetching and caching
	// it with fetchFn if absent.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout control
	//   - key: The cache key
	//   - fetchFn: Function producing the listing on a miss
	//
	// Returns:
	//   - The cached or freshly fetched listing
	//   - An error if fetching or the cache backend fails
	GetOrFetch(ctx context.Context, key string, fetchFn FetchFunc) ([]string, error)

	// Invalidate drops the cached listing for key so the next GetOrFetch
	// refetches. Invalidating an absent key is a no-op.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout control
	//   - key: The cache key to drop
	//
	// Returns:
	//   - An error if the cache backend fails
	Invalidate(ctx context.Context, key string) error
}
