package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_GetOrFetch_Miss(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	ctx := context.Background()

	fetchCount := 0
	listing, err := c.GetOrFetch(ctx, "listing", func(ctx context.Context) ([]string, error) {
		fetchCount++
		return []string{"a.txt", "b.txt"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt"}, listing)
	assert.Equal(t, 1, fetchCount)
}

func TestMemoryCache_GetOrFetch_Hit(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	ctx := context.Background()

	fetchCount := 0
	fetchFn := func(ctx context.Context) ([]string, error) {
		fetchCount++
		return []string{"a.txt"}, nil
	}

	_, err := c.GetOrFetch(ctx, "listing", fetchFn)
	require.NoError(t, err)

	// Second call hits the cache; the fetch function is not called again.
	listing, err := c.GetOrFetch(ctx, "listing", func(ctx context.Context) ([]string, error) {
		fetchCount++
		return []string{"should not be used"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, listing)
	assert.Equal(t, 1, fetchCount)
}

func TestMemoryCache_GetOrFetch_FetchError(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	ctx := context.Background()

	_, err := c.GetOrFetch(ctx, "listing", func(ctx context.Context) ([]string, error) {
		return nil, assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	// The error is not cached; the next call fetches again.
	listing, err := c.GetOrFetch(ctx, "listing", func(ctx context.Context) ([]string, error) {
		return []string{"fresh.txt"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh.txt"}, listing)
}

func TestMemoryCache_Invalidate(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	ctx := context.Background()

	fetchCount := 0
	fetchFn := func(ctx context.Context) ([]string, error) {
		fetchCount++
		return []string{"a.txt"}, nil
	}

	_, err := c.GetOrFetch(ctx, "listing", fetchFn)
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx, "listing"))

	_, err = c.GetOrFetch(ctx, "listing", fetchFn)
	require.NoError(t, err)
	assert.Equal(t, 2, fetchCount)

	t.Run("invalidating absent key is a no-op", func(t *testing.T) {
		assert.NoError(t, c.Invalidate(ctx, "missing"))
	})

	t.Run("cancelled context is respected", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(context.Background())
		cancel()
		assert.Error(t, c.Invalidate(cancelled, "listing"))
	})
}

func TestMemoryCache_ConcurrentMisses_SingleFetch(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	ctx := context.Background()

	var fetchCount int32
	fetchFn := func(ctx context.Context) ([]string, error) {
		atomic.AddInt32(&fetchCount, 1)
		time.Sleep(20 * time.Millisecond)
		return []string{"shared.txt"}, nil
	}

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			listing, err := c.GetOrFetch(ctx, "listing", fetchFn)
			assert.NoError(t, err)
			assert.Equal(t, []string{"shared.txt"}, listing)
		}()
	}

	close(start)
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&fetchCount))
}
