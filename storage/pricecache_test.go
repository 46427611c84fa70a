package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *PriceCache {
	t.Helper()
	cache, err := NewPriceCache(filepath.Join(t.TempDir(), "prices.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func TestPriceCachePutGet(t *testing.T) {
	cache := newTestCache(t)

	key := CacheKey("us-east-1", "m5.large", "ondemand")
	require.NoError(t, cache.Put(key, 0.096))

	price, ok, err := cache.Get(key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0.096, price)
}

func TestPriceCacheMiss(t *testing.T) {
	cache := newTestCache(t)

	_, ok, err := cache.Get(CacheKey("us-east-1", "m5.large", "ondemand"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPriceCacheExpiry(t *testing.T) {
	cache := newTestCache(t)
	cache.SetTTL(1 * time.Nanosecond)

	key := CacheKey("us-east-1", "t3.medium", "reserved-1yr-partial")
	require.NoError(t, cache.Put(key, 0.027))

	time.Sleep(time.Millisecond)

	_, ok, err := cache.Get(key)
	require.NoError(t, err)
	assert.False(t, ok, "expired entry should miss")
}

func TestPriceCachePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.db")

	cache, err := NewPriceCache(path)
	require.NoError(t, err)
	key := CacheKey("eu-west-1", "r5.xlarge", "ondemand")
	require.NoError(t, cache.Put(key, 0.296))
	require.NoError(t, cache.Close())

	reopened, err := NewPriceCache(path)
	require.NoError(t, err)
	defer reopened.Close()

	price, ok, err := reopened.Get(key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0.296, price)
}

func TestPriceCachePurge(t *testing.T) {
	cache := newTestCache(t)

	require.NoError(t, cache.Put(CacheKey("us-east-1", "m5.large", "ondemand"), 0.096))
	require.NoError(t, cache.Put(CacheKey("us-east-1", "c5.large", "ondemand"), 0.085))

	cache.SetTTL(1 * time.Nanosecond)
	time.Sleep(time.Millisecond)

	removed, err := cache.Purge()
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	cache.SetTTL(time.Hour)
	_, ok, err := cache.Get(CacheKey("us-east-1", "m5.large", "ondemand"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "us-east-1|m5.large|ondemand", CacheKey("us-east-1", "m5.large", "ondemand"))
}
