package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/gmmtrain/core"
	"github.com/poiesic/gmmtrain/storage"
)

func newTestCache(t *testing.T) storage.FeatureCache {
	t.Helper()
	cache, err := NewMemoryFeatureCache()
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestFeatureCache_PutGet(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	key := core.KeyFromBytes([]byte("image bytes"))
	feature := &storage.CachedFeature{
		Model:  "mobilenet_v2",
		Vector: []float32{1.5, -0.25, 3},
	}

	require.NoError(t, cache.Put(ctx, key, feature))

	got, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, feature.Model, got.Model)
	assert.Equal(t, feature.Vector, got.Vector)
}

func TestFeatureCache_GetMissing(t *testing.T) {
	cache := newTestCache(t)

	_, err := cache.Get(context.Background(), core.SampleKey(12345))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFeatureCache_Overwrite(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	key := core.KeyFromBytes([]byte("image"))
	require.NoError(t, cache.Put(ctx, key, &storage.CachedFeature{
		Model:  "mobilenet_v2",
		Vector: []float32{1},
	}))
	require.NoError(t, cache.Put(ctx, key, &storage.CachedFeature{
		Model:  "efficientnet_b0",
		Vector: []float32{2, 3},
	}))

	got, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "efficientnet_b0", got.Model)
	assert.Equal(t, []float32{2, 3}, got.Vector)
}

func TestFeatureCache_DistinctKeys(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	k1 := core.KeyFromBytes([]byte("one"))
	k2 := core.KeyFromBytes([]byte("two"))

	require.NoError(t, cache.Put(ctx, k1, &storage.CachedFeature{Model: "m", Vector: []float32{1}}))
	require.NoError(t, cache.Put(ctx, k2, &storage.CachedFeature{Model: "m", Vector: []float32{2}}))

	got1, err := cache.Get(ctx, k1)
	require.NoError(t, err)
	got2, err := cache.Get(ctx, k2)
	require.NoError(t, err)

	assert.Equal(t, []float32{1}, got1.Vector)
	assert.Equal(t, []float32{2}, got2.Vector)
}

func TestFeatureCache_Closed(t *testing.T) {
	cache := newTestCache(t)
	require.NoError(t, cache.Close())

	_, err := cache.Get(context.Background(), core.SampleKey(1))
	assert.ErrorIs(t, err, storage.ErrStorageClosed)

	err = cache.Put(context.Background(), core.SampleKey(1), &storage.CachedFeature{Model: "m"})
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}
