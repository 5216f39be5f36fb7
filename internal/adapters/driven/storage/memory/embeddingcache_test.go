package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmbeddingCache(t *testing.T) {
	cache, err := NewEmbeddingCache(0)
	require.NoError(t, err)
	assert.Equal(t, 0, cache.Len())

	_, err = NewEmbeddingCache(-1)
	assert.Error(t, err)
}

func TestEmbeddingCache_PutGet(t *testing.T) {
	cache, err := NewEmbeddingCache(8)
	require.NoError(t, err)
	ctx := context.Background()

	vec := []float32{0.1, 0.2, 0.3}
	require.NoError(t, cache.Put(ctx, "hashing-v1", "نص", vec))

	got, ok, err := cache.Get(ctx, "hashing-v1", "نص")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, vec, got)

	_, ok, err = cache.Get(ctx, "other-model", "نص")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEmbeddingCache_CopiesVectors(t *testing.T) {
	cache, err := NewEmbeddingCache(8)
	require.NoError(t, err)
	ctx := context.Background()

	vec := []float32{1, 2}
	require.NoError(t, cache.Put(ctx, "m", "t", vec))
	vec[0] = 99

	got, _, err := cache.Get(ctx, "m", "t")
	require.NoError(t, err)
	assert.Equal(t, float32(1), got[0])

	got[1] = 99
	again, _, err := cache.Get(ctx, "m", "t")
	require.NoError(t, err)
	assert.Equal(t, float32(2), again[1])
}

func TestEmbeddingCache_EvictsLeastRecentlyUsed(t *testing.T) {
	cache, err := NewEmbeddingCache(2)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "m", "a", []float32{1}))
	require.NoError(t, cache.Put(ctx, "m", "b", []float32{2}))
	_, _, _ = cache.Get(ctx, "m", "a")
	require.NoError(t, cache.Put(ctx, "m", "c", []float32{3}))

	_, ok, _ := cache.Get(ctx, "m", "b")
	assert.False(t, ok, "b was least recently used")
	_, ok, _ = cache.Get(ctx, "m", "a")
	assert.True(t, ok)
	assert.Equal(t, 2, cache.Len())
}

func TestEmbeddingCache_IgnoresEmpty(t *testing.T) {
	cache, err := NewEmbeddingCache(2)
	require.NoError(t, err)
	require.NoError(t, cache.Put(context.Background(), "m", "t", nil))
	assert.Equal(t, 0, cache.Len())
}

func TestEmbeddingCache_Close(t *testing.T) {
	cache, err := NewEmbeddingCache(4)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, cache.Put(context.Background(), "m", fmt.Sprint(i), []float32{1}))
	}
	require.NoError(t, cache.Close())
	assert.Equal(t, 0, cache.Len())
}
