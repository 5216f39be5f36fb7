package memory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_Get(t *testing.T) {
	store := NewConfigStore()
	assert.Equal(t, ":memory:", store.Path())
	require.NoError(t, store.Set("pipeline.chunk_size", 500))

	val, ok := store.Get("pipeline.chunk_size")
	assert.True(t, ok)
	assert.Equal(t, int64(500), val, "integers are stored as TOML decodes them")

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("s", "ollama"))
	require.NoError(t, store.Set("i", 42))
	require.NoError(t, store.Set("i64", int64(7)))
	require.NoError(t, store.Set("f", 0.35))
	require.NoError(t, store.Set("order", []string{"chunker", "provenance"}))
	require.NoError(t, store.Set("mixed", []any{"chunker", 3, "provenance"}))

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"string", store.GetString("s"), "ollama"},
		{"string wrong type", store.GetString("i"), ""},
		{"int", store.GetInt("i"), 42},
		{"int from int64", store.GetInt("i64"), 7},
		{"int from float", store.GetInt("f"), 0},
		{"int wrong type", store.GetInt("s"), 0},
		{"float", store.GetFloat("f"), 0.35},
		{"float from int", store.GetFloat("i"), 42.0},
		{"float missing", store.GetFloat("missing"), 0.0},
		{"float wrong type", store.GetFloat("s"), 0.0},
		{"string slice", store.GetStringSlice("order"), []string{"chunker", "provenance"}},
		{"slice skips non strings", store.GetStringSlice("mixed"), []string{"chunker", "provenance"}},
		{"slice missing", store.GetStringSlice("missing"), []string(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = store.Set(fmt.Sprintf("key.%d", n), n)
		}(i)
		go func(n int) {
			defer wg.Done()
			_ = store.GetInt(fmt.Sprintf("key.%d", n))
		}(i)
	}
	wg.Wait()

	for i := 0; i < 50; i++ {
		assert.Equal(t, i, store.GetInt(fmt.Sprintf("key.%d", i)))
	}
}
