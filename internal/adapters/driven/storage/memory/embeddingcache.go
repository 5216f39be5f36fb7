package memory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/custodia-labs/sanad/internal/core/ports/driven"
)

// Ensure EmbeddingCache implements the interface.
var _ driven.EmbeddingCache = (*EmbeddingCache)(nil)

// DefaultCacheSize is the entry limit used when none is given.
const DefaultCacheSize = 4096

// EmbeddingCache is a bounded in-memory driven.EmbeddingCache.
// The least recently used entry is dropped once the limit is reached.
// Vectors are copied on the way in and out.
type EmbeddingCache struct {
	cache *lru.Cache[string, []float32]
}

// NewEmbeddingCache creates a cache holding at most size embeddings.
// A size of zero uses DefaultCacheSize.
func NewEmbeddingCache(size int) (*EmbeddingCache, error) {
	if size == 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("init embedding cache: %w", err)
	}
	return &EmbeddingCache{cache: cache}, nil
}

// Get returns a cached embedding.
func (c *EmbeddingCache) Get(_ context.Context, model, text string) ([]float32, bool, error) {
	vec, ok := c.cache.Get(cacheKey(model, text))
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(vec), true, nil
}

// Put stores an embedding. Empty vectors are ignored.
func (c *EmbeddingCache) Put(_ context.Context, model, text string, embedding []float32) error {
	if len(embedding) == 0 {
		return nil
	}
	c.cache.Add(cacheKey(model, text), slices.Clone(embedding))
	return nil
}

// Len returns the number of cached embeddings.
func (c *EmbeddingCache) Len() int {
	return c.cache.Len()
}

// Close drops every entry.
func (c *EmbeddingCache) Close() error {
	c.cache.Purge()
	return nil
}

func cacheKey(model, text string) string {
	sum := sha256.Sum256([]byte(text))
	return model + ":" + hex.EncodeToString(sum[:])
}
