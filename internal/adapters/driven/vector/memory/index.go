// Package memory provides an exact in-memory vector index.
//
// The index belongs to a single conversation and holds at most a few
// documents, so search is a brute-force cosine scan. Vectors are normalised to
// unit length on insertion, which makes cosine similarity a dot product.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/sanad/internal/core/domain"
	"github.com/custodia-labs/sanad/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// entry is one stored vector. seq is the insertion sequence number used to
// break score ties.
type entry struct {
	seq        uint64
	chunkID    string
	documentID string
	vec        []float32
}

// Index is a brute-force cosine similarity index guarded by a RWMutex.
// Mutations are serialised; searches run concurrently with each other.
type Index struct {
	mu           sync.RWMutex
	dims         int
	maxDocuments int
	next         uint64
	entries      []entry
	chunks       map[string]struct{}
	docs         map[string]int
	closed       bool
}

// Option configures an Index.
type Option func(*Index)

// WithMaxDocuments makes the index refuse vectors of a new document once it
// holds n documents. Zero means unbounded.
func WithMaxDocuments(n int) Option {
	return func(i *Index) {
		i.maxDocuments = n
	}
}

// NewIndex creates an index for vectors of the given dimension.
func NewIndex(dims int, opts ...Option) (*Index, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("%w: index dimensions must be positive, got %d", domain.ErrInvalidInput, dims)
	}
	idx := &Index{
		dims:   dims,
		chunks: make(map[string]struct{}),
		docs:   make(map[string]int),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx, nil
}

// Add inserts one chunk vector.
func (i *Index) Add(ctx context.Context, documentID, chunkID string, embedding []float32) error {
	return i.AddDocument(ctx, documentID, []driven.VectorEntry{{ChunkID: chunkID, Embedding: embedding}})
}

// AddDocument inserts all vectors of a document under one lock, so a search
// sees either none or all of them. Entries keep their slice order.
func (i *Index) AddDocument(ctx context.Context, documentID string, entries []driven.VectorEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if documentID == "" {
		return fmt.Errorf("%w: document ID is required", domain.ErrInvalidInput)
	}

	// Validate and normalise outside the lock.
	prepared := make([]entry, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for n, e := range entries {
		if len(e.Embedding) != i.dims {
			return fmt.Errorf("%w: chunk %s has %d dimensions, index has %d",
				domain.ErrIndexCorruption, e.ChunkID, len(e.Embedding), i.dims)
		}
		if _, dup := seen[e.ChunkID]; dup || e.ChunkID == "" {
			return fmt.Errorf("%w: invalid or duplicate chunk ID %q", domain.ErrInvalidInput, e.ChunkID)
		}
		seen[e.ChunkID] = struct{}{}
		prepared[n] = entry{chunkID: e.ChunkID, documentID: documentID, vec: normalise(e.Embedding)}
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return fmt.Errorf("%w: index closed", domain.ErrConversationClosed)
	}
	if _, exists := i.docs[documentID]; !exists && i.maxDocuments > 0 && len(i.docs) >= i.maxDocuments {
		return fmt.Errorf("%w: index holds %d documents", domain.ErrDocumentCapReached, len(i.docs))
	}
	for _, e := range prepared {
		if _, exists := i.chunks[e.chunkID]; exists {
			return fmt.Errorf("%w: chunk %s already indexed", domain.ErrInvalidInput, e.chunkID)
		}
	}
	if len(prepared) == 0 {
		return nil
	}

	for _, e := range prepared {
		e.seq = i.next
		i.next++
		i.entries = append(i.entries, e)
		i.chunks[e.chunkID] = struct{}{}
	}
	i.docs[documentID] += len(prepared)
	return nil
}

// Remove deletes every vector of a document.
func (i *Index) Remove(_ context.Context, documentID string) (int, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if _, ok := i.docs[documentID]; !ok {
		return 0, nil
	}

	kept := i.entries[:0]
	removed := 0
	for _, e := range i.entries {
		if e.documentID == documentID {
			delete(i.chunks, e.chunkID)
			removed++
			continue
		}
		kept = append(kept, e)
	}
	// Clear the tail so removed vectors can be collected.
	for n := len(kept); n < len(i.entries); n++ {
		i.entries[n] = entry{}
	}
	i.entries = kept
	delete(i.docs, documentID)
	return removed, nil
}

// Search returns at most k hits by descending similarity. Equal scores keep
// insertion order.
func (i *Index) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(query) != i.dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrIndexCorruption, len(query), i.dims)
	}
	if k <= 0 {
		return nil, nil
	}
	q := normalise(query)

	i.mu.RLock()
	defer i.mu.RUnlock()

	type scored struct {
		e     *entry
		score float64
	}
	results := make([]scored, len(i.entries))
	for n := range i.entries {
		results[n] = scored{e: &i.entries[n], score: dot(q, i.entries[n].vec)}
	}
	sort.SliceStable(results, func(a, b int) bool {
		if results[a].score != results[b].score {
			return results[a].score > results[b].score
		}
		return results[a].e.seq < results[b].e.seq
	})

	if k > len(results) {
		k = len(results)
	}
	hits := make([]driven.VectorHit, k)
	for n := 0; n < k; n++ {
		hits[n] = driven.VectorHit{
			ChunkID:    results[n].e.chunkID,
			DocumentID: results[n].e.documentID,
			Similarity: results[n].score,
		}
	}
	return hits, nil
}

// Len returns the number of vectors in the index.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.entries)
}

// DocumentCount returns the number of distinct documents in the index.
func (i *Index) DocumentCount() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.docs)
}

// Dimensions returns the fixed vector size.
func (i *Index) Dimensions() int {
	return i.dims
}

// Close drops every vector. Later mutations fail.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.entries = nil
	i.chunks = make(map[string]struct{})
	i.docs = make(map[string]int)
	i.closed = true
	return nil
}

// normalise returns a unit-length copy of v. The zero vector stays zero.
func normalise(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if sum == 0 {
		return out
	}
	norm := math.Sqrt(sum)
	for n, x := range v {
		out[n] = float32(float64(x) / norm)
	}
	return out
}

func dot(a, b []float32) float64 {
	var sum float64
	for n := range a {
		sum += float64(a[n]) * float64(b[n])
	}
	return sum
}
