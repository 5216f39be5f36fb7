package driven

import "context"

// VectorIndex provides cosine similarity search over chunk embeddings of a
// single conversation. Mutations are mutually exclusive; searches run
// concurrently and see either all or none of a document's vectors.
type VectorIndex interface {
	// Add inserts one chunk vector. The vector is normalised to unit length.
	Add(ctx context.Context, documentID, chunkID string, embedding []float32) error

	// AddDocument inserts all vectors of one document atomically.
	AddDocument(ctx context.Context, documentID string, entries []VectorEntry) error

	// Remove deletes every vector of a document and returns how many were removed.
	Remove(ctx context.Context, documentID string) (int, error)

	// Search returns at most k hits by descending similarity. Ties go to the
	// earliest inserted chunk.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Len returns the number of vectors in the index.
	Len() int

	// DocumentCount returns the number of distinct documents in the index.
	DocumentCount() int

	// Dimensions returns the fixed vector size.
	Dimensions() int

	// Close releases resources.
	Close() error
}

// VectorEntry is one chunk vector of a document.
type VectorEntry struct {
	ChunkID   string
	Embedding []float32
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// DocumentID is the chunk's document.
	DocumentID string

	// Similarity is the cosine similarity score.
	Similarity float64
}
