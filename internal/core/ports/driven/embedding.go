package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Note: This is separate from VectorIndex which stores and searches vectors.
// EmbeddingService generates vectors; VectorIndex stores them.
//
// Implementations may include:
//   - Hashing (offline feature hashing, deterministic)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (bge-m3, nomic-embed-text)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	// The result has one vector per input, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 1024, 1536).
	// It is fixed for the life of the process and must match VectorIndex.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// EmbeddingCache stores embeddings keyed by model and text.
// This is an optional port - when nil, every text is embedded.
type EmbeddingCache interface {
	// Get returns a cached embedding and whether it was found.
	Get(ctx context.Context, model, text string) ([]float32, bool, error)

	// Put stores an embedding.
	Put(ctx context.Context, model, text string, embedding []float32) error

	// Close releases resources.
	Close() error
}
