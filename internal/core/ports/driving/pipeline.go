package driving

import (
	"context"

	"github.com/custodia-labs/sanad/internal/core/domain"
)

// PipelineService opens conversations over a configured document pipeline.
type PipelineService interface {
	// NewConversation opens a conversation with an empty index.
	// Returns domain.ErrAlreadyExists if a conversation with the ID is open.
	NewConversation(id string) (Conversation, error)

	// Inspect runs extraction, normalisation and chunking without embedding.
	Inspect(ctx context.Context, upload domain.Upload) (*domain.Inspection, error)

	// Settings returns the immutable settings the pipeline was built with.
	Settings() domain.Settings

	// Close releases the embedder and cache.
	Close() error
}

// Conversation is a session owning one conversation index. It is safe for
// concurrent use; queries see a consistent snapshot while ingestion runs.
type Conversation interface {
	// ID returns the conversation ID.
	ID() string

	// ProcessDocument ingests one upload. Failures are
	// *domain.ExtractionError or wrap domain.ErrEmbeddingUnavailable.
	ProcessDocument(ctx context.Context, upload domain.Upload) (*domain.IngestResult, error)

	// ProcessDocuments ingests uploads concurrently and commits them to the
	// index in upload order. One outcome is returned per upload.
	ProcessDocuments(ctx context.Context, uploads []domain.Upload) []domain.IngestOutcome

	// Query returns citations ranked by descending score.
	Query(ctx context.Context, question string, opts domain.QueryOptions) ([]domain.Citation, error)

	// ReplaceDocument ingests upload as the new version of documentID. The
	// old version is removed only once the new one is ready to commit, so a
	// failed ingestion leaves it searchable. An unknown documentID is not an
	// error; the upload is then simply added.
	ReplaceDocument(ctx context.Context, documentID string, upload domain.Upload) (*domain.IngestResult, error)

	// RemoveDocument drops a document and its chunks.
	// Returns domain.ErrNotFound for unknown IDs.
	RemoveDocument(ctx context.Context, documentID string) error

	// Documents returns the active documents in upload order.
	Documents() []domain.Document

	// ChunkCount returns the number of chunks in the index.
	ChunkCount() int

	// Close cancels in-flight ingestion, waits for it and drops the index.
	Close() error
}
