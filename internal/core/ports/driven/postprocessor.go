package driven

import (
	"context"

	"github.com/custodia-labs/sanad/internal/core/domain"
)

// PostProcessor processes normalised text to produce chunks.
// PostProcessors are chained in a pipeline (e.g., chunking, provenance).
type PostProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process takes a document and returns chunks.
	// If the processor modifies chunks (e.g., provenance), it receives and returns chunks.
	// If the processor creates chunks (e.g., chunker), it receives nil and returns new chunks.
	Process(ctx context.Context, doc *domain.NormalisedDocument, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// PostProcessorPipeline chains multiple PostProcessors.
type PostProcessorPipeline interface {
	// Process runs the document through all processors in order.
	// Returns the final chunks after all processing.
	Process(ctx context.Context, doc *domain.NormalisedDocument) ([]domain.Chunk, error)
}
