package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sanad/internal/core/domain"
	"github.com/custodia-labs/sanad/internal/core/ports/driven"
)

// ProvenanceMapper resolves chunk hits to citations, one per page span.
type ProvenanceMapper struct {
	store driven.DocumentStore
}

// NewProvenanceMapper creates a mapper reading chunks from store.
func NewProvenanceMapper(store driven.DocumentStore) *ProvenanceMapper {
	return &ProvenanceMapper{store: store}
}

// Resolve returns one citation per original span of the chunk, pages
// ascending, all carrying score and the chunk text.
func (m *ProvenanceMapper) Resolve(ctx context.Context, chunkID string, score float64) ([]domain.Citation, error) {
	chunk, err := m.store.GetChunk(ctx, chunkID)
	if err != nil {
		return nil, fmt.Errorf("chunk %s: %w", chunkID, err)
	}
	doc, err := m.store.GetDocument(ctx, chunk.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", chunk.DocumentID, err)
	}
	return Citations(*chunk, doc.Filename, score)
}

// Citations expands a chunk into its citations.
func Citations(chunk domain.Chunk, filename string, score float64) ([]domain.Citation, error) {
	if len(chunk.OriginalSpans) == 0 {
		return nil, fmt.Errorf("%w: chunk %s has no original spans", domain.ErrIndexCorruption, chunk.ID)
	}

	citations := make([]domain.Citation, len(chunk.OriginalSpans))
	for i, span := range chunk.OriginalSpans {
		citations[i] = domain.Citation{
			DocumentID: chunk.DocumentID,
			Filename:   filename,
			ChunkID:    chunk.ID,
			Page:       span.Page,
			LineStart:  span.LineStart,
			LineEnd:    span.LineEnd,
			Score:      score,
			ChunkText:  chunk.Content,
		}
	}
	return citations, nil
}
