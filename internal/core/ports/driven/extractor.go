package driven

import (
	"context"

	"github.com/custodia-labs/sanad/internal/core/domain"
)

// Extractor extracts text from one upload format.
// Implementations hold no mutable state between calls.
type Extractor interface {
	// Format returns the format this extractor handles.
	Format() domain.Format

	// Extract returns the text and its page/line table.
	// Failures are *domain.ExtractionError.
	Extract(ctx context.Context, documentID string, content []byte) (*domain.ExtractedText, error)
}

// ExtractorRegistry selects the extractor for a format.
type ExtractorRegistry interface {
	// Get returns the extractor for a format.
	Get(format domain.Format) (Extractor, error)

	// Detect resolves the format of an upload from its declared format,
	// filename and content.
	Detect(upload domain.Upload) (domain.Format, error)
}
