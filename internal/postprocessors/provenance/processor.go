// Package provenance provides the post-processor that attaches original
// page/line spans to chunks.
package provenance

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/sanad/internal/core/domain"
)

// Name is the registry name of the processor.
const Name = "provenance"

// Processor translates each chunk's normalised range through the offset
// map and the position table into OriginalSpans.
// It implements the PostProcessor interface.
type Processor struct{}

// New creates a provenance processor.
func New() *Processor {
	return &Processor{}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return Name
}

// Process sets OriginalSpans on every chunk. A chunk that cannot be
// attributed to any line is an index invariant violation.
func (p *Processor) Process(_ context.Context, doc *domain.NormalisedDocument, chunks []domain.Chunk) ([]domain.Chunk, error) {
	if doc == nil || doc.Extracted == nil || doc.Normalised == nil {
		return nil, errors.New("provenance: document has no extracted or normalised text")
	}

	positions := doc.Extracted.Positions
	offsets := doc.Normalised.Map

	out := make([]domain.Chunk, len(chunks))
	for i, c := range chunks {
		start, end := offsets.ForwardRange(c.NormalisedStart, c.NormalisedEnd)
		spans := positions.Spans(start, end)
		if len(spans) == 0 {
			return nil, fmt.Errorf("%w: chunk %s [%d,%d) maps to no original line",
				domain.ErrIndexCorruption, c.ID, c.NormalisedStart, c.NormalisedEnd)
		}
		c.OriginalSpans = spans
		out[i] = c
	}
	return out, nil
}
