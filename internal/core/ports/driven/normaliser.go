package driven

import (
	"context"

	"github.com/custodia-labs/sanad/internal/core/domain"
)

// Normaliser rewrites extracted text into its canonical search form.
// Normalisation never fails: spans no rule can handle pass through unchanged
// and are reported as warnings.
type Normaliser interface {
	// Normalise returns the normalised text and its offset map.
	Normalise(ctx context.Context, text *domain.ExtractedText) *domain.NormalisedText

	// DetectLanguage returns the dominant language of a text.
	DetectLanguage(text string) domain.Language
}
