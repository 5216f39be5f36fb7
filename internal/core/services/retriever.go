package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/sanad/internal/core/domain"
	"github.com/custodia-labs/sanad/internal/core/ports/driven"
	"github.com/custodia-labs/sanad/internal/logger"
)

// Retriever turns a question into ranked citations over one index.
type Retriever struct {
	embedder   driven.EmbeddingService
	normaliser driven.Normaliser
}

// NewRetriever creates a retriever. Questions are normalised with the same
// normaliser as documents before they are embedded.
func NewRetriever(embedder driven.EmbeddingService, normaliser driven.Normaliser) *Retriever {
	return &Retriever{embedder: embedder, normaliser: normaliser}
}

// Retrieval is the result of one query.
type Retrieval struct {
	// Citations ranked by descending score. Citations of one chunk are
	// adjacent with pages ascending.
	Citations []domain.Citation

	// HitDocuments lists the documents with at least one citation.
	HitDocuments []string
}

// Retrieve embeds the question, takes the top k hits from index, drops those
// scoring below minScore and resolves the rest through mapper. Scores are
// cosine similarities clamped to [0, 1].
func (r *Retriever) Retrieve(
	ctx context.Context,
	index driven.VectorIndex,
	mapper *ProvenanceMapper,
	question string,
	k int,
	minScore float64,
) (*Retrieval, error) {
	logger.Section("Retrieval")
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidInput, k)
	}

	normalised := r.normaliser.Normalise(ctx, &domain.ExtractedText{Text: question})
	logger.Debug("Query %q normalised to %q", question, strings.TrimSpace(normalised.Text))

	vec, err := r.embedder.Embed(ctx, normalised.Text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := index.Search(ctx, vec, k)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	logger.Debug("Index returned %d hit(s) for k=%d", len(hits), k)

	result := &Retrieval{Citations: []domain.Citation{}}
	seen := make(map[string]bool)
	for _, hit := range hits {
		score := clampScore(hit.Similarity)
		if score < minScore {
			continue
		}
		citations, err := mapper.Resolve(ctx, hit.ChunkID, score)
		if errors.Is(err, domain.ErrNotFound) {
			// Removed between search and resolve.
			logger.Debug("Skipping hit %s: %v", hit.ChunkID, err)
			continue
		}
		if err != nil {
			return nil, err
		}
		result.Citations = append(result.Citations, citations...)
		if !seen[hit.DocumentID] {
			seen[hit.DocumentID] = true
			result.HitDocuments = append(result.HitDocuments, hit.DocumentID)
		}
	}

	sort.SliceStable(result.Citations, func(i, j int) bool {
		return result.Citations[i].Score > result.Citations[j].Score
	})
	logger.Info("Retrieved %d citation(s) from %d document(s)", len(result.Citations), len(result.HitDocuments))
	return result, nil
}

func clampScore(s float64) float64 {
	switch {
	case s < 0:
		return 0
	case s > 1:
		return 1
	default:
		return s
	}
}
