// Package hashing provides an offline embedding service based on feature
// hashing. It needs no model or network and is deterministic, which makes it
// the default provider and the provider used in tests.
//
// Each text is tokenised into letter and digit runs. Every token contributes
// a whole-word feature and its boundary-marked character trigrams, so Arabic
// words that differ only by a clitic prefix still share most features.
// Features are hashed into a fixed number of signed buckets and the vector is
// L2-normalised.
package hashing

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"

	"github.com/custodia-labs/sanad/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultModel      = "hashing-v1"
	DefaultDimensions = 512
)

const (
	wordWeight    = 1.0
	trigramWeight = 0.5
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{M}]+|\p{N}+`)

// Config holds configuration for the hashing embedding service.
type Config struct {
	// Model is reported by ModelName and keys the embedding cache.
	Model string

	// Dimensions is the number of hash buckets (default: 512).
	Dimensions int
}

// EmbeddingService generates embeddings by feature hashing.
type EmbeddingService struct {
	model      string
	dimensions int
	stopwords  map[string]struct{}
}

// NewEmbeddingService creates a new hashing embedding service.
func NewEmbeddingService(cfg Config) *EmbeddingService {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = DefaultDimensions
	}
	return &EmbeddingService{
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		stopwords:  defaultStopwords(),
	}
}

// Embed generates a vector embedding for the given text. Text without any
// content token yields the zero vector.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	acc := make([]float64, s.dimensions)
	for _, tok := range s.tokenize(text) {
		s.add(acc, "w:"+tok, wordWeight)
		runes := []rune("^" + tok + "$")
		for i := 0; i+3 <= len(runes); i++ {
			s.add(acc, "t:"+string(runes[i:i+3]), trigramWeight)
		}
	}

	var norm float64
	for _, v := range acc {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	vec := make([]float32, s.dimensions)
	if norm == 0 {
		return vec, nil
	}
	for i, v := range acc {
		vec[i] = float32(v / norm)
	}
	return vec, nil
}

// EmbedBatch generates embeddings for multiple texts.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embedding, err := s.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = embedding
	}
	return embeddings, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping always succeeds.
func (s *EmbeddingService) Ping(_ context.Context) error {
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}

func (s *EmbeddingService) tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	tokens := raw[:0]
	for _, tok := range raw {
		if _, stop := s.stopwords[tok]; stop {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// add hashes a feature into a bucket. A second hash bit picks the sign so
// collisions tend to cancel rather than accumulate.
func (s *EmbeddingService) add(acc []float64, feature string, weight float64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()
	bucket := int(sum % uint64(s.dimensions))
	if sum>>63 == 1 {
		weight = -weight
	}
	acc[bucket] += weight
}
