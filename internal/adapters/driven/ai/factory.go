// Package ai provides factory functions for creating embedding service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/sanad/internal/adapters/driven/embedding/hashing"
	ollamaembed "github.com/custodia-labs/sanad/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/sanad/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/sanad/internal/adapters/driven/embedding/resilient"
	"github.com/custodia-labs/sanad/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sanad/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sanad/internal/core/domain"
	"github.com/custodia-labs/sanad/internal/core/ports/driven"
	"github.com/custodia-labs/sanad/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// CreateAndValidateEmbeddingService creates the full embedder stack and, for
// providers reached over the network, validates connectivity.
func CreateAndValidateEmbeddingService(settings domain.EmbeddingSettings, dataDir string) (driven.EmbeddingService, error) {
	svc, err := CreateEmbedder(settings, dataDir)
	if err != nil {
		return nil, err
	}

	if settings.Provider == domain.AIProviderHashing {
		return svc, nil
	}

	// Validate connectivity.
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w. Check [embedding] in the config file", err)
	}

	return svc, nil
}

// CreateEmbedder creates the embedding service for settings wrapped with
// timeouts, retries, rate limiting and the configured cache. It fails with
// domain.ErrIndexCorruption when the provider's dimension disagrees with the
// configured one.
func CreateEmbedder(settings domain.EmbeddingSettings, dataDir string) (driven.EmbeddingService, error) {
	// Ollama models have a fixed output size.
	if known := domain.EmbeddingDimensions()[settings.Model]; settings.Provider == domain.AIProviderOllama &&
		known > 0 && settings.Dimensions > 0 && known != settings.Dimensions {
		return nil, fmt.Errorf("%w: model %s produces %d dimensions, configured %d",
			domain.ErrIndexCorruption, settings.Model, known, settings.Dimensions)
	}

	inner, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, err
	}

	if settings.Dimensions > 0 && inner.Dimensions() != settings.Dimensions {
		inner.Close()
		return nil, fmt.Errorf("%w: %s produces %d dimensions, configured %d",
			domain.ErrIndexCorruption, inner.ModelName(), inner.Dimensions(), settings.Dimensions)
	}

	cache, err := CreateEmbeddingCache(settings, dataDir)
	if err != nil {
		inner.Close()
		return nil, err
	}

	maxRetries := settings.MaxRetries
	if maxRetries == 0 {
		maxRetries = -1
	}

	logger.Debug("embedder: provider=%s model=%s dims=%d cache=%s",
		settings.Provider, inner.ModelName(), inner.Dimensions(), settings.Cache)

	return resilient.New(inner, resilient.Config{
		Timeout:    time.Duration(settings.TimeoutSeconds) * time.Second,
		MaxRetries: maxRetries,
		RateLimit: resilient.RateLimitConfig{
			RequestsPerSecond: settings.RequestsPerSecond,
		},
		Cache: cache,
	}), nil
}

// CreateEmbeddingService creates the embedding service for a provider without
// any wrapping.
func CreateEmbeddingService(settings domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if !settings.Provider.IsValid() {
		return nil, fmt.Errorf("%w: embedding provider %q", domain.ErrUnsupportedType, settings.Provider)
	}
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: embedding provider %s requires an api_key",
			domain.ErrInvalidInput, settings.Provider)
	}

	switch settings.Provider {
	case domain.AIProviderHashing:
		return createHashingEmbedding(settings), nil

	case domain.AIProviderOllama:
		return createOllamaEmbedding(settings), nil

	case domain.AIProviderOpenAI:
		return createOpenAIEmbedding(settings)

	default:
		return nil, fmt.Errorf("%w: embedding provider %q", domain.ErrUnsupportedType, settings.Provider)
	}
}

// CreateEmbeddingCache creates the configured embedding cache. CacheNone
// returns a nil cache.
func CreateEmbeddingCache(settings domain.EmbeddingSettings, dataDir string) (driven.EmbeddingCache, error) {
	switch settings.Cache {
	case domain.CacheNone, "":
		return nil, nil

	case domain.CacheMemory:
		cache, err := memory.NewEmbeddingCache(settings.CacheSize)
		if err != nil {
			return nil, err
		}
		return cache, nil

	case domain.CacheSQLite:
		store, err := sqlite.NewStore(dataDir)
		if err != nil {
			return nil, fmt.Errorf("opening embedding cache: %w", err)
		}
		return store.EmbeddingCache(), nil

	default:
		return nil, fmt.Errorf("%w: embedding cache %q", domain.ErrUnsupportedType, settings.Cache)
	}
}

// dimensionsFor returns the configured dimension, else the known dimension
// of the model, else fallback.
func dimensionsFor(settings domain.EmbeddingSettings, fallback int) int {
	if settings.Dimensions > 0 {
		return settings.Dimensions
	}
	if d := domain.EmbeddingDimensions()[settings.Model]; d > 0 {
		return d
	}
	return fallback
}

// createHashingEmbedding creates the offline hashing embedding service.
func createHashingEmbedding(settings domain.EmbeddingSettings) driven.EmbeddingService {
	return hashing.NewEmbeddingService(hashing.Config{
		Model:      settings.Model,
		Dimensions: dimensionsFor(settings, hashing.DefaultDimensions),
	})
}

// createOllamaEmbedding creates an Ollama embedding service.
func createOllamaEmbedding(settings domain.EmbeddingSettings) driven.EmbeddingService {
	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: dimensionsFor(settings, ollamaembed.DefaultDimensions),
	})
}

// createOpenAIEmbedding creates an OpenAI embedding service.
func createOpenAIEmbedding(settings domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:     settings.APIKey,
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: dimensionsFor(settings, 0),
	})
	if err != nil {
		return nil, err
	}
	return svc, nil
}
