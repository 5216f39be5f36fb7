package domain

import (
	"errors"
	"fmt"
)

const unknownDescription = "Unknown"

// AIProvider identifies an embedding service provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderHashing is the built-in offline feature-hashing embedder.
	AIProviderHashing AIProvider = "hashing"

	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderHashing, AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// IsLocal returns true if this provider runs without network access to a
// third party.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderHashing
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderHashing:
		return "Hashing (offline, built in)"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	default:
		return unknownDescription
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderHashing,
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderHashing: "hashing-v1",
		AIProviderOllama:  "bge-m3",
		AIProviderOpenAI:  "text-embedding-3-small",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Built in
		"hashing-v1": 512,
		// Ollama models
		"bge-m3":            1024,
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}

// CacheKind selects the embedding cache backend.
type CacheKind string

// Available cache kinds.
const (
	CacheNone   CacheKind = "none"
	CacheMemory CacheKind = "memory"
	CacheSQLite CacheKind = "sqlite"
)

// IsValid returns true if the cache kind is recognised.
func (k CacheKind) IsValid() bool {
	switch k {
	case CacheNone, CacheMemory, CacheSQLite:
		return true
	default:
		return false
	}
}

// PipelineSettings holds the document pipeline configuration.
// It is read once at start-up and never changes afterwards.
type PipelineSettings struct {
	// ChunkSize is the target chunk length in runes.
	ChunkSize int

	// ChunkOverlap is how far the next chunk starts before the previous end.
	ChunkOverlap int

	// MaxDocuments is the per-conversation document cap.
	MaxDocuments int

	// TopK is the default number of chunk hits per query.
	TopK int

	// MinScore is the default similarity floor.
	MinScore float64

	// IngestWorkers bounds concurrent document ingestion.
	IngestWorkers int

	// LinesPerPage synthesises pages for plain text. Zero disables it.
	LinesPerPage int
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions is the process-wide embedding dimension.
	Dimensions int

	// TimeoutSeconds bounds a single embedding call.
	TimeoutSeconds int

	// MaxRetries bounds retries of a failed embedding call.
	MaxRetries int

	// RequestsPerSecond limits embedding calls. Zero means unlimited.
	RequestsPerSecond float64

	// Cache selects the embedding cache backend.
	Cache CacheKind

	// CacheSize is the entry limit of the in-memory cache.
	CacheSize int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// Settings holds all application settings.
type Settings struct {
	// Pipeline holds chunking, cap and retrieval settings.
	Pipeline PipelineSettings

	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// PostProcessors holds the post-processor pipeline configuration.
	PostProcessors PipelineConfig
}

// DefaultSettings returns settings that work offline out of the box.
func DefaultSettings() Settings {
	return Settings{
		Pipeline: PipelineSettings{
			ChunkSize:     500,
			ChunkOverlap:  100,
			MaxDocuments:  5,
			TopK:          5,
			MinScore:      0.2,
			IngestWorkers: 4,
		},
		Embedding: EmbeddingSettings{
			Provider:       AIProviderHashing,
			Model:          "hashing-v1",
			Dimensions:     512,
			TimeoutSeconds: 30,
			MaxRetries:     3,
			Cache:          CacheMemory,
			CacheSize:      4096,
		},
		PostProcessors: DefaultPipelineConfig(),
	}
}

// Validate checks the settings are internally consistent.
func (s Settings) Validate() error {
	var errs []error
	p := s.Pipeline
	if p.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("chunk_size must be positive, got %d", p.ChunkSize))
	}
	if p.ChunkOverlap < 0 || p.ChunkOverlap >= p.ChunkSize {
		errs = append(errs, fmt.Errorf("chunk_overlap must be in [0, chunk_size), got %d", p.ChunkOverlap))
	}
	if p.MaxDocuments <= 0 {
		errs = append(errs, fmt.Errorf("max_documents must be positive, got %d", p.MaxDocuments))
	}
	if p.TopK <= 0 {
		errs = append(errs, fmt.Errorf("top_k must be positive, got %d", p.TopK))
	}
	if p.MinScore < 0 || p.MinScore > 1 {
		errs = append(errs, fmt.Errorf("min_score must be in [0, 1], got %g", p.MinScore))
	}
	if p.IngestWorkers <= 0 {
		errs = append(errs, fmt.Errorf("ingest_workers must be positive, got %d", p.IngestWorkers))
	}
	if p.LinesPerPage < 0 {
		errs = append(errs, fmt.Errorf("lines_per_page must not be negative, got %d", p.LinesPerPage))
	}

	e := s.Embedding
	if !e.Provider.IsValid() {
		errs = append(errs, fmt.Errorf("unknown embedding provider %q", e.Provider))
	} else if !e.IsConfigured() {
		errs = append(errs, fmt.Errorf("embedding provider %s requires an api_key", e.Provider))
	}
	if e.Dimensions <= 0 {
		errs = append(errs, fmt.Errorf("embedding dimensions must be positive, got %d", e.Dimensions))
	}
	if e.TimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("timeout_seconds must be positive, got %d", e.TimeoutSeconds))
	}
	if e.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("max_retries must not be negative, got %d", e.MaxRetries))
	}
	if e.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("requests_per_second must not be negative, got %g", e.RequestsPerSecond))
	}
	if !e.Cache.IsValid() {
		errs = append(errs, fmt.Errorf("unknown embedding cache %q", e.Cache))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return nil
}

// PipelineConfig holds post-processor pipeline configuration.
// Uses generic map-based config for extensibility - new processors can be added
// without modifying this struct.
type PipelineConfig struct {
	// Processors is the ordered list of processor names to run.
	Processors []string

	// ProcessorConfigs holds per-processor configuration as generic maps.
	// Key is processor name, value is processor-specific config.
	ProcessorConfigs map[string]map[string]any
}

// GetProcessorConfig returns config for a specific processor, or nil if not set.
func (c *PipelineConfig) GetProcessorConfig(name string) map[string]any {
	if c.ProcessorConfigs == nil {
		return nil
	}
	return c.ProcessorConfigs[name]
}

// DefaultPipelineConfig returns the default pipeline configuration. The
// chunker takes its size and overlap from PipelineSettings unless a
// processor config overrides them.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Processors: []string{"chunker", "provenance"},
	}
}
