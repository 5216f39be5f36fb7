package services

import (
	"fmt"

	"github.com/custodia-labs/sanad/internal/core/domain"
	"github.com/custodia-labs/sanad/internal/core/ports/driven"
	"github.com/custodia-labs/sanad/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyChunkSize     = "pipeline.chunk_size"
	keyChunkOverlap  = "pipeline.chunk_overlap"
	keyMaxDocuments  = "pipeline.max_documents"
	keyTopK          = "pipeline.top_k"
	keyMinScore      = "pipeline.min_score"
	keyIngestWorkers = "pipeline.ingest_workers"
	keyLinesPerPage  = "pipeline.lines_per_page"

	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyEmbedDims       = "embedding.dimensions"
	keyEmbedTimeout    = "embedding.timeout_seconds"
	keyEmbedRetries    = "embedding.max_retries"
	keyEmbedRate       = "embedding.requests_per_second"
	keyEmbedCache      = "embedding.cache"
	keyEmbedCacheSize  = "embedding.cache_size"
	keyProcessorOrder  = "postprocessors.order"
	processorKeyPrefix = "postprocessors."
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Load reads settings from the config store over the defaults and validates
// them. The result is meant to be read once at start-up.
func (s *SettingsService) Load() (domain.Settings, error) {
	defaults := domain.DefaultSettings()

	provider := s.getProvider(keyEmbedProvider, defaults.Embedding.Provider)
	model := s.getString(keyEmbedModel, domain.DefaultEmbeddingModels()[provider])

	settings := domain.Settings{
		Pipeline: domain.PipelineSettings{
			ChunkSize:     s.getInt(keyChunkSize, defaults.Pipeline.ChunkSize),
			ChunkOverlap:  s.getInt(keyChunkOverlap, defaults.Pipeline.ChunkOverlap),
			MaxDocuments:  s.getInt(keyMaxDocuments, defaults.Pipeline.MaxDocuments),
			TopK:          s.getInt(keyTopK, defaults.Pipeline.TopK),
			MinScore:      s.getFloat(keyMinScore, defaults.Pipeline.MinScore),
			IngestWorkers: s.getInt(keyIngestWorkers, defaults.Pipeline.IngestWorkers),
			LinesPerPage:  s.getInt(keyLinesPerPage, defaults.Pipeline.LinesPerPage),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:          provider,
			Model:             model,
			BaseURL:           s.configStore.GetString(keyEmbedBaseURL), // No default - adapters know theirs
			APIKey:            s.configStore.GetString(keyEmbedAPIKey),
			Dimensions:        s.getInt(keyEmbedDims, domain.EmbeddingDimensions()[model]),
			TimeoutSeconds:    s.getInt(keyEmbedTimeout, defaults.Embedding.TimeoutSeconds),
			MaxRetries:        s.getInt(keyEmbedRetries, defaults.Embedding.MaxRetries),
			RequestsPerSecond: s.getFloat(keyEmbedRate, defaults.Embedding.RequestsPerSecond),
			Cache:             domain.CacheKind(s.getString(keyEmbedCache, string(defaults.Embedding.Cache))),
			CacheSize:         s.getInt(keyEmbedCacheSize, defaults.Embedding.CacheSize),
		},
		PostProcessors: s.GetPipelineConfig(),
	}

	if err := settings.Validate(); err != nil {
		return settings, fmt.Errorf("config %s: %w", s.configStore.Path(), err)
	}
	return settings, nil
}

// Save persists application settings. An empty API key is not written so
// that a stored key survives.
func (s *SettingsService) Save(settings domain.Settings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyChunkSize, settings.Pipeline.ChunkSize},
		{keyChunkOverlap, settings.Pipeline.ChunkOverlap},
		{keyMaxDocuments, settings.Pipeline.MaxDocuments},
		{keyTopK, settings.Pipeline.TopK},
		{keyMinScore, settings.Pipeline.MinScore},
		{keyIngestWorkers, settings.Pipeline.IngestWorkers},
		{keyLinesPerPage, settings.Pipeline.LinesPerPage},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedDims, settings.Embedding.Dimensions},
		{keyEmbedTimeout, settings.Embedding.TimeoutSeconds},
		{keyEmbedRetries, settings.Embedding.MaxRetries},
		{keyEmbedRate, settings.Embedding.RequestsPerSecond},
		{keyEmbedCache, string(settings.Embedding.Cache)},
		{keyEmbedCacheSize, settings.Embedding.CacheSize},
		{keyProcessorOrder, settings.PostProcessors.Processors},
	}
	if settings.Embedding.APIKey != "" {
		values = append(values, struct {
			key   string
			value any
		}{keyEmbedAPIKey, settings.Embedding.APIKey})
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// SetEmbeddingProvider updates the embedding provider and model. The
// dimension follows the model when it is known.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: unknown embedding provider %q", domain.ErrInvalidInput, provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" && s.configStore.GetString(keyEmbedAPIKey) == "" {
		return fmt.Errorf("%w: %s requires an API key", domain.ErrInvalidInput, provider)
	}
	if model == "" {
		model = domain.DefaultEmbeddingModels()[provider]
	}

	if err := s.configStore.Set(keyEmbedProvider, provider.String()); err != nil {
		return fmt.Errorf("save embedding provider: %w", err)
	}
	if err := s.configStore.Set(keyEmbedModel, model); err != nil {
		return fmt.Errorf("save embedding model: %w", err)
	}
	if dims := domain.EmbeddingDimensions()[model]; dims > 0 {
		if err := s.configStore.Set(keyEmbedDims, dims); err != nil {
			return fmt.Errorf("save embedding dimensions: %w", err)
		}
	}
	if apiKey != "" {
		if err := s.configStore.Set(keyEmbedAPIKey, apiKey); err != nil {
			return fmt.Errorf("save embedding api_key: %w", err)
		}
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}

// GetPipelineConfig returns the post-processor pipeline configuration.
// Returns default configuration if nothing is configured.
func (s *SettingsService) GetPipelineConfig() domain.PipelineConfig {
	defaults := domain.DefaultPipelineConfig()

	if processors := s.configStore.GetStringSlice(keyProcessorOrder); len(processors) > 0 {
		defaults.Processors = processors
	}

	for _, name := range defaults.Processors {
		cfg := s.loadProcessorConfig(processorKeyPrefix + name + ".")
		if len(cfg) == 0 {
			continue
		}
		if defaults.ProcessorConfigs == nil {
			defaults.ProcessorConfigs = make(map[string]map[string]any)
		}
		existing := defaults.ProcessorConfigs[name]
		if existing == nil {
			existing = make(map[string]any)
		}
		for k, v := range cfg {
			existing[k] = v
		}
		defaults.ProcessorConfigs[name] = existing
	}

	return defaults
}

// loadProcessorConfig loads config keys with a given prefix into a map.
func (s *SettingsService) loadProcessorConfig(prefix string) map[string]any {
	cfg := make(map[string]any)

	knownKeys := []string{"chunk_size", "overlap"}
	for _, key := range knownKeys {
		if val, exists := s.configStore.Get(prefix + key); exists {
			cfg[key] = val
		}
	}

	return cfg
}

func (s *SettingsService) getString(key, defaultVal string) string {
	if val := s.configStore.GetString(key); val != "" {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); exists {
		return s.configStore.GetInt(key)
	}
	return defaultVal
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); exists {
		return s.configStore.GetFloat(key)
	}
	return defaultVal
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	// Unknown providers are kept so validation can name them.
	return domain.AIProvider(val)
}
