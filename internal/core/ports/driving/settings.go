package driving

import "github.com/custodia-labs/sanad/internal/core/domain"

// SettingsService reads and writes application settings.
type SettingsService interface {
	// Load reads settings from the config store, filling defaults.
	Load() (domain.Settings, error)

	// Save persists settings.
	Save(settings domain.Settings) error

	// SetEmbeddingProvider configures the embedding provider.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error

	// GetDefaults returns default settings.
	GetDefaults() domain.Settings
}
