package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/sanad/internal/adapters/driven/ai"
	"github.com/custodia-labs/sanad/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sanad/internal/adapters/driven/storage/memory"
	vectormemory "github.com/custodia-labs/sanad/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/sanad/internal/core/domain"
	"github.com/custodia-labs/sanad/internal/core/ports/driven"
	"github.com/custodia-labs/sanad/internal/core/ports/driving"
	"github.com/custodia-labs/sanad/internal/core/services"
	"github.com/custodia-labs/sanad/internal/extractors"
	"github.com/custodia-labs/sanad/internal/logger"
	"github.com/custodia-labs/sanad/internal/normalisers/arabic"
	"github.com/custodia-labs/sanad/internal/postprocessors"
)

// requireSettings opens the config file on first use.
func requireSettings() (driving.SettingsService, error) {
	if settingsService != nil {
		return settingsService, nil
	}
	store, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	settingsService = services.NewSettingsService(store)
	return settingsService, nil
}

// requirePipeline loads settings once and builds the pipeline from them.
func requirePipeline() (driving.PipelineService, error) {
	if pipelineService != nil {
		return pipelineService, nil
	}
	ss, err := requireSettings()
	if err != nil {
		return nil, err
	}
	settings, err := ss.Load()
	if err != nil {
		return nil, err
	}
	pipeline, err := NewPipeline(settings, dataDir())
	if err != nil {
		return nil, err
	}
	pipelineService = pipeline
	return pipelineService, nil
}

// NewPipeline wires the extractors, the Arabic normaliser, the chunking
// pipeline, the embedder stack and the in-memory stores into a pipeline.
func NewPipeline(settings domain.Settings, dataDir string) (*services.PipelineService, error) {
	registry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(registry)
	chunking, err := postprocessors.FromConfig(registry, settings.PostProcessors, settings.Pipeline)
	if err != nil {
		return nil, fmt.Errorf("building post-processors: %w", err)
	}

	embedder, err := ai.CreateAndValidateEmbeddingService(settings.Embedding, dataDir)
	if err != nil {
		return nil, err
	}
	logger.Debug("Embedder %s (%d dimensions, cache %s)",
		embedder.ModelName(), embedder.Dimensions(), settings.Embedding.Cache)

	pipeline, err := services.NewPipelineService(settings, services.PipelineDeps{
		Extractors:     extractors.DefaultRegistry(settings.Pipeline),
		Normaliser:     arabic.New(),
		PostProcessors: chunking,
		Embedder:       embedder,
		NewDocumentStore: func() driven.DocumentStore {
			return memory.NewDocumentStore()
		},
		NewVectorIndex: func(dims, maxDocuments int) (driven.VectorIndex, error) {
			return vectormemory.NewIndex(dims, vectormemory.WithMaxDocuments(maxDocuments))
		},
	})
	if err != nil {
		return nil, errors.Join(err, embedder.Close())
	}
	return pipeline, nil
}

func closeServices() {
	if pipelineService == nil {
		return
	}
	if err := pipelineService.Close(); err != nil {
		logger.Warn("Closing pipeline: %v", err)
	}
	pipelineService = nil
}

// dataDir holds the SQLite embedding cache. Empty selects the default.
func dataDir() string {
	if configDir == "" {
		return ""
	}
	return filepath.Join(configDir, "data")
}
