package postprocessors

import (
	"fmt"

	"github.com/custodia-labs/sanad/internal/core/domain"
	"github.com/custodia-labs/sanad/internal/core/ports/driven"
	"github.com/custodia-labs/sanad/internal/postprocessors/chunker"
	"github.com/custodia-labs/sanad/internal/postprocessors/provenance"
)

// RegisterDefaults registers all built-in processors with the registry.
// Call this during application initialisation to enable standard processors.
func RegisterDefaults(r *Registry) {
	r.Register(chunker.Name, buildChunker)
	r.Register(provenance.Name, buildProvenance)
}

// FromConfig builds the pipeline named by cfg. Chunk size and overlap come
// from the pipeline settings unless the chunker config overrides them.
func FromConfig(r *Registry, cfg domain.PipelineConfig, settings domain.PipelineSettings) (*Pipeline, error) {
	if len(cfg.Processors) == 0 {
		return nil, fmt.Errorf("%w: empty post-processor pipeline", domain.ErrInvalidInput)
	}

	p := NewPipeline()
	for _, name := range cfg.Processors {
		procCfg := cfg.GetProcessorConfig(name)
		if name == chunker.Name {
			procCfg = withDefaults(procCfg, map[string]any{
				"chunk_size": settings.ChunkSize,
				"overlap":    settings.ChunkOverlap,
			})
		}
		proc, err := r.Build(name, procCfg)
		if err != nil {
			return nil, err
		}
		p.Add(proc)
	}
	return p, nil
}

// buildChunker creates a chunker processor from generic config.
// Supported config keys:
//   - chunk_size (int): Target runes per chunk (default: 500)
//   - overlap (int): Overlapping runes between chunks (default: 100)
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option

	if size, ok := getIntFromConfig(cfg, "chunk_size"); ok {
		if size <= 0 {
			return nil, fmt.Errorf("%w: chunker chunk_size must be positive, got %d", domain.ErrInvalidInput, size)
		}
		opts = append(opts, chunker.WithChunkSize(size))
	}
	if overlap, ok := getIntFromConfig(cfg, "overlap"); ok {
		opts = append(opts, chunker.WithOverlap(overlap))
	}

	return chunker.New(opts...), nil
}

func buildProvenance(_ map[string]any) (driven.PostProcessor, error) {
	return provenance.New(), nil
}

func withDefaults(cfg, defaults map[string]any) map[string]any {
	merged := make(map[string]any, len(defaults)+len(cfg))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range cfg {
		merged[k] = v
	}
	return merged
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) (int, bool) {
	val, ok := cfg[key]
	if !ok {
		return 0, false
	}

	switch v := val.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
