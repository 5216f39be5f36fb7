// Package resilient wraps an embedding service with a per-call timeout,
// bounded retries with exponential backoff, rate limiting and an optional
// embedding cache. Failures that survive the retries surface as
// ErrEmbeddingUnavailable; dimension mismatches surface as
// ErrIndexCorruption and are never retried.
package resilient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/custodia-labs/sanad/internal/core/domain"
	"github.com/custodia-labs/sanad/internal/core/ports/driven"
	"github.com/custodia-labs/sanad/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultBaseBackoff = 200 * time.Millisecond
	DefaultMaxBackoff  = 5 * time.Second
)

// Config holds configuration for the resilient wrapper.
type Config struct {
	// Timeout bounds a single attempt (default: 30s).
	Timeout time.Duration

	// MaxRetries bounds retries after the first attempt (default: 3).
	// A negative value disables retries.
	MaxRetries int

	// BaseBackoff is the first retry delay (default: 200ms).
	BaseBackoff time.Duration

	// MaxBackoff caps a single retry delay (default: 5s).
	MaxBackoff time.Duration

	// RateLimit throttles attempts. Zero means unlimited.
	RateLimit RateLimitConfig

	// Cache stores embeddings by model and text. Nil disables caching.
	Cache driven.EmbeddingCache
}

// EmbeddingService is a resilient decorator over another EmbeddingService.
type EmbeddingService struct {
	inner   driven.EmbeddingService
	cfg     Config
	limiter *RateLimiter
}

// New wraps inner.
func New(inner driven.EmbeddingService, cfg Config) *EmbeddingService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = DefaultBaseBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = DefaultMaxBackoff
	}
	return &EmbeddingService{
		inner:   inner,
		cfg:     cfg,
		limiter: NewRateLimiter(cfg.RateLimit),
	}
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedBatch serves cached texts from the cache and embeds the rest in one
// call. Duplicate texts are embedded once.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	results := make([][]float32, len(texts))
	missing := make(map[string][]int)
	var unique []string
	for i, text := range texts {
		if vec, ok := s.lookup(ctx, text); ok {
			results[i] = vec
			continue
		}
		if _, seen := missing[text]; !seen {
			unique = append(unique, text)
		}
		missing[text] = append(missing[text], i)
	}
	if len(unique) == 0 {
		return results, nil
	}

	embedded, err := s.call(ctx, unique)
	if err != nil {
		return nil, err
	}

	for i, text := range unique {
		for _, idx := range missing[text] {
			results[idx] = embedded[i]
		}
		s.store(ctx, text, embedded[i])
	}
	return results, nil
}

// call embeds texts with timeout, rate limit and retries.
func (s *EmbeddingService) call(ctx context.Context, texts []string) ([][]float32, error) {
	backoff := retry.WithMaxRetries(uint64(s.cfg.MaxRetries), // #nosec G115 -- non-negative
		retry.WithCappedDuration(s.cfg.MaxBackoff, retry.NewExponential(s.cfg.BaseBackoff)))

	attempt := 0
	result, err := retry.DoValue(ctx, backoff, func(ctx context.Context) ([][]float32, error) {
		attempt++
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()

		out, err := s.inner.EmbedBatch(callCtx, texts)
		if err == nil {
			if err := s.check(texts, out); err != nil {
				return nil, err
			}
			return out, nil
		}
		if errors.Is(err, domain.ErrIndexCorruption) || ctx.Err() != nil || permanent(err) {
			return nil, err
		}
		logger.Debug("embed %d text(s) with %s: attempt %d failed: %v", len(texts), s.inner.ModelName(), attempt, err)
		return nil, retry.RetryableError(err)
	})
	if err == nil {
		return result, nil
	}
	if errors.Is(err, domain.ErrIndexCorruption) || ctx.Err() != nil {
		return nil, err
	}
	logger.Warn("embedding service %s unavailable after %d attempt(s): %v", s.inner.ModelName(), attempt, err)
	return nil, fmt.Errorf("%w: %s after %d attempt(s): %w",
		domain.ErrEmbeddingUnavailable, s.inner.ModelName(), attempt, err)
}

// permanent reports whether err says a retry cannot help, such as a
// rejected API key.
func permanent(err error) bool {
	var r interface{ Retryable() bool }
	return errors.As(err, &r) && !r.Retryable()
}

func (s *EmbeddingService) check(texts []string, out [][]float32) error {
	if len(out) != len(texts) {
		return fmt.Errorf("%w: %s returned %d embeddings for %d texts",
			domain.ErrIndexCorruption, s.inner.ModelName(), len(out), len(texts))
	}
	for _, vec := range out {
		if len(vec) != s.inner.Dimensions() {
			return fmt.Errorf("%w: %s returned %d dimensions, expected %d",
				domain.ErrIndexCorruption, s.inner.ModelName(), len(vec), s.inner.Dimensions())
		}
	}
	return nil
}

func (s *EmbeddingService) lookup(ctx context.Context, text string) ([]float32, bool) {
	if s.cfg.Cache == nil {
		return nil, false
	}
	vec, ok, err := s.cfg.Cache.Get(ctx, s.inner.ModelName(), text)
	if err != nil {
		logger.Warn("embedding cache lookup failed: %v", err)
		return nil, false
	}
	if !ok || len(vec) != s.inner.Dimensions() {
		return nil, false
	}
	return vec, true
}

func (s *EmbeddingService) store(ctx context.Context, text string, vec []float32) {
	if s.cfg.Cache == nil {
		return
	}
	if err := s.cfg.Cache.Put(ctx, s.inner.ModelName(), text, vec); err != nil {
		logger.Warn("embedding cache store failed: %v", err)
	}
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.inner.Dimensions()
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.inner.ModelName()
}

// Ping validates the wrapped service within the call timeout.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	if err := s.inner.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	return nil
}

// Close releases the wrapped service and the cache.
func (s *EmbeddingService) Close() error {
	var errs []error
	if err := s.inner.Close(); err != nil {
		errs = append(errs, err)
	}
	if s.cfg.Cache != nil {
		if err := s.cfg.Cache.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
