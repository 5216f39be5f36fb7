package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/sanad/internal/core/domain"
	"github.com/custodia-labs/sanad/internal/core/ports/driven"
	"github.com/custodia-labs/sanad/internal/core/ports/driving"
	"github.com/custodia-labs/sanad/internal/logger"
)

// Ensure PipelineService implements the interface.
var _ driving.PipelineService = (*PipelineService)(nil)

// PipelineDeps are the driven ports a pipeline is built from.
type PipelineDeps struct {
	Extractors     driven.ExtractorRegistry
	Normaliser     driven.Normaliser
	PostProcessors driven.PostProcessorPipeline
	Embedder       driven.EmbeddingService

	// NewDocumentStore creates the store of a new conversation.
	NewDocumentStore func() driven.DocumentStore

	// NewVectorIndex creates the index of a new conversation.
	NewVectorIndex func(dimensions, maxDocuments int) (driven.VectorIndex, error)
}

// PipelineService holds the immutable pipeline configuration and opens
// conversations over it.
type PipelineService struct {
	settings  domain.Settings
	deps      PipelineDeps
	ingester  *ingester
	retriever *Retriever

	mu            sync.Mutex
	conversations map[string]*Conversation
}

// NewPipelineService validates settings and dependencies. It fails with
// domain.ErrIndexCorruption when the embedder's dimension differs from the
// configured one.
func NewPipelineService(settings domain.Settings, deps PipelineDeps) (*PipelineService, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	var missing []string
	if deps.Extractors == nil {
		missing = append(missing, "extractors")
	}
	if deps.Normaliser == nil {
		missing = append(missing, "normaliser")
	}
	if deps.PostProcessors == nil {
		missing = append(missing, "post-processors")
	}
	if deps.Embedder == nil {
		missing = append(missing, "embedder")
	}
	if deps.NewDocumentStore == nil {
		missing = append(missing, "document store")
	}
	if deps.NewVectorIndex == nil {
		missing = append(missing, "vector index")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: pipeline is missing %v", domain.ErrInvalidInput, missing)
	}

	if got, want := deps.Embedder.Dimensions(), settings.Embedding.Dimensions; got != want {
		return nil, fmt.Errorf("%w: embedder %s produces %d dimensions, configured %d",
			domain.ErrIndexCorruption, deps.Embedder.ModelName(), got, want)
	}

	return &PipelineService{
		settings: settings,
		deps:     deps,
		ingester: &ingester{
			extractors:     deps.Extractors,
			normaliser:     deps.Normaliser,
			postProcessors: deps.PostProcessors,
			embedder:       deps.Embedder,
		},
		retriever:     NewRetriever(deps.Embedder, deps.Normaliser),
		conversations: make(map[string]*Conversation),
	}, nil
}

// NewConversation opens a conversation with an empty index. An empty ID is
// replaced by a generated one.
func (s *PipelineService) NewConversation(id string) (driving.Conversation, error) {
	return s.newConversation(id)
}

func (s *PipelineService) newConversation(id string) (*Conversation, error) {
	if id == "" {
		id = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conversations == nil {
		return nil, fmt.Errorf("%w: pipeline closed", domain.ErrConversationClosed)
	}
	if _, exists := s.conversations[id]; exists {
		return nil, fmt.Errorf("conversation %s: %w", id, domain.ErrAlreadyExists)
	}

	index, err := s.deps.NewVectorIndex(s.settings.Embedding.Dimensions, s.settings.Pipeline.MaxDocuments)
	if err != nil {
		return nil, fmt.Errorf("creating index: %w", err)
	}

	conv, err := newConversation(id, s.settings.Pipeline, s.ingester, s.retriever,
		s.deps.NewDocumentStore(), index, func() { s.release(id) })
	if err != nil {
		return nil, errors.Join(err, index.Close())
	}
	s.conversations[id] = conv
	logger.Debug("Conversation %s opened", id)
	return conv, nil
}

// release forgets a closed conversation so its ID can be reused.
func (s *PipelineService) release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conversations, id)
}

// Inspect runs extraction, normalisation and chunking without embedding.
func (s *PipelineService) Inspect(ctx context.Context, upload domain.Upload) (*domain.Inspection, error) {
	p, err := s.ingester.prepare(ctx, "", upload)
	if err != nil {
		return nil, err
	}
	return &domain.Inspection{
		Document: p.doc,
		Text:     p.normalised,
		Chunks:   p.chunks,
		Warnings: p.warnings,
	}, nil
}

// Settings returns the immutable settings the pipeline was built with.
func (s *PipelineService) Settings() domain.Settings {
	return s.settings
}

// Close closes every open conversation and then the embedder.
func (s *PipelineService) Close() error {
	s.mu.Lock()
	open := make([]*Conversation, 0, len(s.conversations))
	for _, c := range s.conversations {
		open = append(open, c)
	}
	s.mu.Unlock()

	var errs []error
	for _, c := range open {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	s.mu.Lock()
	s.conversations = nil
	s.mu.Unlock()

	if err := s.deps.Embedder.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
