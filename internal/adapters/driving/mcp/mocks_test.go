package mcp

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/sanad/internal/core/domain"
	"github.com/custodia-labs/sanad/internal/core/ports/driving"
)

// mockPipeline is a mock implementation of driving.PipelineService.
type mockPipeline struct {
	mu     sync.Mutex
	opened []string
	convs  map[string]*mockConversation
	err    error
}

func newMockPipeline() *mockPipeline {
	return &mockPipeline{convs: make(map[string]*mockConversation)}
}

func (m *mockPipeline) NewConversation(id string) (driving.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if _, ok := m.convs[id]; ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrAlreadyExists, id)
	}
	conv := &mockConversation{id: id}
	m.convs[id] = conv
	m.opened = append(m.opened, id)
	return conv, nil
}

func (m *mockPipeline) Inspect(_ context.Context, _ domain.Upload) (*domain.Inspection, error) {
	return nil, m.err
}

func (m *mockPipeline) Settings() domain.Settings {
	return domain.DefaultSettings()
}

func (m *mockPipeline) Close() error {
	return nil
}

// mockConversation is a mock implementation of driving.Conversation.
type mockConversation struct {
	id string

	uploads   []domain.Upload
	result    *domain.IngestResult
	citations []domain.Citation
	docs      []domain.Document
	chunks    int
	removed   []string
	lastOpts  domain.QueryOptions
	closed    bool
	err       error
}

func (m *mockConversation) ID() string { return m.id }

func (m *mockConversation) ProcessDocument(_ context.Context, upload domain.Upload) (*domain.IngestResult, error) {
	m.uploads = append(m.uploads, upload)
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &domain.IngestResult{Document: domain.Document{ID: "doc-1", Filename: upload.Filename, Format: upload.Format}}, nil
}

func (m *mockConversation) ProcessDocuments(ctx context.Context, uploads []domain.Upload) []domain.IngestOutcome {
	outcomes := make([]domain.IngestOutcome, len(uploads))
	for i, u := range uploads {
		result, err := m.ProcessDocument(ctx, u)
		outcomes[i] = domain.IngestOutcome{Filename: u.Filename, Result: result, Err: err}
	}
	return outcomes
}

func (m *mockConversation) Query(_ context.Context, _ string, opts domain.QueryOptions) ([]domain.Citation, error) {
	m.lastOpts = opts
	return m.citations, m.err
}

func (m *mockConversation) ReplaceDocument(ctx context.Context, documentID string, upload domain.Upload) (*domain.IngestResult, error) {
	result, err := m.ProcessDocument(ctx, upload)
	if err == nil {
		m.removed = append(m.removed, documentID)
	}
	return result, err
}

func (m *mockConversation) RemoveDocument(_ context.Context, documentID string) error {
	m.removed = append(m.removed, documentID)
	return m.err
}

func (m *mockConversation) Documents() []domain.Document { return m.docs }

func (m *mockConversation) ChunkCount() int { return m.chunks }

func (m *mockConversation) Close() error {
	m.closed = true
	return nil
}
