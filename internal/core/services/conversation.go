package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sanad/internal/core/domain"
	"github.com/custodia-labs/sanad/internal/core/ports/driven"
	"github.com/custodia-labs/sanad/internal/core/ports/driving"
	"github.com/custodia-labs/sanad/internal/logger"
)

// Ensure Conversation implements the interface.
var _ driving.Conversation = (*Conversation)(nil)

// Conversation owns the index of one conversation: its documents, chunks and
// vectors, capped at MaxDocuments documents.
//
// Writes (commit, removal, eviction, close) are serialised by mu. Queries do
// not take mu while searching; the index shows them each document either
// whole or not at all, and chunks are stored before their vectors are indexed
// and unindexed before they are deleted.
type Conversation struct {
	id        string
	settings  domain.PipelineSettings
	ingester  *ingester
	retriever *Retriever
	store     driven.DocumentStore
	index     driven.VectorIndex
	mapper    *ProvenanceMapper

	// ctx is cancelled by Close and bounds every call.
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	order    *evictionOrder
	closed   bool
	inflight sync.WaitGroup
	onClose  func()
}

func newConversation(
	id string,
	settings domain.PipelineSettings,
	in *ingester,
	retriever *Retriever,
	store driven.DocumentStore,
	index driven.VectorIndex,
	onClose func(),
) (*Conversation, error) {
	order, err := newEvictionOrder(settings.MaxDocuments)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Conversation{
		id:        id,
		settings:  settings,
		ingester:  in,
		retriever: retriever,
		store:     store,
		index:     index,
		mapper:    NewProvenanceMapper(store),
		ctx:       ctx,
		cancel:    cancel,
		order:     order,
		onClose:   onClose,
	}, nil
}

// ID returns the conversation ID.
func (c *Conversation) ID() string {
	return c.id
}

// begin registers an in-flight call and returns a context cancelled by
// either the caller or Close.
func (c *Conversation) begin(ctx context.Context) (context.Context, func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrConversationClosed, c.id)
	}
	c.inflight.Add(1)

	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
		c.inflight.Done()
	}, nil
}

// ProcessDocument ingests one upload and commits it to the index.
func (c *Conversation) ProcessDocument(ctx context.Context, upload domain.Upload) (*domain.IngestResult, error) {
	ctx, done, err := c.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	p, err := c.prepare(ctx, upload)
	if err != nil {
		return nil, err
	}
	return c.commit(ctx, p)
}

// ProcessDocuments ingests uploads with at most IngestWorkers in flight. Each
// document is committed once it and every earlier upload have finished, so
// index order follows upload order whatever order the work completes in.
func (c *Conversation) ProcessDocuments(ctx context.Context, uploads []domain.Upload) []domain.IngestOutcome {
	outcomes := make([]domain.IngestOutcome, len(uploads))
	for i, u := range uploads {
		outcomes[i].Filename = u.Filename
	}

	ctx, done, err := c.begin(ctx)
	if err != nil {
		for i := range outcomes {
			outcomes[i].Err = err
		}
		return outcomes
	}
	defer done()

	prepared := make([]*preparedDocument, len(uploads))
	ready := make([]chan struct{}, len(uploads))
	for i := range ready {
		ready[i] = make(chan struct{})
	}

	var g errgroup.Group
	g.SetLimit(c.settings.IngestWorkers)
	go func() {
		for i := range uploads {
			g.Go(func() error {
				defer close(ready[i])
				prepared[i], outcomes[i].Err = c.prepare(ctx, uploads[i])
				return nil
			})
		}
	}()

	for i := range uploads {
		<-ready[i]
		if outcomes[i].Err != nil {
			logger.Warn("Ingest %s: %v", uploads[i].Filename, outcomes[i].Err)
			continue
		}
		outcomes[i].Result, outcomes[i].Err = c.commit(ctx, prepared[i])
		prepared[i] = nil
	}
	_ = g.Wait()

	return outcomes
}

// prepare runs every stage up to and including embedding.
func (c *Conversation) prepare(ctx context.Context, upload domain.Upload) (*preparedDocument, error) {
	p, err := c.ingester.prepare(ctx, c.id, upload)
	if err != nil {
		return nil, err
	}
	if err := c.ingester.embed(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ReplaceDocument prepares the new version outside the lock, then removes
// the old version and commits the new one in a single critical section.
func (c *Conversation) ReplaceDocument(ctx context.Context, documentID string, upload domain.Upload) (*domain.IngestResult, error) {
	ctx, done, err := c.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	p, err := c.prepare(ctx, upload)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.writable(ctx); err != nil {
		return nil, err
	}

	event, err := c.removeLocked(ctx, documentID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		logger.Debug("Replacing %s: previous version already gone", documentID)
	case err != nil:
		return nil, fmt.Errorf("removing previous version %s: %w", documentID, err)
	default:
		logger.Info("Replacing %s (%d chunks) in conversation %s", event.Filename, event.ChunkCount, c.id)
	}
	return c.commitLocked(ctx, p)
}

// commit stores a prepared document, evicting documents first when the cap
// is reached.
func (c *Conversation) commit(ctx context.Context, p *preparedDocument) (*domain.IngestResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.writable(ctx); err != nil {
		return nil, err
	}
	return c.commitLocked(ctx, p)
}

// writable reports why a commit may not proceed. The caller holds mu.
func (c *Conversation) writable(ctx context.Context) error {
	if c.closed {
		return fmt.Errorf("%w: %s", domain.ErrConversationClosed, c.id)
	}
	return ctx.Err()
}

// commitLocked is commit with mu held.
func (c *Conversation) commitLocked(ctx context.Context, p *preparedDocument) (*domain.IngestResult, error) {
	result := &domain.IngestResult{
		Document:   p.doc,
		ChunkCount: len(p.chunks),
		Warnings:   p.warnings,
	}

	for c.order.len() >= c.settings.MaxDocuments {
		victim, reason, ok := c.order.victim()
		if !ok {
			break
		}
		event, err := c.removeLocked(ctx, victim)
		if err != nil {
			return nil, fmt.Errorf("evicting %s: %w", victim, err)
		}
		event.Reason = reason
		logger.Info("Evicted %s (%s, %d chunks) from conversation %s", event.Filename, reason, event.ChunkCount, c.id)
		result.Evicted = append(result.Evicted, *event)
	}

	if err := c.store.SaveDocument(ctx, &p.doc); err != nil {
		return nil, fmt.Errorf("saving document: %w", err)
	}
	if err := c.store.SaveChunks(ctx, p.chunks); err != nil {
		_ = c.store.DeleteDocument(ctx, p.doc.ID)
		return nil, fmt.Errorf("saving chunks: %w", err)
	}

	entries := make([]driven.VectorEntry, len(p.chunks))
	for i, chunk := range p.chunks {
		entries[i] = driven.VectorEntry{ChunkID: chunk.ID, Embedding: chunk.Embedding}
	}
	if err := c.index.AddDocument(ctx, p.doc.ID, entries); err != nil {
		_ = c.store.DeleteDocument(ctx, p.doc.ID)
		return nil, fmt.Errorf("indexing %s: %w", p.doc.Filename, err)
	}
	c.order.track(p.doc.ID)

	logger.Info("Indexed %s as %s: %d chunk(s)", p.doc.Filename, p.doc.ID, len(p.chunks))
	return result, nil
}

// removeLocked drops a document from the index and then from the store.
// The caller holds mu.
func (c *Conversation) removeLocked(ctx context.Context, documentID string) (*domain.DocumentEvicted, error) {
	doc, err := c.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	removed, err := c.index.Remove(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if err := c.store.DeleteDocument(ctx, documentID); err != nil {
		return nil, err
	}
	c.order.forget(documentID)
	return &domain.DocumentEvicted{
		ConversationID: c.id,
		DocumentID:     documentID,
		Filename:       doc.Filename,
		ChunkCount:     removed,
	}, nil
}

// Query returns citations ranked by descending score. Documents with a
// surviving citation count as recently used.
func (c *Conversation) Query(ctx context.Context, question string, opts domain.QueryOptions) ([]domain.Citation, error) {
	ctx, done, err := c.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	k := opts.K
	if k == 0 {
		k = c.settings.TopK
	}
	minScore := c.settings.MinScore
	if opts.MinScore != nil {
		minScore = *opts.MinScore
	}
	if minScore < 0 || minScore > 1 {
		return nil, fmt.Errorf("%w: min_score must be in [0, 1], got %g", domain.ErrInvalidInput, minScore)
	}

	retrieval, err := c.retriever.Retrieve(ctx, c.index, c.mapper, question, k, minScore)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	for _, id := range retrieval.HitDocuments {
		c.order.hit(id)
	}
	c.mu.Unlock()

	return retrieval.Citations, nil
}

// RemoveDocument drops a document and its chunks.
func (c *Conversation) RemoveDocument(ctx context.Context, documentID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("%w: %s", domain.ErrConversationClosed, c.id)
	}
	event, err := c.removeLocked(ctx, documentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("document %s: %w", documentID, domain.ErrNotFound)
		}
		return err
	}
	logger.Info("Removed %s (%d chunks) from conversation %s", event.Filename, event.ChunkCount, c.id)
	return nil
}

// Documents returns the active documents in upload order.
func (c *Conversation) Documents() []domain.Document {
	docs, err := c.store.ListDocuments(context.Background())
	if err != nil {
		logger.Warn("Listing documents of %s: %v", c.id, err)
		return nil
	}
	return docs
}

// ChunkCount returns the number of chunks in the index.
func (c *Conversation) ChunkCount() int {
	return c.index.Len()
}

// Close cancels in-flight ingestion, waits for it and drops the index.
// Closing twice is a no-op.
func (c *Conversation) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.cancel()
	c.mu.Unlock()

	c.inflight.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	ctx := context.Background()
	docs, _ := c.store.ListDocuments(ctx)
	for _, d := range docs {
		_ = c.store.DeleteDocument(ctx, d.ID)
	}
	err := c.index.Close()
	if c.onClose != nil {
		c.onClose()
	}
	logger.Debug("Conversation %s closed", c.id)
	return err
}
