package services

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sanad/internal/adapters/driven/embedding/hashing"
	"github.com/custodia-labs/sanad/internal/adapters/driven/storage/memory"
	vectormemory "github.com/custodia-labs/sanad/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/sanad/internal/core/domain"
	"github.com/custodia-labs/sanad/internal/core/ports/driven"
	"github.com/custodia-labs/sanad/internal/extractors"
	"github.com/custodia-labs/sanad/internal/normalisers/arabic"
	"github.com/custodia-labs/sanad/internal/postprocessors"
)

// testEmbedder is the hashing embedder with an optional hook on document
// batches. Query embedding goes through Embed and is never hooked.
type testEmbedder struct {
	*hashing.EmbeddingService
	batch  func(ctx context.Context, texts []string) ([][]float32, error)
	calls  atomic.Int32
	closed atomic.Bool
}

func newTestEmbedder() *testEmbedder {
	return &testEmbedder{EmbeddingService: hashing.NewEmbeddingService(hashing.Config{})}
}

func (e *testEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls.Add(1)
	if e.batch != nil {
		return e.batch(ctx, texts)
	}
	return e.EmbeddingService.EmbedBatch(ctx, texts)
}

func (e *testEmbedder) Close() error {
	e.closed.Store(true)
	return nil
}

// blockUntil makes batches containing marker wait for release or
// cancellation.
func (e *testEmbedder) blockUntil(marker string, release <-chan struct{}) {
	e.batch = func(ctx context.Context, texts []string) ([][]float32, error) {
		for _, text := range texts {
			if strings.Contains(text, marker) {
				select {
				case <-release:
				case <-ctx.Done():
					return nil, ctx.Err()
				}
				break
			}
		}
		return e.EmbeddingService.EmbedBatch(ctx, texts)
	}
}

// testSettings keeps chunks small so that a paragraph of a test document is
// one chunk.
func testSettings() domain.Settings {
	s := domain.DefaultSettings()
	s.Pipeline.ChunkSize = 40
	s.Pipeline.ChunkOverlap = 0
	s.Pipeline.MinScore = 0.1
	return s
}

func testDeps(t *testing.T, settings domain.Settings, embedder driven.EmbeddingService) PipelineDeps {
	t.Helper()
	registry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(registry)
	pipeline, err := postprocessors.FromConfig(registry, settings.PostProcessors, settings.Pipeline)
	require.NoError(t, err)

	return PipelineDeps{
		Extractors:     extractors.DefaultRegistry(settings.Pipeline),
		Normaliser:     arabic.New(),
		PostProcessors: pipeline,
		Embedder:       embedder,
		NewDocumentStore: func() driven.DocumentStore {
			return memory.NewDocumentStore()
		},
		NewVectorIndex: func(dims, maxDocuments int) (driven.VectorIndex, error) {
			return vectormemory.NewIndex(dims, vectormemory.WithMaxDocuments(maxDocuments))
		},
	}
}

func newTestPipeline(t *testing.T, settings domain.Settings) (*PipelineService, *testEmbedder) {
	t.Helper()
	embedder := newTestEmbedder()
	service, err := NewPipelineService(settings, testDeps(t, settings, embedder))
	require.NoError(t, err)
	t.Cleanup(func() { _ = service.Close() })
	return service, embedder
}

func newTestConversation(t *testing.T, settings domain.Settings) (*Conversation, *testEmbedder) {
	t.Helper()
	service, embedder := newTestPipeline(t, settings)
	conv, err := service.newConversation("")
	require.NoError(t, err)
	return conv, embedder
}

func txt(filename string, lines ...string) domain.Upload {
	return domain.Upload{Filename: filename, Content: []byte(strings.Join(lines, "\n"))}
}

// Paragraphs used across tests. Each is shorter than the test chunk size
// and no two fit in one chunk.
const (
	paraFarming  = "تاريخ الزراعة في وادي النيل القديم"
	paraTextiles = "تطورت صناعة النسيج عبر قرون طويلة"
	paraAI       = "الذكاء الاصطناعي يغير العالم"
	paraSport    = "الرياضة مفيدة لصحة الجسم والعقل"
)
