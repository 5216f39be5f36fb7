package provenance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sanad/internal/core/domain"
	"github.com/custodia-labs/sanad/internal/normalisers/arabic"
	"github.com/custodia-labs/sanad/internal/postprocessors/chunker"
)

func buildDocument(t *testing.T, b *domain.TextBuilder) *domain.NormalisedDocument {
	t.Helper()
	ext := b.Build("doc-1")
	norm := arabic.New().Normalise(context.Background(), ext)
	return &domain.NormalisedDocument{
		Document:   &domain.Document{ID: "doc-1"},
		Extracted:  ext,
		Normalised: norm,
	}
}

func TestProcessor_Name(t *testing.T) {
	assert.Equal(t, "provenance", New().Name())
}

func TestProcessor_SingleLine(t *testing.T) {
	b := domain.NewTextBuilder()
	for i := 1; i <= 4; i++ {
		b.AddLine("filler")
	}
	b.AddLine("الذَّكاء الاصطناعي يغير العالم")
	doc := buildDocument(t, b)

	start := len([]rune("filler\n")) * 4
	chunks := []domain.Chunk{{
		ID:              "doc-1:0",
		NormalisedStart: start,
		NormalisedEnd:   start + len([]rune("الذكاء")),
	}}

	got, err := New().Process(context.Background(), doc, chunks)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []domain.Span{{Page: 1, LineStart: 5, LineEnd: 5}}, got[0].OriginalSpans)
}

func TestProcessor_SplitsAtPageBoundary(t *testing.T) {
	b := domain.NewTextBuilder()
	b.AddLine("one")
	b.AddLine("two")
	b.AddLine("three")
	b.BreakPage()
	b.AddLine("four")
	b.AddLine("five")
	doc := buildDocument(t, b)

	chunks := []domain.Chunk{{ID: "doc-1:0", NormalisedStart: 4, NormalisedEnd: doc.Normalised.Map.Len() - 6}}

	got, err := New().Process(context.Background(), doc, chunks)
	require.NoError(t, err)
	assert.Equal(t, []domain.Span{
		{Page: 1, LineStart: 2, LineEnd: 3},
		{Page: 2, LineStart: 1, LineEnd: 1},
	}, got[0].OriginalSpans)
}

func TestProcessor_AfterChunker(t *testing.T) {
	b := domain.NewTextBuilder()
	b.AddLine("الفصل الأول: مقدمة عن الموضوع.")
	b.AddLine("")
	b.AddLine("هذه فقرة ثانية تشرح الفكرة بالتفصيل.")
	b.BreakPage()
	b.AddLine("Page two starts here with English text.")
	doc := buildDocument(t, b)

	chunks, err := chunker.New(chunker.WithChunkSize(40), chunker.WithOverlap(0)).
		Process(context.Background(), doc, nil)
	require.NoError(t, err)

	got, err := New().Process(context.Background(), doc, chunks)
	require.NoError(t, err)
	require.NotEmpty(t, got)

	for _, c := range got {
		require.NotEmpty(t, c.OriginalSpans, c.ID)
		for i := 1; i < len(c.OriginalSpans); i++ {
			assert.Less(t, c.OriginalSpans[i-1].Page, c.OriginalSpans[i].Page)
		}
	}
	last := got[len(got)-1].OriginalSpans
	assert.Equal(t, 2, last[len(last)-1].Page)
}

func TestProcessor_NoLines(t *testing.T) {
	doc := &domain.NormalisedDocument{
		Document:   &domain.Document{ID: "doc-1"},
		Extracted:  &domain.ExtractedText{},
		Normalised: &domain.NormalisedText{},
	}

	_, err := New().Process(context.Background(), doc, []domain.Chunk{{ID: "doc-1:0", NormalisedEnd: 3}})
	assert.ErrorIs(t, err, domain.ErrIndexCorruption)
}

func TestProcessor_NilDocument(t *testing.T) {
	_, err := New().Process(context.Background(), nil, nil)
	assert.Error(t, err)
}
