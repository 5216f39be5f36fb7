package hashing

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cosine(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

func norm(v []float32) float64 {
	return math.Sqrt(cosine(v, v))
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	s := NewEmbeddingService(Config{})

	assert.Equal(t, DefaultModel, s.ModelName())
	assert.Equal(t, DefaultDimensions, s.Dimensions())
	assert.NoError(t, s.Ping(context.Background()))
	assert.NoError(t, s.Close())
}

func TestEmbed_UnitLengthAndDeterministic(t *testing.T) {
	s := NewEmbeddingService(Config{Dimensions: 64})

	a, err := s.Embed(context.Background(), "الذكاء الاصطناعي يغير العالم")
	require.NoError(t, err)
	b, err := s.Embed(context.Background(), "الذكاء الاصطناعي يغير العالم")
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.InDelta(t, 1.0, norm(a), 1e-5)
	assert.Equal(t, a, b)
}

func TestEmbed_StopwordsOnlyIsZero(t *testing.T) {
	s := NewEmbeddingService(Config{})

	v, err := s.Embed(context.Background(), "ما هو؟ the of")
	require.NoError(t, err)
	assert.Zero(t, norm(v))
}

func TestEmbed_RelatedTextScoresHigher(t *testing.T) {
	s := NewEmbeddingService(Config{})
	ctx := context.Background()

	query, err := s.Embed(ctx, "ما هو الذكاء الاصطناعي؟")
	require.NoError(t, err)
	related, err := s.Embed(ctx, "الذكاء الاصطناعي يغير العالم")
	require.NoError(t, err)
	unrelated, err := s.Embed(ctx, "وصفة الطبخ تحتاج الي الطماطم والبصل")
	require.NoError(t, err)

	assert.Greater(t, cosine(query, related), cosine(query, unrelated))
	assert.Greater(t, cosine(query, related), 0.5)
}

func TestEmbedBatch(t *testing.T) {
	s := NewEmbeddingService(Config{Dimensions: 32})

	got, err := s.EmbedBatch(context.Background(), []string{"one", "two"})
	require.NoError(t, err)
	require.Len(t, got, 2)

	one, err := s.Embed(context.Background(), "one")
	require.NoError(t, err)
	assert.Equal(t, one, got[0])
}

func TestEmbed_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEmbeddingService(Config{}).Embed(ctx, "text")
	assert.ErrorIs(t, err, context.Canceled)
}
