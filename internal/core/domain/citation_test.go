package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCitation_Label(t *testing.T) {
	tests := []struct {
		name     string
		citation Citation
		expected string
	}{
		{"line range", Citation{Filename: "report.pdf", Page: 3, LineStart: 5, LineEnd: 9}, "report.pdf p.3 l.5-9"},
		{"single line", Citation{Filename: "a.txt", Page: 1, LineStart: 5, LineEnd: 5}, "a.txt p.1 l.5"},
		{"falls back to id", Citation{DocumentID: "doc-1", Page: 2, LineStart: 1, LineEnd: 2}, "doc-1 p.2 l.1-2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.citation.Label())
		})
	}
}

func TestSpan_Contains(t *testing.T) {
	s := Span{Page: 1, LineStart: 3, LineEnd: 6}
	assert.True(t, s.Contains(Position{Page: 1, Line: 3}))
	assert.True(t, s.Contains(Position{Page: 1, Line: 6}))
	assert.False(t, s.Contains(Position{Page: 1, Line: 7}))
	assert.False(t, s.Contains(Position{Page: 2, Line: 4}))
}

func TestChunkID_Deterministic(t *testing.T) {
	assert.Equal(t, "doc-1:0", ChunkID("doc-1", 0))
	assert.Equal(t, ChunkID("d", 7), ChunkID("d", 7))
	assert.Equal(t, 3, Chunk{Content: "عرب"}.Len())
}

func TestScoreFloor(t *testing.T) {
	opts := QueryOptions{K: 3, MinScore: ScoreFloor(0)}
	assert.NotNil(t, opts.MinScore)
	assert.Equal(t, 0.0, *opts.MinScore)
}
