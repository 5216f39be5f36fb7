package domain

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTwoPages() *ExtractedText {
	b := NewTextBuilder()
	b.AddLine("ab")
	b.AddLine("c")
	b.BreakPage()
	b.AddLine("d")
	return b.Build("doc-1")
}

func TestTextBuilder_Build(t *testing.T) {
	ext := buildTwoPages()

	assert.Equal(t, "doc-1", ext.DocumentID)
	assert.Equal(t, "ab\nc\n\nd\n", ext.Text)
	assert.Equal(t, 2, ext.PageCount)
	assert.Equal(t, []LineRange{
		{Start: 0, End: 3, Page: 1, Line: 1},
		{Start: 3, End: 6, Page: 1, Line: 2},
		{Start: 6, End: 8, Page: 2, Line: 1},
	}, ext.Positions.Lines())
	require.NoError(t, ext.Positions.Validate(utf8.RuneCountInString(ext.Text)))
}

func TestTextBuilder_EmptyPagesCount(t *testing.T) {
	b := NewTextBuilder()
	b.AddLine("first")
	b.BreakPage()
	b.BreakPage()
	b.AddLine("third")
	ext := b.Build("d")

	assert.Equal(t, 3, ext.PageCount)
	pos, ok := ext.Positions.Lookup(utf8.RuneCountInString(ext.Text) - 1)
	require.True(t, ok)
	assert.Equal(t, Position{Page: 3, Line: 1}, pos)
}

func TestTextBuilder_ReplacesEmbeddedBreaks(t *testing.T) {
	b := NewTextBuilder()
	b.AddLine("a\r\nb\fc")
	ext := b.Build("d")

	assert.Equal(t, "a b c\n", ext.Text)
	assert.Len(t, ext.Positions.Lines(), 1)
}

func TestTextBuilder_HasText(t *testing.T) {
	b := NewTextBuilder()
	b.AddLine("   ")
	b.BreakPage()
	assert.False(t, b.HasText())
	b.AddLine("x")
	assert.True(t, b.HasText())
}

func TestPositionTable_Lookup(t *testing.T) {
	table := buildTwoPages().Positions

	tests := []struct {
		offset   int
		expected Position
		ok       bool
	}{
		{0, Position{1, 1}, true},
		{2, Position{1, 1}, true},
		{3, Position{1, 2}, true},
		{5, Position{1, 2}, true},
		{6, Position{2, 1}, true},
		{7, Position{2, 1}, true},
		{8, Position{}, false},
		{-1, Position{}, false},
	}
	for _, tt := range tests {
		got, ok := table.Lookup(tt.offset)
		assert.Equal(t, tt.ok, ok, "offset %d", tt.offset)
		assert.Equal(t, tt.expected, got, "offset %d", tt.offset)
	}
}

func TestPositionTable_Spans(t *testing.T) {
	table := buildTwoPages().Positions

	tests := []struct {
		name       string
		start, end int
		expected   []Span
	}{
		{"single line", 0, 2, []Span{{Page: 1, LineStart: 1, LineEnd: 1}}},
		{"two lines one page", 1, 5, []Span{{Page: 1, LineStart: 1, LineEnd: 2}}},
		{"crosses page", 4, 7, []Span{
			{Page: 1, LineStart: 2, LineEnd: 2},
			{Page: 2, LineStart: 1, LineEnd: 1},
		}},
		{"whole text", 0, 8, []Span{
			{Page: 1, LineStart: 1, LineEnd: 2},
			{Page: 2, LineStart: 1, LineEnd: 1},
		}},
		{"clamped", -5, 100, []Span{
			{Page: 1, LineStart: 1, LineEnd: 2},
			{Page: 2, LineStart: 1, LineEnd: 1},
		}},
		{"empty", 3, 3, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, table.Spans(tt.start, tt.end))
		})
	}
}

func TestPositionTable_PageCountAndLines(t *testing.T) {
	table := buildTwoPages().Positions
	assert.Equal(t, 2, table.PageCount())
	assert.Equal(t, 2, table.LinesOnPage(1))
	assert.Equal(t, 1, table.LinesOnPage(2))
	assert.Equal(t, 0, table.LinesOnPage(3))
	assert.Equal(t, 8, table.Len())
}

func TestPositionTable_Validate(t *testing.T) {
	tests := []struct {
		name  string
		lines []LineRange
		n     int
	}{
		{"gap", []LineRange{{0, 2, 1, 1}, {3, 4, 1, 2}}, 4},
		{"short", []LineRange{{0, 2, 1, 1}}, 3},
		{"zero page", []LineRange{{0, 2, 0, 1}}, 2},
		{"out of order", []LineRange{{0, 2, 2, 1}, {2, 4, 1, 1}}, 4},
		{"empty range", []LineRange{{0, 0, 1, 1}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewPositionTable(tt.lines).Validate(tt.n)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}
