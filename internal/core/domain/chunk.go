package domain

import (
	"fmt"
	"unicode/utf8"
)

// Span is a contiguous line range on a single page of an original document.
type Span struct {
	Page      int `json:"page"`
	LineStart int `json:"line_start"`
	LineEnd   int `json:"line_end"`
}

// Contains reports whether the span covers the given position.
func (s Span) Contains(p Position) bool {
	return s.Page == p.Page && p.Line >= s.LineStart && p.Line <= s.LineEnd
}

// String renders the span as "p.3 l.5-9".
func (s Span) String() string {
	if s.LineStart == s.LineEnd {
		return fmt.Sprintf("p.%d l.%d", s.Page, s.LineStart)
	}
	return fmt.Sprintf("p.%d l.%d-%d", s.Page, s.LineStart, s.LineEnd)
}

// Chunk is a retrievable unit of normalised text.
// Chunks are immutable once produced and are embedded exactly once.
type Chunk struct {
	// ID is deterministic: the document ID and the chunk position.
	ID string

	// DocumentID links to the parent document.
	DocumentID string

	// Content is the normalised chunk text.
	Content string

	// Position is the chunk's ordinal within the document.
	Position int

	// NormalisedStart and NormalisedEnd bound the chunk in the normalised
	// text, in runes.
	NormalisedStart int
	NormalisedEnd   int

	// OriginalSpans are the page/line ranges in the original document the
	// chunk derives from, one per page, pages ascending.
	OriginalSpans []Span

	// Embedding is the vector representation. Nil until embedded.
	Embedding []float32
}

// ChunkID returns the deterministic ID of the chunk at a position.
func ChunkID(documentID string, position int) string {
	return fmt.Sprintf("%s:%d", documentID, position)
}

// Len returns the chunk length in runes.
func (c Chunk) Len() int {
	return utf8.RuneCountInString(c.Content)
}
