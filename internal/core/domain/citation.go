package domain

import "fmt"

// Citation is a resolved page/line reference for a retrieved chunk.
// It is output only and can always be re-derived from a Chunk and a score.
type Citation struct {
	DocumentID string  `json:"document_id"`
	Filename   string  `json:"filename"`
	ChunkID    string  `json:"chunk_id"`
	Page       int     `json:"page"`
	LineStart  int     `json:"line_start"`
	LineEnd    int     `json:"line_end"`
	Score      float64 `json:"score"`
	ChunkText  string  `json:"chunk_text"`
}

// Span returns the page/line range of the citation.
func (c Citation) Span() Span {
	return Span{Page: c.Page, LineStart: c.LineStart, LineEnd: c.LineEnd}
}

// Label renders a short reference such as "report.pdf p.3 l.5-9".
func (c Citation) Label() string {
	name := c.Filename
	if name == "" {
		name = c.DocumentID
	}
	return fmt.Sprintf("%s %s", name, c.Span())
}

// QueryOptions configures a retrieval.
type QueryOptions struct {
	// K is the maximum number of chunk hits. Zero uses the configured top_k.
	K int

	// MinScore drops hits scoring below it. Nil uses the configured min_score.
	MinScore *float64
}

// ScoreFloor returns a MinScore pointer for a literal value.
func ScoreFloor(v float64) *float64 {
	return &v
}
