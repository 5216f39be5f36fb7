// Package chunker provides the semantic text chunking processor.
//
// Text is cut into units at sentence and paragraph boundaries. Units are
// accumulated into chunks of at most the target size; the next chunk starts
// overlap runes before the previous one ended. A single unit longer than the
// target is split at a clause separator, then at whitespace, and only then
// mid-word. Sizes and offsets are in runes of the normalised text.
package chunker

import (
	"context"
	"errors"
	"unicode"

	"github.com/custodia-labs/sanad/internal/core/domain"
)

// DefaultChunkSize is the default target number of runes per chunk.
const DefaultChunkSize = 500

// DefaultChunkOverlap is the default number of overlapping runes.
const DefaultChunkOverlap = 100

// Name is the registry name of the processor.
const Name = "chunker"

// Processor splits normalised document text into chunks.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the target chunk size in runes.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in runes.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return Name
}

// Process splits the normalised text into chunks.
// Input chunks are ignored; this processor creates new chunks.
func (p *Processor) Process(ctx context.Context, doc *domain.NormalisedDocument, _ []domain.Chunk) ([]domain.Chunk, error) {
	if doc == nil || doc.Document == nil || doc.Normalised == nil {
		return nil, errors.New("chunker: document has no normalised text")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text := []rune(doc.Normalised.Text)
	ranges := p.Split(text)
	if len(ranges) == 0 {
		return nil, nil
	}

	chunks := make([]domain.Chunk, 0, len(ranges))
	for i, r := range ranges {
		chunks = append(chunks, domain.Chunk{
			ID:              domain.ChunkID(doc.Document.ID, i),
			DocumentID:      doc.Document.ID,
			Content:         string(text[r.Start:r.End]),
			Position:        i,
			NormalisedStart: r.Start,
			NormalisedEnd:   r.End,
		})
	}
	return chunks, nil
}

// Range is a half-open rune range [Start, End).
type Range struct {
	Start int
	End   int
}

// Len returns the number of runes in the range.
func (r Range) Len() int {
	return r.End - r.Start
}

// Split returns the chunk boundaries for text. Boundaries are trimmed of
// surrounding whitespace; whitespace-only text yields no chunks.
func (p *Processor) Split(text []rune) []Range {
	units := p.units(text)
	if len(units) == 0 {
		return nil
	}

	var chunks []Range
	start, i := 0, 0
	for i < len(units) {
		end := units[i].End
		i++
		for i < len(units) && units[i].End-start <= p.chunkSize {
			end = units[i].End
			i++
		}
		if r, ok := trim(text, start, end); ok {
			chunks = append(chunks, r)
		}
		if i == len(units) {
			break
		}
		start = p.nextStart(text, start, end, units[i])
	}

	return p.mergeTiny(chunks)
}

// nextStart moves back overlap runes from end, then forward to the start of
// a word. The overlap is dropped when it would push the next unit past the
// target size.
func (p *Processor) nextStart(text []rune, start, end int, next Range) int {
	s := end - p.overlap
	if s <= start {
		return end
	}
	for s < end && !unicode.IsSpace(text[s-1]) {
		s++
	}
	if next.End-s > p.chunkSize {
		return end
	}
	return s
}

// mergeTiny folds every chunk shorter than a quarter of the target size
// into its predecessor.
func (p *Processor) mergeTiny(chunks []Range) []Range {
	minSize := p.chunkSize / 4
	merged := chunks[:0]
	for _, c := range chunks {
		if n := len(merged); n > 0 && c.Len() < minSize {
			if c.End > merged[n-1].End {
				merged[n-1].End = c.End
			}
			continue
		}
		merged = append(merged, c)
	}
	return merged
}

// units cuts text into contiguous sentence and paragraph units, none
// longer than the target size.
func (p *Processor) units(text []rune) []Range {
	var units []Range
	start := 0
	for i := 0; i < len(text); i++ {
		end := -1
		switch {
		case isTerminator(text[i]) && (i+1 == len(text) || unicode.IsSpace(text[i+1])):
			end = i + 1
		case text[i] == '\n' && i+1 < len(text) && text[i+1] == '\n':
			j := i
			for j < len(text) && text[j] == '\n' {
				j++
			}
			end = j
			i = j - 1
		}
		if end < 0 {
			continue
		}
		units = p.appendUnit(units, text, start, end)
		start = end
	}
	if start < len(text) {
		units = p.appendUnit(units, text, start, len(text))
	}
	return units
}

func (p *Processor) appendUnit(units []Range, text []rune, start, end int) []Range {
	for end-start > p.chunkSize {
		cut := p.softSplit(text, start, start+p.chunkSize)
		units = append(units, Range{Start: start, End: cut})
		start = cut
	}
	return append(units, Range{Start: start, End: end})
}

// softSplit picks a cut in (start, limit]. It prefers the last clause
// separator, then the last whitespace, in the second half of the window.
func (p *Processor) softSplit(text []rune, start, limit int) int {
	floor := start + (limit-start)/2
	for k := limit - 1; k >= floor; k-- {
		if isClauseSeparator(text[k]) {
			return k + 1
		}
	}
	for k := limit - 1; k >= floor; k-- {
		if unicode.IsSpace(text[k]) {
			return k + 1
		}
	}
	return limit
}

func trim(text []rune, start, end int) (Range, bool) {
	for start < end && unicode.IsSpace(text[start]) {
		start++
	}
	for end > start && unicode.IsSpace(text[end-1]) {
		end--
	}
	return Range{Start: start, End: end}, end > start
}

// isTerminator reports sentence terminators, Arabic ones included.
func isTerminator(r rune) bool {
	switch r {
	case '.', '!', '?', '؟', '۔':
		return true
	}
	return false
}

// isClauseSeparator reports separators inside a sentence.
func isClauseSeparator(r rune) bool {
	switch r {
	case '،', '؛', ';', ':', ',':
		return true
	}
	return false
}
