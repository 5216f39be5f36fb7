package domain

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// Position is a page/line location in an original document.
// Pages and lines are 1-based; lines restart at 1 on every page.
type Position struct {
	Page int
	Line int
}

// LineRange attributes the runes [Start, End) of extracted text to one line.
type LineRange struct {
	Start int
	End   int
	Page  int
	Line  int
}

// PositionTable maps every rune offset of extracted text to a Position.
// Ranges are ordered, contiguous and start at offset zero.
type PositionTable struct {
	lines []LineRange
}

// NewPositionTable creates a table from ordered line ranges.
func NewPositionTable(lines []LineRange) PositionTable {
	return PositionTable{lines: append([]LineRange(nil), lines...)}
}

// Lines returns a copy of the line ranges.
func (t PositionTable) Lines() []LineRange {
	return append([]LineRange(nil), t.lines...)
}

// Len returns the number of runes covered by the table.
func (t PositionTable) Len() int {
	if len(t.lines) == 0 {
		return 0
	}
	return t.lines[len(t.lines)-1].End
}

// Lookup returns the position of a rune offset.
func (t PositionTable) Lookup(offset int) (Position, bool) {
	i := t.find(offset)
	if i < 0 {
		return Position{}, false
	}
	l := t.lines[i]
	return Position{Page: l.Page, Line: l.Line}, true
}

// PageCount returns the highest page number in the table.
func (t PositionTable) PageCount() int {
	if len(t.lines) == 0 {
		return 0
	}
	return t.lines[len(t.lines)-1].Page
}

// LinesOnPage returns the highest line number on a page, or zero.
func (t PositionTable) LinesOnPage(page int) int {
	n := 0
	for _, l := range t.lines {
		if l.Page == page && l.Line > n {
			n = l.Line
		}
	}
	return n
}

// Spans returns the page/line ranges covered by the runes [start, end).
// A range that crosses a page boundary yields one Span per page, in page order.
func (t PositionTable) Spans(start, end int) []Span {
	if start < 0 {
		start = 0
	}
	if end > t.Len() {
		end = t.Len()
	}
	if end <= start {
		return nil
	}

	var spans []Span
	for i := t.find(start); i < len(t.lines) && t.lines[i].Start < end; i++ {
		l := t.lines[i]
		if n := len(spans); n > 0 && spans[n-1].Page == l.Page {
			spans[n-1].LineEnd = l.Line
			continue
		}
		spans = append(spans, Span{Page: l.Page, LineStart: l.Line, LineEnd: l.Line})
	}
	return spans
}

// Validate checks the table covers exactly textLen runes without gaps.
func (t PositionTable) Validate(textLen int) error {
	offset := 0
	prev := Position{}
	for i, l := range t.lines {
		if l.Start != offset || l.End <= l.Start {
			return fmt.Errorf("%w: line range %d [%d,%d) not contiguous", ErrInvalidInput, i, l.Start, l.End)
		}
		if l.Page < 1 || l.Line < 1 {
			return fmt.Errorf("%w: line range %d has position %d:%d", ErrInvalidInput, i, l.Page, l.Line)
		}
		if l.Page < prev.Page || (l.Page == prev.Page && l.Line <= prev.Line) {
			return fmt.Errorf("%w: line range %d out of order", ErrInvalidInput, i)
		}
		prev = Position{Page: l.Page, Line: l.Line}
		offset = l.End
	}
	if offset != textLen {
		return fmt.Errorf("%w: table covers %d runes, text has %d", ErrInvalidInput, offset, textLen)
	}
	return nil
}

func (t PositionTable) find(offset int) int {
	if offset < 0 {
		return -1
	}
	i := sort.Search(len(t.lines), func(i int) bool { return t.lines[i].End > offset })
	if i == len(t.lines) {
		return -1
	}
	return i
}

// ExtractedText is the output of a TextExtractor.
type ExtractedText struct {
	// DocumentID links to the owning Document.
	DocumentID string

	// Text is the extracted text. Every line ends with a newline.
	Text string

	// Positions maps each rune offset in Text to a page and line.
	Positions PositionTable

	// PageCount is the number of pages in the source, including empty ones.
	PageCount int
}

// TextBuilder assembles ExtractedText line by line so that every rune is
// attributable to exactly one line.
type TextBuilder struct {
	text   strings.Builder
	lines  []LineRange
	offset int
	page   int
	line   int
}

// NewTextBuilder creates a builder positioned at page 1.
func NewTextBuilder() *TextBuilder {
	return &TextBuilder{page: 1}
}

// lineBreaks are replaced inside a line; the builder owns line termination.
var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\f", " ", "\v", " ")

// AddLine appends a line of text terminated by a newline.
func (b *TextBuilder) AddLine(text string) {
	text = lineBreaks.Replace(text)
	n := utf8.RuneCountInString(text) + 1
	b.line++
	b.text.WriteString(text)
	b.text.WriteByte('\n')
	b.lines = append(b.lines, LineRange{Start: b.offset, End: b.offset + n, Page: b.page, Line: b.line})
	b.offset += n
}

// BreakPage ends the current page. Empty pages still advance the page count.
// The last line of a non-empty page gets an extra newline so a page break is
// also a paragraph break.
func (b *TextBuilder) BreakPage() {
	if n := len(b.lines); n > 0 && b.lines[n-1].Page == b.page {
		b.text.WriteByte('\n')
		b.lines[n-1].End++
		b.offset++
	}
	b.page++
	b.line = 0
}

// Page returns the current page number.
func (b *TextBuilder) Page() int {
	return b.page
}

// HasText reports whether any non-whitespace text has been added.
func (b *TextBuilder) HasText() bool {
	return strings.TrimSpace(b.text.String()) != ""
}

// Build returns the assembled ExtractedText.
func (b *TextBuilder) Build(documentID string) *ExtractedText {
	return &ExtractedText{
		DocumentID: documentID,
		Text:       b.text.String(),
		Positions:  NewPositionTable(b.lines),
		PageCount:  b.page,
	}
}
