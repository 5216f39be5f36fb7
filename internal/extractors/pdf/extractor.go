// Package pdf extracts text from PDF documents using github.com/ledongthuc/pdf.
//
// PDF pages are real pages. Lines are synthesised from layout: text drawn
// at the same baseline forms one row, and each non-blank row is one line.
// Rows dominated by Arabic or Hebrew letters are read right to left; a
// left-to-right phrase embedded in such a row keeps its own item order only
// when the producer drew it as a single item.
package pdf

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/sanad/internal/core/domain"
	"github.com/custodia-labs/sanad/internal/core/ports/driven"
	"github.com/custodia-labs/sanad/internal/logger"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles PDF documents.
type Extractor struct {
	open func(content []byte) (document, error)
}

// New creates a new PDF extractor.
func New() *Extractor {
	return &Extractor{open: openDocument}
}

// Format returns the format this extractor handles.
func (e *Extractor) Format() domain.Format {
	return domain.FormatPDF
}

// Extract reads every page and records a page and line for every rune.
// Pages without text still count towards the page numbering.
func (e *Extractor) Extract(ctx context.Context, documentID string, content []byte) (ext *domain.ExtractedText, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			ext = nil
			err = corrupt(fmt.Errorf("%v", r))
		}
	}()

	doc, err := e.open(content)
	if err != nil {
		return nil, corrupt(err)
	}

	b := domain.NewTextBuilder()
	pages := doc.NumPage()
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if i > 1 {
			b.BreakPage()
		}

		rows, err := doc.Rows(i)
		if err != nil {
			logger.Warn("pdf: page %d of %s: %v", i, documentID, err)
			continue
		}
		for _, row := range rows {
			if line := joinRow(row); strings.TrimSpace(line) != "" {
				b.AddLine(line)
			}
		}
	}

	if !b.HasText() {
		return nil, domain.NewExtractionError(domain.FormatPDF, domain.ErrEmptyDocument)
	}
	return b.Build(documentID), nil
}

func corrupt(err error) error {
	return domain.NewExtractionError(domain.FormatPDF, fmt.Errorf("%w: %w", domain.ErrCorruptDocument, err))
}

// item is one piece of text drawn on a row, left to right.
type item struct {
	S string
	X float64
}

// document is the page source the extractor lays out.
type document interface {
	NumPage() int
	Rows(page int) ([][]item, error)
}

// joinRow concatenates the items of a row in reading order. Multi-rune
// items are separate words or phrases and get a space between them; single
// glyphs drawn one by one are joined directly. A row written mostly in a
// right-to-left script is read from its rightmost item.
func joinRow(row []item) string {
	if rightToLeft(row) {
		row = slices.Clone(row)
		slices.SortStableFunc(row, func(a, b item) int { return cmp.Compare(b.X, a.X) })
	}

	var sb strings.Builder
	prev := ""
	for _, it := range row {
		if it.S == "" {
			continue
		}
		if needsSpace(prev, it.S) {
			sb.WriteByte(' ')
		}
		sb.WriteString(it.S)
		prev = it.S
	}
	return strings.TrimSpace(sb.String())
}

// rightToLeft reports whether Arabic or Hebrew letters outnumber other
// letters in row. Only the order of items changes; the runes within an item
// are kept as drawn.
func rightToLeft(row []item) bool {
	if len(row) < 2 {
		return false
	}
	rtl, ltr := 0, 0
	for _, it := range row {
		for _, r := range it.S {
			switch {
			case unicode.In(r, unicode.Arabic, unicode.Hebrew):
				rtl++
			case unicode.IsLetter(r):
				ltr++
			}
		}
	}
	return rtl > ltr
}

func needsSpace(prev, next string) bool {
	if prev == "" {
		return false
	}
	if strings.HasSuffix(prev, " ") || strings.HasPrefix(next, " ") {
		return false
	}
	return len([]rune(prev)) > 1 && len([]rune(next)) > 1
}

// reader adapts *pdf.Reader to document.
type reader struct {
	r *pdf.Reader
}

func openDocument(content []byte) (document, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, err
	}
	return &reader{r: r}, nil
}

func (d *reader) NumPage() int {
	return d.r.NumPage()
}

// Rows returns the page's text grouped by baseline, top to bottom. When
// row grouping fails the page's plain text is split on newlines instead.
func (d *reader) Rows(page int) ([][]item, error) {
	p := d.r.Page(page)
	if p.V.IsNull() {
		return nil, nil
	}

	rows, err := p.GetTextByRow()
	if err == nil {
		out := make([][]item, 0, len(rows))
		for _, row := range rows {
			items := make([]item, 0, len(row.Content))
			for _, t := range row.Content {
				items = append(items, item{S: t.S, X: t.X})
			}
			out = append(out, items)
		}
		return out, nil
	}

	logger.Debug("pdf: row layout failed on page %d, using plain text: %v", page, err)
	text, err := p.GetPlainText(nil)
	if err != nil {
		return nil, err
	}
	var out [][]item
	for _, line := range strings.Split(text, "\n") {
		out = append(out, []item{{S: line}})
	}
	return out, nil
}
