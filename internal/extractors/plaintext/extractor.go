// Package plaintext extracts text files in UTF-8, UTF-16 or a legacy
// Arabic code page.
//
// Lines are the file's own lines, blank ones included, so line numbers match
// what an editor shows. Pages start at form feeds and, when configured,
// after a fixed number of lines. A form feed written on its own line
// ("\n\f\n") separates pages without adding a blank line to either side.
package plaintext

import (
	"context"
	"strings"

	"github.com/custodia-labs/sanad/internal/core/domain"
	"github.com/custodia-labs/sanad/internal/core/ports/driven"
	"github.com/custodia-labs/sanad/internal/logger"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles plain text documents.
type Extractor struct {
	linesPerPage int
	legacy       []LegacyEncoding
}

// Option configures the extractor.
type Option func(*Extractor)

// WithLinesPerPage starts a new page after n lines. Zero disables it.
func WithLinesPerPage(n int) Option {
	return func(e *Extractor) {
		if n >= 0 {
			e.linesPerPage = n
		}
	}
}

// WithLegacyEncodings replaces the code pages tried after UTF-8 and UTF-16.
func WithLegacyEncodings(encodings ...LegacyEncoding) Option {
	return func(e *Extractor) {
		e.legacy = encodings
	}
}

// New creates a new plain text extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{legacy: DefaultLegacyEncodings()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Format returns the format this extractor handles.
func (e *Extractor) Format() domain.Format {
	return domain.FormatTXT
}

// Extract decodes the content and records a page and line for every rune.
func (e *Extractor) Extract(ctx context.Context, documentID string, content []byte) (*domain.ExtractedText, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text, encoding, ok := decode(content, e.legacy)
	if !ok {
		return nil, domain.NewExtractionError(domain.FormatTXT, domain.ErrUndecodableText)
	}
	logger.Debug("plaintext: decoded %d bytes as %s", len(content), encoding)

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSuffix(text, "\n")

	b := domain.NewTextBuilder()
	for i, page := range strings.Split(text, "\f") {
		if i > 0 {
			b.BreakPage()
		}
		e.addPage(b, page, i > 0)
	}

	if !b.HasText() {
		return nil, domain.NewExtractionError(domain.FormatTXT, domain.ErrEmptyDocument)
	}
	return b.Build(documentID), nil
}

// addPage adds the lines of one page. Only a page that follows a form feed
// drops a single leading newline, the terminator of the form feed's own line.
func (e *Extractor) addPage(b *domain.TextBuilder, page string, afterFormFeed bool) {
	if afterFormFeed {
		page = strings.TrimPrefix(page, "\n")
	}
	page = strings.TrimSuffix(page, "\n")
	if page == "" {
		return
	}
	for i, line := range strings.Split(page, "\n") {
		if e.linesPerPage > 0 && i > 0 && i%e.linesPerPage == 0 {
			b.BreakPage()
		}
		b.AddLine(line)
	}
}
