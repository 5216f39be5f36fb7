package extractors

import (
	"fmt"
	"sync"

	"github.com/gabriel-vasile/mimetype"

	"github.com/custodia-labs/sanad/internal/core/domain"
	"github.com/custodia-labs/sanad/internal/core/ports/driven"
	"github.com/custodia-labs/sanad/internal/extractors/docx"
	"github.com/custodia-labs/sanad/internal/extractors/pdf"
	"github.com/custodia-labs/sanad/internal/extractors/plaintext"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

const mimeZip = "application/zip"

// Registry maps each format to its extractor.
type Registry struct {
	mu         sync.RWMutex
	extractors map[domain.Format]driven.Extractor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{extractors: make(map[domain.Format]driven.Extractor)}
}

// DefaultRegistry creates a registry with the PDF, DOCX and TXT extractors.
func DefaultRegistry(settings domain.PipelineSettings) *Registry {
	r := NewRegistry()
	r.Register(pdf.New())
	r.Register(docx.New())
	r.Register(plaintext.New(plaintext.WithLinesPerPage(settings.LinesPerPage)))
	return r
}

// Register adds or replaces the extractor for its format.
func (r *Registry) Register(e driven.Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extractors[e.Format()] = e
}

// Get returns the extractor for a format.
func (r *Registry) Get(format domain.Format) (driven.Extractor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.extractors[format]
	if !ok {
		return nil, domain.NewExtractionError(format, domain.ErrUnsupportedFormat)
	}
	return e, nil
}

// Formats returns the registered formats.
func (r *Registry) Formats() []domain.Format {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var formats []domain.Format
	for _, f := range domain.Formats() {
		if _, ok := r.extractors[f]; ok {
			formats = append(formats, f)
		}
	}
	return formats
}

// Detect resolves the format of an upload. A declared format wins over the
// filename extension; either is checked against the content's magic bytes.
// With neither, the magic bytes decide.
func (r *Registry) Detect(upload domain.Upload) (domain.Format, error) {
	declared := upload.Format
	if declared == "" && upload.Filename != "" {
		if f, err := domain.ParseFormat(upload.Filename); err == nil {
			declared = f
		}
	}
	if declared != "" && !declared.IsValid() {
		return "", extractionError(declared, upload.Filename, domain.ErrUnsupportedFormat)
	}

	detected := Sniff(upload.Content)
	if declared == "" {
		if detected == "" {
			return "", extractionError("", upload.Filename, domain.ErrUnsupportedFormat)
		}
		return detected, nil
	}

	if !compatible(declared, upload.Content) {
		return "", extractionError(declared, upload.Filename,
			fmt.Errorf("%w: content is %s", domain.ErrCorruptDocument, mimetype.Detect(upload.Content)))
	}
	return declared, nil
}

// Sniff returns the format implied by the content's magic bytes, or empty
// when the content is not one of the supported formats.
func Sniff(content []byte) domain.Format {
	mt := mimetype.Detect(content)
	switch {
	case is(mt, domain.MIMETypePDF):
		return domain.FormatPDF
	case is(mt, domain.MIMETypeDOCX):
		return domain.FormatDOCX
	case is(mt, domain.MIMETypeTXT), mt.Is("application/octet-stream"):
		return domain.FormatTXT
	default:
		return ""
	}
}

// compatible reports whether content can plausibly be parsed as format.
// Plain text accepts anything that is not a PDF or a zip container, and the
// text decoder decides the rest.
func compatible(format domain.Format, content []byte) bool {
	mt := mimetype.Detect(content)
	switch format {
	case domain.FormatPDF:
		return is(mt, domain.MIMETypePDF)
	case domain.FormatDOCX:
		return is(mt, mimeZip)
	case domain.FormatTXT:
		return !is(mt, domain.MIMETypePDF) && !is(mt, mimeZip)
	default:
		return false
	}
}

// is reports whether mt or one of its ancestors is the given MIME type.
func is(mt *mimetype.MIME, mime string) bool {
	for m := mt; m != nil; m = m.Parent() {
		if m.Is(mime) {
			return true
		}
	}
	return false
}

func extractionError(format domain.Format, filename string, err error) error {
	return &domain.ExtractionError{Format: format, Filename: filename, Err: err}
}
