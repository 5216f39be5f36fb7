// Package docx extracts Office Open XML word processing documents.
//
// Each paragraph is one line and each table row is one line with its cells
// joined by " | ". DOCX files carry no layout, so pages are taken from
// explicit page breaks and the page breaks Word recorded when it last
// rendered the document.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/sanad/internal/core/domain"
	"github.com/custodia-labs/sanad/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

const documentPart = "word/document.xml"

// Extractor handles DOCX documents.
type Extractor struct{}

// New creates a new DOCX extractor.
func New() *Extractor {
	return &Extractor{}
}

// Format returns the format this extractor handles.
func (e *Extractor) Format() domain.Format {
	return domain.FormatDOCX
}

// Extract reads word/document.xml and records a page and line for every rune.
func (e *Extractor) Extract(ctx context.Context, documentID string, content []byte) (*domain.ExtractedText, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, corrupt(fmt.Errorf("open archive: %w", err))
	}

	part, err := readPart(reader, documentPart)
	if err != nil {
		return nil, corrupt(err)
	}

	w := newWalker()
	if err := w.walk(ctx, part); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, corrupt(fmt.Errorf("parse %s: %w", documentPart, err))
	}

	if !w.b.HasText() {
		return nil, domain.NewExtractionError(domain.FormatDOCX, domain.ErrEmptyDocument)
	}
	return w.b.Build(documentID), nil
}

// readPart returns the contents of a named part of the archive.
func readPart(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("missing %s", name)
}

func corrupt(err error) error {
	return domain.NewExtractionError(domain.FormatDOCX, fmt.Errorf("%w: %w", domain.ErrCorruptDocument, err))
}

// walker streams document.xml tokens into a TextBuilder.
type walker struct {
	b *domain.TextBuilder

	line      strings.Builder
	runDepth  int
	inText    bool
	pageDirty bool
	paraBroke bool

	tableDepth int
	cells      []string
	cell       strings.Builder
}

func newWalker() *walker {
	return &walker{b: domain.NewTextBuilder()}
}

func (w *walker) walk(ctx context.Context, part []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(part))
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			w.start(t)
		case xml.EndElement:
			w.end(t)
		case xml.CharData:
			if w.inText {
				w.text(string(t))
			}
		}
	}
}

func (w *walker) start(el xml.StartElement) {
	switch el.Name.Local {
	case "r":
		w.runDepth++
	case "t":
		w.inText = true
	case "tab":
		// tab stops in paragraph properties share the element name
		if w.runDepth > 0 {
			w.text("\t")
		}
	case "br":
		if attr(el, "type") == "page" {
			w.flushLine(false)
			w.breakPage(true)
			return
		}
		w.flushLine(false)
	case "lastRenderedPageBreak":
		w.flushLine(false)
		w.breakPage(false)
	case "pageBreakBefore":
		if v := attr(el, "val"); v == "" || v == "1" || v == "true" || v == "on" {
			w.breakPage(false)
		}
	case "tbl":
		w.tableDepth++
	case "tr":
		if w.tableDepth == 1 {
			w.cells = w.cells[:0]
		}
	case "tc":
		if w.tableDepth == 1 {
			w.cell.Reset()
		}
	}
}

func (w *walker) end(el xml.EndElement) {
	switch el.Name.Local {
	case "r":
		w.runDepth--
	case "t":
		w.inText = false
	case "p":
		w.flushLine(true)
	case "tc":
		if w.tableDepth == 1 {
			w.cells = append(w.cells, strings.TrimSpace(w.cell.String()))
		}
	case "tr":
		if w.tableDepth == 1 {
			w.addRow()
		}
	case "tbl":
		w.tableDepth--
	}
}

func (w *walker) text(s string) {
	if w.tableDepth > 0 {
		w.cell.WriteString(s)
		return
	}
	w.line.WriteString(s)
}

// flushLine ends the current line. Inside a table the text stays in its cell.
func (w *walker) flushLine(paragraphEnd bool) {
	if w.tableDepth > 0 {
		if w.cell.Len() > 0 {
			w.cell.WriteByte(' ')
		}
		return
	}
	empty := w.line.Len() == 0
	broke := w.paraBroke
	if paragraphEnd {
		w.paraBroke = false
	}
	if empty && (!paragraphEnd || broke) {
		return
	}
	w.b.AddLine(w.line.String())
	w.line.Reset()
	if !empty {
		w.pageDirty = true
	}
}

func (w *walker) addRow() {
	var cells []string
	for _, c := range w.cells {
		if c != "" {
			cells = append(cells, c)
		}
	}
	if len(cells) == 0 {
		return
	}
	w.b.AddLine(strings.Join(cells, " | "))
	w.pageDirty = true
}

// breakPage starts a new page. Breaks Word recorded while rendering are
// ignored when nothing has been written since the previous break, so an
// explicit break followed by a rendered one yields a single page.
func (w *walker) breakPage(explicit bool) {
	if !explicit && !w.pageDirty {
		return
	}
	w.b.BreakPage()
	w.pageDirty = false
	w.paraBroke = true
}

func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
