package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sanad/internal/core/domain"
	"github.com/custodia-labs/sanad/internal/core/ports/driven"
	"github.com/custodia-labs/sanad/internal/logger"
)

// ingester runs the per-document stages: extract, normalise, chunk, embed.
// The stages run in sequence; documents are independent of each other.
type ingester struct {
	extractors     driven.ExtractorRegistry
	normaliser     driven.Normaliser
	postProcessors driven.PostProcessorPipeline
	embedder       driven.EmbeddingService
}

// preparedDocument is a document whose chunks are ready to commit.
type preparedDocument struct {
	doc        domain.Document
	normalised string
	chunks     []domain.Chunk
	warnings   []domain.NormalisationWarning
}

// prepare extracts, normalises and chunks an upload.
func (in *ingester) prepare(ctx context.Context, conversationID string, upload domain.Upload) (*preparedDocument, error) {
	logger.Section("Ingest " + upload.Filename)

	format, err := in.extractors.Detect(upload)
	if err != nil {
		return nil, err
	}
	extractor, err := in.extractors.Get(format)
	if err != nil {
		return nil, withFilename(err, upload.Filename)
	}

	docID := uuid.NewString()
	extracted, err := extractor.Extract(ctx, docID, upload.Content)
	if err != nil {
		return nil, withFilename(err, upload.Filename)
	}
	textLen := len([]rune(extracted.Text))
	if err := extracted.Positions.Validate(textLen); err != nil {
		return nil, fmt.Errorf("%w: %s position table: %w", domain.ErrIndexCorruption, format, err)
	}
	logger.Debug("Extracted %d rune(s) on %d page(s) as %s", textLen, extracted.PageCount, format)

	normalised := in.normaliser.Normalise(ctx, extracted)
	if err := normalised.Map.Validate(); err != nil {
		return nil, fmt.Errorf("%w: offset map: %w", domain.ErrIndexCorruption, err)
	}

	doc := domain.Document{
		ID:             docID,
		ConversationID: conversationID,
		Filename:       upload.Filename,
		Format:         format,
		Language:       in.normaliser.DetectLanguage(extracted.Text),
		PageCount:      extracted.PageCount,
		Size:           len(upload.Content),
		CreatedAt:      time.Now(),
	}

	chunks, err := in.postProcessors.Process(ctx, &domain.NormalisedDocument{
		Document:   &doc,
		Extracted:  extracted,
		Normalised: normalised,
	})
	if err != nil {
		return nil, fmt.Errorf("chunking %s: %w", upload.Filename, err)
	}
	if len(chunks) == 0 {
		return nil, &domain.ExtractionError{Format: format, Filename: upload.Filename, Err: domain.ErrEmptyDocument}
	}
	if err := checkSpans(chunks, extracted.Positions); err != nil {
		return nil, err
	}

	logger.Debug("Document %s: language=%s chunks=%d warnings=%d",
		docID, doc.Language, len(chunks), len(normalised.Warnings))

	return &preparedDocument{
		doc:        doc,
		normalised: normalised.Text,
		chunks:     chunks,
		warnings:   normalised.Warnings,
	}, nil
}

// embed attaches an embedding to every chunk. Vectors are copied so that no
// two chunks share backing storage.
func (in *ingester) embed(ctx context.Context, p *preparedDocument) error {
	texts := make([]string, len(p.chunks))
	for i := range p.chunks {
		texts[i] = p.chunks[i].Content
	}

	vectors, err := in.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding %s: %w", p.doc.Filename, err)
	}
	if len(vectors) != len(texts) {
		return fmt.Errorf("%w: %d embeddings for %d chunks", domain.ErrIndexCorruption, len(vectors), len(texts))
	}

	dims := in.embedder.Dimensions()
	for i := range p.chunks {
		if len(vectors[i]) != dims {
			return fmt.Errorf("%w: chunk %s embedded with %d dimensions, want %d",
				domain.ErrIndexCorruption, p.chunks[i].ID, len(vectors[i]), dims)
		}
		p.chunks[i].Embedding = slices.Clone(vectors[i])
	}
	return nil
}

// checkSpans verifies every chunk span lies within the document's pages and
// lines.
func checkSpans(chunks []domain.Chunk, positions domain.PositionTable) error {
	pages := positions.PageCount()
	for _, c := range chunks {
		if len(c.OriginalSpans) == 0 {
			return fmt.Errorf("%w: chunk %s has no original spans", domain.ErrIndexCorruption, c.ID)
		}
		for _, s := range c.OriginalSpans {
			if s.Page < 1 || s.Page > pages || s.LineStart < 1 ||
				s.LineEnd < s.LineStart || s.LineEnd > positions.LinesOnPage(s.Page) {
				return fmt.Errorf("%w: chunk %s span %s outside document bounds", domain.ErrIndexCorruption, c.ID, s)
			}
		}
	}
	return nil
}

// withFilename fills in the filename of an extraction error.
func withFilename(err error, filename string) error {
	var extractionErr *domain.ExtractionError
	if errors.As(err, &extractionErr) && extractionErr.Filename == "" {
		copied := *extractionErr
		copied.Filename = filename
		return &copied
	}
	return err
}
