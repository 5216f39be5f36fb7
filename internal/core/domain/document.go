package domain

import "time"

// Language is the dominant language of a document's text.
type Language string

// Detected languages.
const (
	// LanguageArabic marks text written predominantly in Arabic script.
	LanguageArabic Language = "arabic"

	// LanguageEnglish marks text written predominantly in Latin script.
	LanguageEnglish Language = "english"

	// LanguageUnknown is used when no script dominates or there is no text.
	LanguageUnknown Language = "unknown"
)

// Document represents an uploaded document within a conversation.
// It is created on upload, immutable once extracted and dropped when it is
// removed or evicted from its conversation.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// ConversationID links to the conversation that owns the document.
	ConversationID string

	// Filename is the name the document was uploaded under.
	Filename string

	// Format is the upload format.
	Format Format

	// Language is the detected dominant language.
	Language Language

	// PageCount is the number of pages reported by extraction.
	PageCount int

	// Size is the raw upload size in bytes.
	Size int

	// CreatedAt is when the document was processed.
	CreatedAt time.Time
}

// Upload is a raw document handed to the pipeline by a caller.
type Upload struct {
	// Filename is the name shown in citations.
	Filename string

	// Format is the declared format. Empty means detect from content.
	Format Format

	// Content is the raw bytes.
	Content []byte
}

// IngestResult is the outcome of processing one document.
type IngestResult struct {
	// Document is the processed document.
	Document Document

	// ChunkCount is the number of chunks added to the conversation index.
	ChunkCount int

	// Evicted lists documents removed to stay within the document cap.
	Evicted []DocumentEvicted

	// Warnings lists spans where normalisation degraded to identity.
	Warnings []NormalisationWarning
}

// IngestOutcome pairs an upload with its result or error for batch ingestion.
type IngestOutcome struct {
	// Filename echoes the upload filename.
	Filename string

	// Result is set on success.
	Result *IngestResult

	// Err is set on failure.
	Err error
}

// NormalisedDocument carries a document through the post-processor
// pipeline together with both text versions and the map between them.
type NormalisedDocument struct {
	Document   *Document
	Extracted  *ExtractedText
	Normalised *NormalisedText
}

// Inspection is a dry run of the ingestion pipeline without embedding.
type Inspection struct {
	Document Document
	Text     string
	Chunks   []Chunk
	Warnings []NormalisationWarning
}
