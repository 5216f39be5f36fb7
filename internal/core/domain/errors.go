package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown post-processor or provider type.
	ErrUnsupportedType = errors.New("unsupported type")

	// Extraction Errors.

	// ErrExtraction matches every ExtractionError.
	ErrExtraction = errors.New("extraction failed")

	// ErrUnsupportedFormat indicates the upload is not PDF, DOCX or TXT.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrCorruptDocument indicates the upload could not be parsed as its format.
	ErrCorruptDocument = errors.New("corrupt document")

	// ErrUndecodableText indicates no supported text encoding could decode the upload.
	ErrUndecodableText = errors.New("undecodable text encoding")

	// ErrEmptyDocument indicates the upload contains no extractable text.
	ErrEmptyDocument = errors.New("document contains no text")

	// Embedding and Index Errors.

	// ErrEmbeddingUnavailable indicates the embedding service is unreachable
	// or kept failing after bounded retries.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrIndexCorruption indicates a violated index invariant such as an
	// embedding dimension mismatch. It is a configuration bug and is fatal.
	ErrIndexCorruption = errors.New("index corruption")

	// ErrDocumentCapReached indicates the index refused a document beyond its cap.
	ErrDocumentCapReached = errors.New("document cap reached")

	// Conversation Errors.

	// ErrConversationClosed indicates the conversation has ended.
	ErrConversationClosed = errors.New("conversation closed")

	// ErrAlreadyExists indicates a conversation with the same ID is open.
	ErrAlreadyExists = errors.New("already exists")
)

// ExtractionError is returned by extractors for unsupported, corrupt or
// undecodable input. errors.Is matches both ErrExtraction and the cause.
type ExtractionError struct {
	// Format is the format extraction was attempted as.
	Format Format

	// Filename is the upload name, when known.
	Filename string

	// Err is the cause.
	Err error
}

// NewExtractionError wraps a cause as an ExtractionError.
func NewExtractionError(format Format, err error) *ExtractionError {
	return &ExtractionError{Format: format, Err: err}
}

// Error implements error.
func (e *ExtractionError) Error() string {
	subject := string(e.Format)
	if e.Filename != "" {
		subject = fmt.Sprintf("%s (%s)", e.Filename, e.Format)
	}
	if subject == "" {
		return fmt.Sprintf("extract: %v", e.Err)
	}
	return fmt.Sprintf("extract %s: %v", subject, e.Err)
}

// Unwrap returns the cause.
func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Is matches ErrExtraction.
func (e *ExtractionError) Is(target error) bool {
	return target == ErrExtraction
}
