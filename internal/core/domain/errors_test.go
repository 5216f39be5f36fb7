package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrUnsupportedType", ErrUnsupportedType},
		{"ErrExtraction", ErrExtraction},
		{"ErrUnsupportedFormat", ErrUnsupportedFormat},
		{"ErrCorruptDocument", ErrCorruptDocument},
		{"ErrUndecodableText", ErrUndecodableText},
		{"ErrEmptyDocument", ErrEmptyDocument},
		{"ErrEmbeddingUnavailable", ErrEmbeddingUnavailable},
		{"ErrIndexCorruption", ErrIndexCorruption},
		{"ErrDocumentCapReached", ErrDocumentCapReached},
		{"ErrConversationClosed", ErrConversationClosed},
		{"ErrAlreadyExists", ErrAlreadyExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestExtractionError(t *testing.T) {
	err := &ExtractionError{Format: FormatTXT, Filename: "notes.txt", Err: ErrUndecodableText}

	assert.Equal(t, "extract notes.txt (txt): undecodable text encoding", err.Error())
	assert.True(t, errors.Is(err, ErrExtraction))
	assert.True(t, errors.Is(err, ErrUndecodableText))
	assert.False(t, errors.Is(err, ErrCorruptDocument))

	wrapped := fmt.Errorf("process document: %w", err)
	var target *ExtractionError
	assert.True(t, errors.As(wrapped, &target))
	assert.Equal(t, FormatTXT, target.Format)
	assert.True(t, errors.Is(wrapped, ErrExtraction))
}

func TestNewExtractionError(t *testing.T) {
	err := NewExtractionError(FormatPDF, ErrCorruptDocument)
	assert.Equal(t, "extract pdf: corrupt document", err.Error())

	noFormat := NewExtractionError("", ErrUnsupportedFormat)
	assert.Equal(t, "extract: unsupported format", noFormat.Error())
}
