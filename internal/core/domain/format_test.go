package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat_IsValid(t *testing.T) {
	for _, f := range Formats() {
		assert.True(t, f.IsValid(), f)
		assert.NotEmpty(t, f.MIMEType(), f)
	}
	assert.False(t, Format("odt").IsValid())
	assert.Empty(t, Format("odt").MIMEType())
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected Format
	}{
		{"pdf", FormatPDF},
		{"PDF", FormatPDF},
		{".pdf", FormatPDF},
		{"report.PDF", FormatPDF},
		{"application/pdf", FormatPDF},
		{"docx", FormatDOCX},
		{"العقد.docx", FormatDOCX},
		{MIMETypeDOCX, FormatDOCX},
		{"txt", FormatTXT},
		{"text", FormatTXT},
		{"notes.txt", FormatTXT},
		{"text/plain; charset=utf-8", FormatTXT},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseFormat_Unsupported(t *testing.T) {
	for _, input := range []string{"", "odt", "image.png", "application/zip"} {
		_, err := ParseFormat(input)
		assert.True(t, errors.Is(err, ErrUnsupportedFormat), input)
	}
}
