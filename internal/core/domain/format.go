package domain

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies a supported upload format.
// The set is closed: adding a format means adding a constant here and an
// Extractor for it, never a conditional in a caller.
type Format string

// Supported formats.
const (
	// FormatPDF is a Portable Document Format file.
	FormatPDF Format = "pdf"

	// FormatDOCX is an Office Open XML word processing document.
	FormatDOCX Format = "docx"

	// FormatTXT is a plain text file in any supported encoding.
	FormatTXT Format = "txt"
)

// MIME types for the supported formats.
const (
	MIMETypePDF  = "application/pdf"
	MIMETypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMETypeTXT  = "text/plain"
)

// Formats returns all supported formats.
func Formats() []Format {
	return []Format{FormatPDF, FormatDOCX, FormatTXT}
}

// IsValid returns true if the format is recognised.
func (f Format) IsValid() bool {
	switch f {
	case FormatPDF, FormatDOCX, FormatTXT:
		return true
	default:
		return false
	}
}

// MIMEType returns the canonical MIME type for the format.
func (f Format) MIMEType() string {
	switch f {
	case FormatPDF:
		return MIMETypePDF
	case FormatDOCX:
		return MIMETypeDOCX
	case FormatTXT:
		return MIMETypeTXT
	default:
		return ""
	}
}

// String returns the string representation.
func (f Format) String() string {
	return string(f)
}

// ParseFormat resolves a format name, file extension, filename or MIME type.
// MIME parameters such as "; charset=utf-8" are ignored.
func ParseFormat(s string) (Format, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if i := strings.IndexByte(v, ';'); i >= 0 {
		v = strings.TrimSpace(v[:i])
	}

	switch v {
	case MIMETypePDF:
		return FormatPDF, nil
	case MIMETypeDOCX:
		return FormatDOCX, nil
	case MIMETypeTXT:
		return FormatTXT, nil
	}

	if ext := filepath.Ext(v); ext != "" {
		v = ext
	}
	v = strings.TrimPrefix(v, ".")

	switch v {
	case "pdf":
		return FormatPDF, nil
	case "docx":
		return FormatDOCX, nil
	case "txt", "text":
		return FormatTXT, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}
