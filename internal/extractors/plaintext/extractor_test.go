package plaintext

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	xunicode "golang.org/x/text/encoding/unicode"

	"github.com/custodia-labs/sanad/internal/core/domain"
)

func extract(t *testing.T, e *Extractor, content []byte) *domain.ExtractedText {
	t.Helper()
	ext, err := e.Extract(context.Background(), "doc-1", content)
	require.NoError(t, err)
	require.NoError(t, ext.Positions.Validate(utf8.RuneCountInString(ext.Text)))
	return ext
}

func TestNew(t *testing.T) {
	e := New()
	require.NotNil(t, e)
	assert.Equal(t, domain.FormatTXT, e.Format())
	assert.Len(t, e.legacy, 2)
}

func TestExtract_UTF8(t *testing.T) {
	ext := extract(t, New(), []byte("سطر واحد\nسطر اثنان\n"))

	assert.Equal(t, "doc-1", ext.DocumentID)
	assert.Equal(t, "سطر واحد\nسطر اثنان\n", ext.Text)
	assert.Equal(t, 1, ext.PageCount)
	assert.Equal(t, 2, ext.Positions.LinesOnPage(1))
}

func TestExtract_StripsUTF8BOM(t *testing.T) {
	ext := extract(t, New(), append([]byte{0xEF, 0xBB, 0xBF}, []byte("hello")...))
	assert.Equal(t, "hello\n", ext.Text)
}

func TestExtract_CRLF(t *testing.T) {
	ext := extract(t, New(), []byte("one\r\ntwo\rthree"))
	assert.Equal(t, "one\ntwo\nthree\n", ext.Text)
	assert.Equal(t, 3, ext.Positions.LinesOnPage(1))
}

func TestExtract_UTF16WithBOM(t *testing.T) {
	encoded, err := xunicode.UTF16(xunicode.LittleEndian, xunicode.UseBOM).NewEncoder().String("مرحبا\nعالم")
	require.NoError(t, err)

	ext := extract(t, New(), []byte(encoded))
	assert.Equal(t, "مرحبا\nعالم\n", ext.Text)
}

func TestExtract_UTF16WithoutBOM(t *testing.T) {
	encoded, err := xunicode.UTF16(xunicode.LittleEndian, xunicode.IgnoreBOM).NewEncoder().String("hello\nworld")
	require.NoError(t, err)

	ext := extract(t, New(), []byte(encoded))
	assert.Equal(t, "hello\nworld\n", ext.Text)
}

func TestExtract_Windows1256(t *testing.T) {
	encoded, err := charmap.Windows1256.NewEncoder().String("مرحبا بالعالم")
	require.NoError(t, err)
	require.False(t, utf8.ValidString(encoded))

	ext := extract(t, New(), []byte(encoded))
	assert.Equal(t, "مرحبا بالعالم\n", ext.Text)
}

func TestExtract_Undecodable(t *testing.T) {
	_, err := New().Extract(context.Background(), "doc-1", []byte{0x00, 0x01, 0x02})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrExtraction))
	assert.True(t, errors.Is(err, domain.ErrUndecodableText))
}

func TestExtract_NoLegacyEncodings(t *testing.T) {
	encoded, err := charmap.Windows1256.NewEncoder().String("مرحبا بالعالم")
	require.NoError(t, err)

	_, err = New(WithLegacyEncodings()).Extract(context.Background(), "doc-1", []byte(encoded))
	assert.ErrorIs(t, err, domain.ErrUndecodableText)
}

func TestExtract_FormFeedStartsPage(t *testing.T) {
	ext := extract(t, New(), []byte("first page\n\fsecond page\nmore"))

	assert.Equal(t, 2, ext.PageCount)
	assert.Equal(t, "first page\n\nsecond page\nmore\n", ext.Text)

	pos, ok := ext.Positions.Lookup(utf8.RuneCountInString("first page\n\n"))
	require.True(t, ok)
	assert.Equal(t, domain.Position{Page: 2, Line: 1}, pos)
}

func TestExtract_EmptyPageCounts(t *testing.T) {
	ext := extract(t, New(), []byte("one\f\ftwo"))
	assert.Equal(t, 3, ext.PageCount)
	assert.Equal(t, 0, ext.Positions.LinesOnPage(2))
	assert.Equal(t, 1, ext.Positions.LinesOnPage(3))
}

func TestExtract_LinesPerPage(t *testing.T) {
	ext := extract(t, New(WithLinesPerPage(2)), []byte("a\nb\nc\nd\ne"))

	assert.Equal(t, 3, ext.PageCount)
	pos, ok := ext.Positions.Lookup(utf8.RuneCountInString("a\nb\n\n"))
	require.True(t, ok)
	assert.Equal(t, domain.Position{Page: 2, Line: 1}, pos)
}

func TestExtract_BlankLinesKept(t *testing.T) {
	ext := extract(t, New(), []byte("para one\n\npara two"))
	assert.Equal(t, "para one\n\npara two\n", ext.Text)
	assert.Equal(t, 3, ext.Positions.LinesOnPage(1))
}

func TestExtract_LeadingBlankLinesKeepNumbering(t *testing.T) {
	tests := []struct {
		name    string
		content string
		marker  string
		want    domain.Position
	}{
		{"one leading blank line", "\nPenguins", "Penguins", domain.Position{Page: 1, Line: 2}},
		{"three leading blank lines", "\n\n\nPenguins", "Penguins", domain.Position{Page: 1, Line: 4}},
		{"blank line after form feed line", "A\n\f\n\nB", "B", domain.Position{Page: 2, Line: 2}},
		{"form feed on its own line", "A\n\f\nB", "B", domain.Position{Page: 2, Line: 1}},
		{"form feed inline", "A\fB", "B", domain.Position{Page: 2, Line: 1}},
		{"blank lines after inline form feed", "A\f\n\nB", "B", domain.Position{Page: 2, Line: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext := extract(t, New(), []byte(tt.content))

			idx := strings.LastIndex(ext.Text, tt.marker)
			require.GreaterOrEqual(t, idx, 0)
			pos, ok := ext.Positions.Lookup(utf8.RuneCountInString(ext.Text[:idx]))
			require.True(t, ok)
			assert.Equal(t, tt.want, pos)
		})
	}
}

func TestExtract_Empty(t *testing.T) {
	for _, content := range [][]byte{nil, []byte("   \n\t\n"), []byte("\f\f")} {
		_, err := New().Extract(context.Background(), "doc-1", content)
		assert.ErrorIs(t, err, domain.ErrEmptyDocument)
		assert.ErrorIs(t, err, domain.ErrExtraction)
	}
}

func TestExtract_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Extract(ctx, "doc-1", []byte("text"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtract_Stateless(t *testing.T) {
	e := New()
	first := extract(t, e, []byte("alpha\nbeta"))
	second := extract(t, e, []byte("alpha\nbeta"))
	assert.Equal(t, first, second)
}
