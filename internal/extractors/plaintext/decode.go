package plaintext

import (
	"bytes"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	xunicode "golang.org/x/text/encoding/unicode"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// decode converts raw bytes to a string, trying UTF-8, then UTF-16, then
// the legacy code pages in order. It returns the name of the encoding used.
func decode(data []byte, legacy []LegacyEncoding) (string, string, bool) {
	if s, ok := decodeUTF8(data); ok {
		return s, "utf-8", true
	}
	if s, name, ok := decodeUTF16(data); ok {
		return s, name, true
	}
	for _, l := range legacy {
		if s, ok := decodeWith(l.Encoding, data); ok {
			return s, l.Name, true
		}
	}
	return "", "", false
}

func decodeUTF8(data []byte) (string, bool) {
	data = bytes.TrimPrefix(data, bomUTF8)
	if !utf8.Valid(data) {
		return "", false
	}
	s := string(data)
	return s, plausible(s)
}

// decodeUTF16 honours a byte order mark. Without one, both byte orders are
// tried and the decoding yielding more letters wins.
func decodeUTF16(data []byte) (string, string, bool) {
	switch {
	case bytes.HasPrefix(data, bomUTF16LE):
		s, ok := decodeWith(xunicode.UTF16(xunicode.LittleEndian, xunicode.ExpectBOM), data)
		return s, "utf-16le", ok
	case bytes.HasPrefix(data, bomUTF16BE):
		s, ok := decodeWith(xunicode.UTF16(xunicode.BigEndian, xunicode.ExpectBOM), data)
		return s, "utf-16be", ok
	}
	if len(data) < 2 || len(data)%2 != 0 {
		return "", "", false
	}

	le, leOK := decodeWith(xunicode.UTF16(xunicode.LittleEndian, xunicode.IgnoreBOM), data)
	be, beOK := decodeWith(xunicode.UTF16(xunicode.BigEndian, xunicode.IgnoreBOM), data)
	switch {
	case leOK && (!beOK || letters(le) >= letters(be)):
		return le, "utf-16le", true
	case beOK:
		return be, "utf-16be", true
	default:
		return "", "", false
	}
}

func decodeWith(enc encoding.Encoding, data []byte) (string, bool) {
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", false
	}
	s := string(out)
	if !utf8.ValidString(s) {
		return "", false
	}
	return s, plausible(s)
}

// plausible rejects text containing replacement characters or control
// characters other than the whitespace ones.
func plausible(s string) bool {
	for _, r := range s {
		switch {
		case r == utf8.RuneError:
			return false
		case r == '\t' || r == '\n' || r == '\r' || r == '\f' || r == '\v':
		case unicode.IsControl(r):
			return false
		}
	}
	return true
}

func letters(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			n++
		}
	}
	return n
}

// LegacyEncoding is a single-byte code page tried after UTF-8 and UTF-16.
type LegacyEncoding struct {
	Name     string
	Encoding encoding.Encoding
}

// DefaultLegacyEncodings returns the Arabic code pages in the order tried.
func DefaultLegacyEncodings() []LegacyEncoding {
	return []LegacyEncoding{
		{Name: "windows-1256", Encoding: charmap.Windows1256},
		{Name: "iso-8859-6", Encoding: charmap.ISO8859_6},
	}
}
