// Package extractors provides the TextExtractor implementations for the
// closed set of upload formats {PDF, DOCX, TXT}, and the registry that
// resolves an upload to one of them.
//
// Every extractor builds its output through domain.TextBuilder, so each rune
// of extracted text is attributable to exactly one page and line. Adding a
// format means adding a domain.Format constant and a sub-package here.
package extractors
