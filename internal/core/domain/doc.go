// Package domain defines the core business entities for Sanad.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An uploaded document within a conversation
//   - ExtractedText: Extractor output with its page/line PositionTable
//   - OffsetMap: Correspondence between normalised and extracted text
//   - Chunk: A retrievable unit with its original page/line spans
//   - Citation: A resolved page/line reference returned by a query
//
// # Offsets
//
// Every offset in this package counts runes, not bytes. Extracted text,
// normalised text and chunk spans all use the same unit, so an offset can
// travel from a chunk back to the PositionTable without re-encoding.
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
