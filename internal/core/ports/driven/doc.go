// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the pipeline to function:
//
//   - Extractor: Extracts text and a page/line table from one format
//   - ExtractorRegistry: Selects the extractor for a format
//   - Normaliser: Normalises extracted text and records the offset map
//   - PostProcessorPipeline: Turns normalised text into chunks with provenance
//   - EmbeddingService: Generates vector embeddings for chunks and queries
//   - VectorIndex: Per-conversation similarity search
//   - DocumentStore: Per-conversation document and chunk storage
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the pipeline works without them:
//
//   - EmbeddingCache: Skips repeated embedding calls for identical text.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, extractor, or normaliser package
package driven
