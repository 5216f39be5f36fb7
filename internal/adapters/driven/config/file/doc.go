// Package file provides file-based implementations of driven port interfaces.
//
// Adapters:
//   - ConfigStore: TOML configuration at ~/.sanad/config.toml
//
// Keys are addressed in dot notation ("pipeline.chunk_size") and written back
// as nested TOML tables:
//
//	[pipeline]
//	chunk_size = 500
//	chunk_overlap = 100
//
//	[embedding]
//	provider = "ollama"
//	model = "bge-m3"
package file
