// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// A PipelineService holds the immutable pipeline configuration. Each
// Conversation it opens owns a capped index of uploaded documents and
// answers questions with page and line citations into them.
package services
