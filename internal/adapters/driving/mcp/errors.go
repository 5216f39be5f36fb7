// Package mcp provides an MCP (Model Context Protocol) server adapter for
// Sanad. It lets an assistant upload documents into named conversations and
// query them for cited passages.
package mcp

import "errors"

// ErrMissingPipeline is returned when the pipeline service is not provided.
var ErrMissingPipeline = errors.New("mcp: pipeline service is required")

// ErrNoContent is returned when process_document is given neither content,
// content_base64 nor path.
var ErrNoContent = errors.New("mcp: one of content, content_base64 or path is required")
