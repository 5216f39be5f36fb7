package mcp

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sanad/internal/core/domain"
)

// ProcessDocumentInput is the input schema for the process_document tool.
type ProcessDocumentInput struct {
	ConversationID string `json:"conversation_id,omitempty" jsonschema:"conversation to add the document to (default \"default\")"`
	Filename       string `json:"filename,omitempty" jsonschema:"name shown in citations (defaults to the base name of path)"`
	Format         string `json:"format,omitempty" jsonschema:"pdf, docx or txt; detected from content when empty"`
	Content        string `json:"content,omitempty" jsonschema:"plain text content"`
	ContentBase64  string `json:"content_base64,omitempty" jsonschema:"base64 encoded file bytes"`
	Path           string `json:"path,omitempty" jsonschema:"local file path to read"`
}

// ProcessDocumentOutput is the output schema for the process_document tool.
type ProcessDocumentOutput struct {
	DocumentID string                   `json:"document_id"`
	Filename   string                   `json:"filename"`
	Format     string                   `json:"format"`
	Language   string                   `json:"language"`
	PageCount  int                      `json:"page_count"`
	ChunkCount int                      `json:"chunk_count"`
	Evicted    []domain.DocumentEvicted `json:"evicted,omitempty"`
}

// QueryInput is the input schema for the query tool.
type QueryInput struct {
	ConversationID string   `json:"conversation_id,omitempty" jsonschema:"conversation to query (default \"default\")"`
	Question       string   `json:"question" jsonschema:"the question to find supporting passages for"`
	TopK           int      `json:"top_k,omitempty" jsonschema:"maximum number of chunk hits (default pipeline.top_k)"`
	MinScore       *float64 `json:"min_score,omitempty" jsonschema:"similarity floor in [0, 1] (default pipeline.min_score)"`
}

// QueryOutput is the output schema for the query tool.
type QueryOutput struct {
	Citations []CitationOutput `json:"citations"`
	Count     int              `json:"count"`
}

// CitationOutput is a citation with its rendered label.
type CitationOutput struct {
	Label      string  `json:"label"`
	DocumentID string  `json:"document_id"`
	Filename   string  `json:"filename"`
	Page       int     `json:"page"`
	LineStart  int     `json:"line_start"`
	LineEnd    int     `json:"line_end"`
	Score      float64 `json:"score"`
	Text       string  `json:"text"`
}

// RemoveDocumentInput is the input schema for the remove_document tool.
type RemoveDocumentInput struct {
	ConversationID string `json:"conversation_id,omitempty" jsonschema:"conversation holding the document (default \"default\")"`
	DocumentID     string `json:"document_id" jsonschema:"the document to remove"`
}

// RemoveDocumentOutput is the output schema for the remove_document tool.
type RemoveDocumentOutput struct {
	Removed bool `json:"removed"`
}

// ConversationInput names a conversation.
type ConversationInput struct {
	ConversationID string `json:"conversation_id,omitempty" jsonschema:"conversation (default \"default\")"`
}

// ListDocumentsOutput is the output schema for the list_documents tool.
type ListDocumentsOutput struct {
	Documents  []DocumentOutput `json:"documents"`
	ChunkCount int              `json:"chunk_count"`
}

// DocumentOutput describes an active document.
type DocumentOutput struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	Format    string `json:"format"`
	Language  string `json:"language"`
	PageCount int    `json:"page_count"`
}

// CloseConversationOutput is the output schema for the close_conversation tool.
type CloseConversationOutput struct {
	Closed bool `json:"closed"`
}

func newDocumentOutput(d domain.Document) DocumentOutput {
	return DocumentOutput{
		ID:        d.ID,
		Filename:  d.Filename,
		Format:    d.Format.String(),
		Language:  string(d.Language),
		PageCount: d.PageCount,
	}
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "process_document",
		Description: "Extract, chunk and index a PDF, DOCX or text document into a conversation",
	}, s.handleProcessDocument)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "query",
		Description: "Find passages answering a question, each cited by filename, page and line",
	}, s.handleQuery)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "remove_document",
		Description: "Remove a document and its chunks from a conversation",
	}, s.handleRemoveDocument)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List the active documents of a conversation in upload order",
	}, s.handleListDocuments)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "close_conversation",
		Description: "Close a conversation and drop its index",
	}, s.handleCloseConversation)
}

func (s *Server) handleProcessDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ProcessDocumentInput,
) (*mcp.CallToolResult, ProcessDocumentOutput, error) {
	upload, err := uploadFromInput(input)
	if err != nil {
		return nil, ProcessDocumentOutput{}, err
	}

	conv, err := s.Conversation(input.ConversationID)
	if err != nil {
		return nil, ProcessDocumentOutput{}, err
	}

	result, err := conv.ProcessDocument(ctx, upload)
	if err != nil {
		return nil, ProcessDocumentOutput{}, err
	}

	doc := result.Document
	return nil, ProcessDocumentOutput{
		DocumentID: doc.ID,
		Filename:   doc.Filename,
		Format:     doc.Format.String(),
		Language:   string(doc.Language),
		PageCount:  doc.PageCount,
		ChunkCount: result.ChunkCount,
		Evicted:    result.Evicted,
	}, nil
}

// uploadFromInput builds an upload from exactly one content source.
func uploadFromInput(input ProcessDocumentInput) (domain.Upload, error) {
	upload := domain.Upload{Filename: input.Filename}
	if input.Format != "" {
		format, err := domain.ParseFormat(input.Format)
		if err != nil {
			return domain.Upload{}, err
		}
		upload.Format = format
	}

	switch {
	case input.ContentBase64 != "":
		data, err := base64.StdEncoding.DecodeString(input.ContentBase64)
		if err != nil {
			return domain.Upload{}, fmt.Errorf("%w: content_base64: %w", domain.ErrInvalidInput, err)
		}
		upload.Content = data
	case input.Path != "":
		data, err := os.ReadFile(input.Path)
		if err != nil {
			return domain.Upload{}, fmt.Errorf("reading %s: %w", input.Path, err)
		}
		upload.Content = data
		if upload.Filename == "" {
			upload.Filename = filepath.Base(input.Path)
		}
	case input.Content != "":
		upload.Content = []byte(input.Content)
		if upload.Format == "" {
			upload.Format = domain.FormatTXT
		}
	default:
		return domain.Upload{}, ErrNoContent
	}

	if upload.Filename == "" {
		return domain.Upload{}, fmt.Errorf("%w: filename is required", domain.ErrInvalidInput)
	}
	return upload, nil
}

func (s *Server) handleQuery(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryInput,
) (*mcp.CallToolResult, QueryOutput, error) {
	conv, err := s.lookup(input.ConversationID)
	if err != nil {
		return nil, QueryOutput{}, err
	}

	citations, err := conv.Query(ctx, input.Question, domain.QueryOptions{
		K:        input.TopK,
		MinScore: input.MinScore,
	})
	if err != nil {
		return nil, QueryOutput{}, err
	}

	output := QueryOutput{
		Citations: make([]CitationOutput, len(citations)),
		Count:     len(citations),
	}
	for i, c := range citations {
		output.Citations[i] = CitationOutput{
			Label:      c.Label(),
			DocumentID: c.DocumentID,
			Filename:   c.Filename,
			Page:       c.Page,
			LineStart:  c.LineStart,
			LineEnd:    c.LineEnd,
			Score:      c.Score,
			Text:       c.ChunkText,
		}
	}
	return nil, output, nil
}

func (s *Server) handleRemoveDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RemoveDocumentInput,
) (*mcp.CallToolResult, RemoveDocumentOutput, error) {
	conv, err := s.lookup(input.ConversationID)
	if err != nil {
		return nil, RemoveDocumentOutput{}, err
	}
	if err := conv.RemoveDocument(ctx, input.DocumentID); err != nil {
		return nil, RemoveDocumentOutput{}, err
	}
	return nil, RemoveDocumentOutput{Removed: true}, nil
}

func (s *Server) handleListDocuments(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ConversationInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	conv, err := s.lookup(input.ConversationID)
	if err != nil {
		return nil, ListDocumentsOutput{}, err
	}

	docs := conv.Documents()
	output := ListDocumentsOutput{
		Documents:  make([]DocumentOutput, len(docs)),
		ChunkCount: conv.ChunkCount(),
	}
	for i, d := range docs {
		output.Documents[i] = newDocumentOutput(d)
	}
	return nil, output, nil
}

func (s *Server) handleCloseConversation(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ConversationInput,
) (*mcp.CallToolResult, CloseConversationOutput, error) {
	if err := s.closeConversation(input.ConversationID); err != nil {
		return nil, CloseConversationOutput{}, err
	}
	return nil, CloseConversationOutput{Closed: true}, nil
}
