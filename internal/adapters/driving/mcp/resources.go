package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for Sanad resources.
	uriScheme = "sanad://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "conversations",
		Name:        "conversations",
		Description: "Open conversations and their document counts",
		MIMEType:    "application/json",
	}, s.handleConversationsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "conversations/{conversationId}/documents",
		Name:        "conversation-documents",
		Description: "Active documents of a conversation in upload order",
		MIMEType:    "application/json",
	}, s.handleDocumentsResource)
}

// handleConversationsResource lists the open conversations.
func (s *Server) handleConversationsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	type conversationInfo struct {
		ID         string `json:"id"`
		Documents  int    `json:"documents"`
		ChunkCount int    `json:"chunk_count"`
	}

	infos := []conversationInfo{}
	for _, id := range s.conversationIDs() {
		conv, err := s.lookup(id)
		if err != nil {
			// Closed between listing and lookup.
			continue
		}
		infos = append(infos, conversationInfo{
			ID:         id,
			Documents:  len(conv.Documents()),
			ChunkCount: conv.ChunkCount(),
		})
	}

	return jsonResource(req.Params.URI, infos)
}

// handleDocumentsResource returns the documents of one conversation.
func (s *Server) handleDocumentsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract conversationId from URI: sanad://conversations/{conversationId}/documents
	id := extractConversationID(req.Params.URI)
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	conv, err := s.lookup(id)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	docs := conv.Documents()
	infos := make([]DocumentOutput, len(docs))
	for i, d := range docs {
		infos[i] = newDocumentOutput(d)
	}
	return jsonResource(req.Params.URI, infos)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractConversationID extracts the conversation ID from a URI like
// sanad://conversations/{conversationId}/documents.
func extractConversationID(uri string) string {
	const prefix = uriScheme + "conversations/"
	const suffix = "/documents"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	return strings.TrimSuffix(uri, suffix)
}
