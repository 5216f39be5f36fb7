package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sanad/internal/core/domain"
	"github.com/custodia-labs/sanad/internal/core/ports/driving"
	"github.com/custodia-labs/sanad/internal/logger"
)

// Version is the MCP server version.
const Version = "0.1.0"

// DefaultConversation is used when a tool call names no conversation.
const DefaultConversation = "default"

// Server is the MCP server for Sanad. It owns the conversations opened
// through it and closes them on Close.
type Server struct {
	ports  *Ports
	server *mcp.Server

	mu            sync.Mutex
	conversations map[string]driving.Conversation
}

// NewServer creates a new MCP server with the given ports.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	impl := &mcp.Implementation{
		Name:    "sanad",
		Version: Version,
	}

	s := &Server{
		ports:         ports,
		server:        mcp.NewServer(impl, nil),
		conversations: make(map[string]driving.Conversation),
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Conversation returns the open conversation with the ID, opening it first
// if needed. An empty ID selects DefaultConversation.
func (s *Server) Conversation(id string) (driving.Conversation, error) {
	if id == "" {
		id = DefaultConversation
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if conv, ok := s.conversations[id]; ok {
		return conv, nil
	}
	conv, err := s.ports.Pipeline.NewConversation(id)
	if err != nil {
		return nil, fmt.Errorf("opening conversation %s: %w", id, err)
	}
	s.conversations[id] = conv
	logger.Info("Opened conversation %s", id)
	return conv, nil
}

// lookup returns an open conversation without opening one.
func (s *Server) lookup(id string) (driving.Conversation, error) {
	if id == "" {
		id = DefaultConversation
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return nil, fmt.Errorf("%w: conversation %s", domain.ErrNotFound, id)
	}
	return conv, nil
}

// closeConversation closes and forgets one conversation.
func (s *Server) closeConversation(id string) error {
	if id == "" {
		id = DefaultConversation
	}
	s.mu.Lock()
	conv, ok := s.conversations[id]
	delete(s.conversations, id)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: conversation %s", domain.ErrNotFound, id)
	}
	return conv.Close()
}

// conversationIDs returns the open conversation IDs, sorted.
func (s *Server) conversationIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.conversations))
	for id := range s.conversations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close closes every conversation opened through the server.
func (s *Server) Close() error {
	s.mu.Lock()
	convs := s.conversations
	s.conversations = make(map[string]driving.Conversation)
	s.mu.Unlock()

	var errs []error
	for _, conv := range convs {
		if err := conv.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Run starts the MCP server over stdio.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP starts the MCP server over HTTP on the specified address.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown when context is cancelled
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background()) //nolint:errcheck
	}()

	err := httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
