package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sanad/internal/adapters/driving/mcp"
	"github.com/custodia-labs/sanad/internal/connectors/filesystem"
	"github.com/custodia-labs/sanad/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so an assistant can upload
documents and ask for cited passages.

By default, the server communicates over stdio using JSON-RPC.
Use --port to start an HTTP server instead.

With --watch, the supported files of a directory are ingested into the
conversation named by --conversation and kept in step as they change.

Examples:
  # Stdio mode (default)
  sanad mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  sanad mcp serve --port 8080

  # Keep a conversation in step with a folder
  sanad mcp serve --watch ~/contracts --conversation contracts

Assistant configuration:
  {
    "mcpServers": {
      "sanad": {
        "command": "/path/to/sanad",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().String("watch", "", "directory to ingest and watch")
	mcpServeCmd.Flags().String("conversation", mcp.DefaultConversation, "conversation fed by --watch")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	watchDir, err := cmd.Flags().GetString("watch")
	if err != nil {
		return fmt.Errorf("getting watch flag: %w", err)
	}
	conversation, err := cmd.Flags().GetString("conversation")
	if err != nil {
		return fmt.Errorf("getting conversation flag: %w", err)
	}

	if watchDir != "" {
		info, err := os.Stat(watchDir)
		if err != nil {
			return fmt.Errorf("watch directory: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("watch directory: %s is not a directory", watchDir)
		}
	}

	pipeline, err := requirePipeline()
	if err != nil {
		return err
	}
	server, err := mcp.NewServer(&mcp.Ports{Pipeline: pipeline})
	if err != nil {
		return err
	}
	defer server.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	if watchDir != "" {
		conv, err := server.Conversation(conversation)
		if err != nil {
			return err
		}
		watcher := filesystem.New(watchDir, conv)
		g.Go(func() error {
			return watcher.Run(ctx)
		})
		logger.Info("Watching %s into conversation %s", watchDir, conv.ID())
	}

	// The watcher stops with the server.
	g.Go(func() error {
		defer cancel()
		if port > 0 {
			addr := fmt.Sprintf(":%d", port)
			fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://localhost%s\n", addr)
			return server.RunHTTP(ctx, addr)
		}
		return server.Run(ctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
