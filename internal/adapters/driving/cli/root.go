// Package cli provides the sanad command line interface.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sanad/internal/core/ports/driving"
	"github.com/custodia-labs/sanad/internal/logger"
)

var (
	// version is set at build time.
	version = "dev"

	verbose   bool
	configDir string

	// Services are built on first use by requireSettings and
	// requirePipeline. Tests set them directly.
	settingsService driving.SettingsService
	pipelineService driving.PipelineService
)

var rootCmd = &cobra.Command{
	Use:   "sanad",
	Short: "Cited retrieval over uploaded documents",
	Long: `Sanad ingests PDF, DOCX and plain text documents, Arabic or English, and
answers questions with citations that point at the page and line each
passage came from.

Documents live in a conversation index capped at pipeline.max_documents;
the least recently used document is evicted to make room.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline progress to stderr")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "configuration directory (default ~/.sanad)")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command and releases the services afterwards.
// Cancelling ctx stops ingestion and the MCP server.
func Execute(ctx context.Context) error {
	defer closeServices()
	return rootCmd.ExecuteContext(ctx)
}
