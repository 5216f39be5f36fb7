package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sanad/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sanad/internal/core/services"
)

// setupTestServices wires the real pipeline over an in-memory config store
// with the offline hashing embedder. Overrides are config keys.
func setupTestServices(t *testing.T, overrides map[string]any) {
	t.Helper()
	store := memory.NewConfigStore()
	for key, value := range map[string]any{
		"pipeline.chunk_size":    60,
		"pipeline.chunk_overlap": 0,
		"pipeline.min_score":     0.0,
	} {
		require.NoError(t, store.Set(key, value))
	}
	for key, value := range overrides {
		require.NoError(t, store.Set(key, value))
	}

	ss := services.NewSettingsService(store)
	settings, err := ss.Load()
	require.NoError(t, err)
	pipeline, err := NewPipeline(settings, t.TempDir())
	require.NoError(t, err)

	settingsService = ss
	pipelineService = pipeline
	resetFlags(rootCmd)

	t.Cleanup(func() {
		closeServices()
		settingsService = nil
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
		resetFlags(rootCmd)
	})
}

// resetFlags restores every flag to its default, since cobra keeps parsed
// values between Execute calls.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
