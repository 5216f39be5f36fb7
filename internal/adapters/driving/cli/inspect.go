package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sanad/internal/core/domain"
)

var inspectJSON bool

var inspectCmd = &cobra.Command{
	Use:   "inspect FILE",
	Short: "Show how a document is extracted and chunked",
	Long: `Run extraction, normalisation and chunking over a file without embedding
it, and print every chunk with the page and line spans it cites.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "print the inspection as JSON")
	rootCmd.AddCommand(inspectCmd)
}

type inspectOutput struct {
	Document documentOutput  `json:"document"`
	Chunks   []chunkOutput   `json:"chunks"`
	Warnings []warningOutput `json:"warnings,omitempty"`
}

type chunkOutput struct {
	ID              string        `json:"id"`
	Position        int           `json:"position"`
	NormalisedStart int           `json:"normalised_start"`
	NormalisedEnd   int           `json:"normalised_end"`
	Spans           []domain.Span `json:"spans"`
	Content         string        `json:"content"`
}

type warningOutput struct {
	Start  int    `json:"start"`
	End    int    `json:"end"`
	Reason string `json:"reason"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	content, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	pipeline, err := requirePipeline()
	if err != nil {
		return err
	}
	inspection, err := pipeline.Inspect(cmd.Context(), domain.Upload{
		Filename: filepath.Base(args[0]),
		Content:  content,
	})
	if err != nil {
		return err
	}

	if inspectJSON {
		out := inspectOutput{
			Document: newDocumentOutput(inspection.Document, len(inspection.Chunks)),
			Chunks:   make([]chunkOutput, len(inspection.Chunks)),
		}
		for i, c := range inspection.Chunks {
			out.Chunks[i] = chunkOutput{
				ID:              c.ID,
				Position:        c.Position,
				NormalisedStart: c.NormalisedStart,
				NormalisedEnd:   c.NormalisedEnd,
				Spans:           c.OriginalSpans,
				Content:         c.Content,
			}
		}
		for _, w := range inspection.Warnings {
			out.Warnings = append(out.Warnings, warningOutput(w))
		}
		return writeJSON(cmd, out)
	}

	doc := inspection.Document
	p := newPrinter(cmd.OutOrStdout())
	p.heading(doc.Filename)
	p.printf("  Format:   %s\n", doc.Format)
	p.printf("  Language: %s\n", doc.Language)
	p.printf("  Pages:    %d\n", doc.PageCount)
	p.printf("  Size:     %d bytes\n", doc.Size)
	p.printf("  Chunks:   %d\n\n", len(inspection.Chunks))
	for _, w := range inspection.Warnings {
		p.warning("Normalisation skipped runes %d-%d: %s", w.Start, w.End, w.Reason)
	}
	for _, c := range inspection.Chunks {
		p.chunk(c)
	}
	return nil
}
