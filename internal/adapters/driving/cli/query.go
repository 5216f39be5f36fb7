package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sanad/internal/core/domain"
)

var (
	queryQuestion string
	queryTopK     int
	queryMinScore float64
	queryJSON     bool
)

var queryCmd = &cobra.Command{
	Use:   "query FILE... -q QUESTION",
	Short: "Ask a question over one or more documents",
	Long: `Ingest the given files into a fresh conversation and answer a question
with citations.

Files are committed in the order given. When more files are passed than
pipeline.max_documents allows, the oldest are evicted and reported.`,
	Example: `  sanad query report.pdf -q "ما هي نتائج الربع الأول؟"
  sanad query notes.txt contract.docx -q "termination clause" -k 3 --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVarP(&queryQuestion, "question", "q", "", "question to answer (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "maximum chunk hits (default pipeline.top_k)")
	queryCmd.Flags().Float64Var(&queryMinScore, "min-score", 0, "similarity floor in [0, 1] (default pipeline.min_score)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "print the result as JSON")
	_ = queryCmd.MarkFlagRequired("question")
	rootCmd.AddCommand(queryCmd)
}

// queryOutput is the --json shape of a query.
type queryOutput struct {
	Documents []documentOutput         `json:"documents"`
	Failed    []failureOutput          `json:"failed,omitempty"`
	Evicted   []domain.DocumentEvicted `json:"evicted,omitempty"`
	Citations []domain.Citation        `json:"citations"`
}

type documentOutput struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	Format    string `json:"format"`
	Language  string `json:"language"`
	PageCount int    `json:"page_count"`
	Chunks    int    `json:"chunks,omitempty"`
}

type failureOutput struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

func newDocumentOutput(d domain.Document, chunks int) documentOutput {
	return documentOutput{
		ID:        d.ID,
		Filename:  d.Filename,
		Format:    d.Format.String(),
		Language:  string(d.Language),
		PageCount: d.PageCount,
		Chunks:    chunks,
	}
}

func runQuery(cmd *cobra.Command, args []string) error {
	uploads, err := readUploads(args)
	if err != nil {
		return err
	}

	opts := domain.QueryOptions{K: queryTopK}
	if cmd.Flags().Changed("min-score") {
		opts.MinScore = domain.ScoreFloor(queryMinScore)
	}

	pipeline, err := requirePipeline()
	if err != nil {
		return err
	}
	conv, err := pipeline.NewConversation("")
	if err != nil {
		return err
	}
	defer conv.Close()

	ctx := cmd.Context()
	outcomes := conv.ProcessDocuments(ctx, uploads)

	out := queryOutput{}
	warn := newPrinter(cmd.ErrOrStderr())
	for _, o := range outcomes {
		if o.Err != nil {
			out.Failed = append(out.Failed, failureOutput{Filename: o.Filename, Error: o.Err.Error()})
			warn.warning("Skipped %s: %v", o.Filename, o.Err)
			continue
		}
		for _, w := range o.Result.Warnings {
			warn.warning("%s: normalisation skipped runes %d-%d: %s", o.Filename, w.Start, w.End, w.Reason)
		}
		out.Evicted = append(out.Evicted, o.Result.Evicted...)
		for _, e := range o.Result.Evicted {
			warn.evicted(e)
		}
	}
	if len(out.Failed) == len(outcomes) {
		return errors.New("no document could be processed")
	}

	active := make(map[string]bool)
	for _, d := range conv.Documents() {
		active[d.ID] = true
	}
	for _, o := range outcomes {
		if o.Err == nil && active[o.Result.Document.ID] {
			out.Documents = append(out.Documents, newDocumentOutput(o.Result.Document, o.Result.ChunkCount))
		}
	}

	citations, err := conv.Query(ctx, queryQuestion, opts)
	if err != nil {
		return err
	}
	out.Citations = citations

	if queryJSON {
		if out.Citations == nil {
			out.Citations = []domain.Citation{}
		}
		return writeJSON(cmd, out)
	}

	p := newPrinter(cmd.OutOrStdout())
	p.heading(fmt.Sprintf("%d citation(s) for %q", len(citations), queryQuestion))
	p.citations(citations)
	return nil
}

// readUploads loads files from disk. The upload name is the base name so
// citations stay short; the format is detected from content.
func readUploads(paths []string) ([]domain.Upload, error) {
	uploads := make([]domain.Upload, 0, len(paths))
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		uploads = append(uploads, domain.Upload{
			Filename: filepath.Base(path),
			Content:  content,
		})
	}
	return uploads, nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
