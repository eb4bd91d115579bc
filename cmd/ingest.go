package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"leetmentor/ingest"
	"leetmentor/vector"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <pattern>...",
	Short: "Index local reference files into the vector store",
	Long: `Index files matching the given glob patterns. Patterns support
doublestar globs, e.g. "docs/**/*.md". Markdown, HTML and plain text
files are supported; each file is stored under a slug derived from its
name and re-ingesting replaces the previous chunks.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngest(cmd.Context(), args)
	},
}

func runIngest(ctx context.Context, patterns []string) error {
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	ingestor := ingest.NewFileIngestor(a.store, vector.DefaultChunkConfig(), a.logger)

	var total ingest.Report
	for _, pattern := range patterns {
		report, err := ingestor.IngestGlob(ctx, pattern)
		total.Files += report.Files
		total.Chunks += report.Chunks
		total.Skipped = append(total.Skipped, report.Skipped...)
		if err != nil {
			return err
		}
	}

	fmt.Printf("indexed %d chunks from %d files (%d skipped)\n", total.Chunks, total.Files, len(total.Skipped))
	return nil
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
