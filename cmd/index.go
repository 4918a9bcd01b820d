package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"docqa/internal/index"

	"github.com/spf13/cobra"
)

var flagOverview bool

var indexCmd = &cobra.Command{
	Use:   "index <path>",
	Short: "Index a PDF or Word document, or a directory of them",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := index.New(index.Config{
			Index:      cfg.Index,
			OllamaURL:  cfg.OllamaURL,
			Embedding:  cfg.Embedding,
			Chunking:   cfg.Chunking,
			Completion: cfg.Completion,
			Overview:   flagOverview,
			OnProgress: printProgress,
			Logger:     slog.Default(),
		})
		if err != nil {
			return err
		}
		defer idx.Close()

		fmt.Printf("Indexing %s...\n", args[0])
		start := time.Now()

		stats, err := idx.Index(cmd.Context(), args[0])
		elapsed := time.Since(start)

		if stats != nil {
			fmt.Printf("\nDone in %s\n", elapsed.Round(time.Millisecond))
			fmt.Printf("  Documents: %d total, %d indexed, %d skipped\n",
				stats.DocumentsTotal, stats.DocumentsIndexed, stats.DocumentsSkipped)
			fmt.Printf("  Pages:     %d\n", stats.Pages)
			fmt.Printf("  Chunks:    %d\n", stats.ChunksTotal)
			if err == nil {
				fmt.Printf("  Index:     %s\n", cfg.Index.DBPath())
			}
		}

		return err
	},
}

var lastPhase string

func printProgress(phase string, done, total int) {
	if phase != lastPhase {
		if lastPhase != "" {
			fmt.Println()
		}
		lastPhase = phase
	}
	if total > 0 {
		fmt.Printf("\r%s %d/%d", phase, done, total)
	} else {
		fmt.Printf("\r%s", phase)
	}
}

func init() {
	indexCmd.Flags().BoolVar(&flagOverview, "overview", false, "summarize documents and write an overview with the chat model")
	indexCmd.Flags().IntVar(&flagChunkSize, "chunk-size", 0, "chunk size in characters (default 1000)")
	indexCmd.Flags().IntVar(&flagOverlap, "chunk-overlap", 0, "overlap between consecutive chunks (default 200)")
	rootCmd.AddCommand(indexCmd)
}
