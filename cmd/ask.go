package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var (
	flagSources int
	flagFile    string
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from the indexed documents",
	Long: `Answer a question from the indexed documents.

With --file the question is answered from that one document alone, using an
in-memory index that is discarded afterwards.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			s   *session
			err error
		)
		if flagFile != "" {
			s, err = openFileSession(cmd.Context(), cfg, flagFile)
		} else {
			s, err = openSession(cfg)
		}
		if err != nil {
			return err
		}
		defer s.Close()

		return ask(cmd.Context(), cmd.OutOrStdout(), s, strings.Join(args, " "), flagSources)
	},
}

func ask(ctx context.Context, w io.Writer, s *session, question string, sources int) error {
	answer, err := s.pipeline.Ask(ctx, question)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Question: %s\n\n", answer.Question)
	fmt.Fprintf(w, "Answer:\n%s\n", strings.TrimSpace(answer.Text))
	if sources > 0 && len(answer.Chunks) > 0 {
		fmt.Fprintf(w, "\nSources:\n%s", formatSources(answer.Chunks, sources))
	}
	return nil
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Show the chunks retrieved for a query without generating an answer",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cfg)
		if err != nil {
			return err
		}
		defer s.Close()

		query := strings.Join(args, " ")
		results, err := s.pipeline.Search(cmd.Context(), query, cfg.Retrieval.K)
		if err != nil {
			return err
		}
		fmt.Print(formatSearchResults(query, results))
		return nil
	},
}

func init() {
	addRetrievalFlags(askCmd)
	askCmd.Flags().IntVar(&flagSources, "sources", 3, "number of source chunks to print")
	askCmd.Flags().StringVar(&flagFile, "file", "", "answer from this single PDF or Word document without using the index")
	addRetrievalFlags(searchCmd)
	rootCmd.AddCommand(askCmd, searchCmd)
}
