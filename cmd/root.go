package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"docqa/internal/config"
	"docqa/internal/domain"

	"github.com/spf13/cobra"
)

var (
	flagEnvFile    string
	flagIndexDir   string
	flagOllama     string
	flagModel      string
	flagChatModel  string
	flagVision     string
	flagProvider   string
	flagLogLevel   string
	flagChunkSize  int
	flagOverlap    int
	flagSearchType string
	flagK          int
	flagFetchK     int
	flagLambda     float64
)

// cfg is resolved once per invocation in PersistentPreRunE.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:           "docqa",
	Short:         "Ask questions about your PDF and Word documents",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI()
	},
}

// Execute runs the root command. Interrupts cancel the command context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error (%s): %v\n", domain.Kind(err), err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagEnvFile, "env-file", "", "dotenv file to read (default .env)")
	pf.StringVar(&flagIndexDir, "index-dir", "", "index directory (default .docqa)")
	pf.StringVar(&flagOllama, "ollama", "", "ollama base URL")
	pf.StringVar(&flagModel, "model", "", "embedding model")
	pf.StringVar(&flagChatModel, "chat-model", "", "generative model for answers")
	pf.StringVar(&flagProvider, "provider", "", "completion provider: ollama or openai")
	pf.StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
}

// addRetrievalFlags registers the query-time retrieval flags on cmd.
func addRetrievalFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntVar(&flagK, "k", 0, "number of chunks to retrieve (default 5)")
	f.StringVar(&flagSearchType, "search-type", "", "retrieval strategy: similarity or mmr")
	f.IntVar(&flagFetchK, "fetch-k", 0, "candidates fetched before MMR re-ranking (default 20)")
	f.Float64Var(&flagLambda, "lambda", 0, "MMR relevance/diversity trade-off in [0, 1] (default 0.5)")
}

// loadConfig layers defaults, dotenv, environment and explicitly set flags,
// then validates the result and installs the logger.
func loadConfig(cmd *cobra.Command) error {
	if flagEnvFile != "" {
		cfg = config.Load(flagEnvFile)
	} else {
		cfg = config.Load()
	}

	flags := cmd.Flags()
	if flags.Changed("index-dir") {
		cfg.Index.Dir = flagIndexDir
	}
	if flags.Changed("ollama") {
		cfg.OllamaURL = flagOllama
	}
	if flags.Changed("model") {
		cfg.Embedding.Model = flagModel
	}
	if flags.Changed("chat-model") {
		cfg.Completion.Model = flagChatModel
	}
	if flags.Changed("vision-model") {
		cfg.Completion.VisionModel = flagVision
	}
	if flags.Changed("provider") {
		cfg.Completion.Provider = flagProvider
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	if flags.Changed("chunk-size") {
		cfg.Chunking.Size = flagChunkSize
	}
	if flags.Changed("chunk-overlap") {
		cfg.Chunking.Overlap = flagOverlap
	}
	if flags.Changed("k") {
		cfg.Retrieval.K = flagK
	}
	if flags.Changed("search-type") {
		cfg.Retrieval.SearchType = flagSearchType
	}
	if flags.Changed("fetch-k") {
		cfg.Retrieval.FetchK = flagFetchK
	}
	if flags.Changed("lambda") {
		cfg.Retrieval.Lambda = flagLambda
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	})))

	return cfg.Validate()
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
