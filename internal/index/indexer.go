package index

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"docqa/internal/chunker"
	"docqa/internal/config"
	"docqa/internal/embedder"
	"docqa/internal/llm"
	"docqa/internal/loader"
	"docqa/internal/store"
)

// ProgressFunc receives pipeline progress. total is 0 when unknown.
type ProgressFunc func(phase string, done, total int)

// Config holds the indexer configuration.
type Config struct {
	Index      config.Index
	OllamaURL  string
	Embedding  config.Embedding
	Chunking   config.Chunking
	Completion config.Completion
	// Overview enables per-document summaries and a combined overview,
	// written next to the index.
	Overview   bool
	OnProgress ProgressFunc
	Logger     *slog.Logger
}

// Indexer builds the persisted index from PDF and Word documents.
type Indexer struct {
	store     *store.SQLiteStore
	loader    *loader.Registry
	chunker   chunker.Chunker
	embedder  embedder.Embedder
	completer llm.Completer
	config    Config
	logger    *slog.Logger
}

// New creates a new Indexer with the given configuration. The index
// directory is created if needed.
func New(cfg Config) (*Indexer, error) {
	if err := cfg.Chunking.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Index.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}

	var comp llm.Completer
	if cfg.Overview {
		c, err := llm.New(cfg.OllamaURL, cfg.Completion)
		if err != nil {
			return nil, err
		}
		comp = c
	}

	s, err := store.Open(cfg.Index.DBPath())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	idx, err := NewWithDeps(s, embedder.NewOllamaEmbedder(cfg.OllamaURL, cfg.Embedding), comp, cfg)
	if err != nil {
		s.Close()
		return nil, err
	}
	return idx, nil
}

// NewWithDeps creates an Indexer around an open store and explicit service
// clients. completer may be nil when cfg.Overview is false.
func NewWithDeps(s *store.SQLiteStore, emb embedder.Embedder, completer llm.Completer, cfg Config) (*Indexer, error) {
	ch, err := chunker.New(cfg.Chunking)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{
		store:     s,
		loader:    loader.Default(),
		chunker:   ch,
		embedder:  emb,
		completer: completer,
		config:    cfg,
		logger:    logger,
	}, nil
}

// Index rebuilds the index from the document or directory at path. On any
// load, chunk or embedding error of an explicitly named file, and on any
// embedding or storage error, the previous index is kept.
func (idx *Indexer) Index(ctx context.Context, path string) (*Stats, error) {
	stats, err := runPipeline(ctx, path, idx.pipeline())
	if err != nil {
		return stats, err
	}

	overviewPath := idx.config.Index.OverviewPath()
	if err := os.Remove(overviewPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		idx.logger.Warn("failed to remove stale overview", "path", overviewPath, "err", err)
	}

	if idx.config.Overview && idx.completer != nil && stats.ChunksTotal > 0 {
		idx.generateOverview(ctx, overviewPath)
	}

	return stats, nil
}

func (idx *Indexer) generateOverview(ctx context.Context, overviewPath string) {
	idx.progress("Summarizing documents...", 0, 0)
	if err := summarizeDocuments(ctx, idx.store, idx.completer, idx.logger); err != nil {
		idx.logger.Warn("document summarization failed", "err", err)
	}

	idx.progress("Generating overview...", 0, 0)
	overview, err := synthesizeOverview(ctx, idx.store, idx.completer)
	if err != nil {
		idx.logger.Warn("overview generation failed", "err", err)
		return
	}
	if err := os.WriteFile(overviewPath, []byte(overview), 0o644); err != nil {
		idx.logger.Warn("failed to write overview", "path", overviewPath, "err", err)
	}
}

func (idx *Indexer) pipeline() pipeline {
	return pipeline{
		loader:    idx.loader,
		chunker:   idx.chunker,
		embedder:  idx.embedder,
		store:     idx.store,
		batchSize: idx.config.Embedding.BatchSize,
		chunking:  idx.config.Chunking,
		progress:  idx.progress,
		logger:    idx.logger,
	}
}

func (idx *Indexer) progress(phase string, done, total int) {
	if idx.config.OnProgress != nil {
		idx.config.OnProgress(phase, done, total)
	}
}

// Store returns the underlying store.
func (idx *Indexer) Store() *store.SQLiteStore { return idx.store }

// Close releases resources.
func (idx *Indexer) Close() error {
	return idx.store.Close()
}
