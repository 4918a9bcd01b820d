package index

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"docqa/internal/chunker"
	"docqa/internal/config"
	"docqa/internal/embedder"
	"docqa/internal/loader"
	"docqa/internal/store"
)

// BuildMemory loads a single document, chunks and embeds it, and returns
// an in-memory index over its chunks. Nothing is written to disk. Chunk
// sources are the file's base name.
func BuildMemory(ctx context.Context, path string, emb embedder.Embedder, cfg config.Embedding, chunking config.Chunking, logger *slog.Logger) (*store.MemoryIndex, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ch, err := chunker.New(chunking)
	if err != nil {
		return nil, err
	}

	pages, err := loader.Default().Load(path)
	if err != nil {
		return nil, err
	}
	name := filepath.Base(path)
	for i := range pages {
		pages[i].Source = name
	}
	chunks, err := ch.Split(pages)
	if err != nil {
		return nil, fmt.Errorf("chunk %s: %w", name, err)
	}
	if len(chunks) == 0 {
		logger.Warn("document has no extractable text", "path", name, "pages", len(pages))
	}

	entries, err := embedChunks(ctx, pipeline{
		embedder:  emb,
		batchSize: cfg.BatchSize,
		progress:  func(string, int, int) {},
		logger:    logger,
	}, chunks)
	if err != nil {
		return nil, err
	}
	logger.Debug("built in-memory index", "path", name, "pages", len(pages), "chunks", len(entries))
	return store.NewMemoryIndex(entries)
}
