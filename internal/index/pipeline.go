package index

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"docqa/internal/chunker"
	"docqa/internal/config"
	"docqa/internal/domain"
	"docqa/internal/embedder"
	"docqa/internal/loader"
	"docqa/internal/store"
	"docqa/internal/walker"
)

const defaultBatchSize = 32

// Stats reports indexing results.
type Stats struct {
	DocumentsTotal   int
	DocumentsIndexed int
	DocumentsSkipped int
	Pages            int
	ChunksTotal      int
	Dimension        int
}

type pipeline struct {
	loader    *loader.Registry
	chunker   chunker.Chunker
	embedder  embedder.Embedder
	store     *store.SQLiteStore
	batchSize int
	chunking  config.Chunking
	progress  ProgressFunc
	logger    *slog.Logger
}

// runPipeline runs load → chunk → embed → store one stage at a time. The
// store is only written once every chunk has an embedding.
func runPipeline(ctx context.Context, path string, p pipeline) (*Stats, error) {
	found, single, err := discover(path, p.loader)
	if err != nil {
		return nil, err
	}
	files := found.Files

	stats := &Stats{DocumentsTotal: len(files) + len(found.Skipped), DocumentsSkipped: len(found.Skipped)}
	for _, sk := range found.Skipped {
		p.logger.Warn("skipping document", "path", sk.RelPath, "err", sk.Err)
	}
	var (
		sources []domain.Source
		chunks  []domain.Chunk
	)

	// Stage 1: load + chunk
	for i, f := range files {
		p.progress("Loading documents...", i, len(files))

		pages, err := p.loader.Load(f.Path)
		if err != nil {
			if single {
				return stats, err
			}
			p.logger.Warn("skipping document", "path", f.RelPath, "err", err)
			stats.DocumentsSkipped++
			continue
		}
		for j := range pages {
			pages[j].Source = f.RelPath
		}

		docChunks, err := p.chunker.Split(pages)
		if err != nil {
			return stats, fmt.Errorf("chunk %s: %w", f.RelPath, err)
		}
		if len(docChunks) == 0 {
			p.logger.Warn("document has no extractable text", "path", f.RelPath, "pages", len(pages))
			stats.DocumentsSkipped++
		} else {
			stats.DocumentsIndexed++
		}
		p.logger.Debug("chunked document", "path", f.RelPath, "pages", len(pages), "chunks", len(docChunks))

		stats.Pages += len(pages)
		sources = append(sources, domain.Source{Path: f.RelPath, Pages: len(pages)})
		chunks = append(chunks, docChunks...)
	}
	stats.ChunksTotal = len(chunks)

	// Stage 2: embed in batches
	entries, err := embedChunks(ctx, p, chunks)
	if err != nil {
		return stats, err
	}

	// Stage 3: store
	p.progress("Writing index...", 0, 0)
	err = p.store.Build(ctx, entries, store.BuildInfo{
		Model:        p.embedder.Model(),
		ChunkSize:    p.chunking.Size,
		ChunkOverlap: p.chunking.Overlap,
		Documents:    sources,
		BuiltAt:      time.Now(),
	})
	if err != nil {
		return stats, fmt.Errorf("storage failed: %w", err)
	}
	stats.Dimension = p.store.Dimension()

	p.logger.Info("index built",
		"documents", stats.DocumentsIndexed,
		"skipped", stats.DocumentsSkipped,
		"chunks", stats.ChunksTotal,
		"dimension", stats.Dimension)
	return stats, nil
}

func embedChunks(ctx context.Context, p pipeline, chunks []domain.Chunk) ([]domain.Entry, error) {
	batch := p.batchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}

	entries := make([]domain.Entry, 0, len(chunks))
	for i := 0; i < len(chunks); i += batch {
		p.progress("Embedding chunks...", i, len(chunks))

		end := i + batch
		if end > len(chunks) {
			end = len(chunks)
		}
		texts := make([]string, end-i)
		for j, c := range chunks[i:end] {
			texts[j] = c.Text
		}

		vecs, err := p.embedder.Embed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embedding failed: %w", err)
		}
		if len(vecs) != len(texts) {
			return nil, fmt.Errorf("%w: expected %d embeddings, got %d", domain.ErrEmbeddingService, len(texts), len(vecs))
		}
		for j, v := range vecs {
			entries = append(entries, domain.Entry{Vector: v, Chunk: chunks[i+j]})
		}
	}
	p.progress("Embedding chunks...", len(chunks), len(chunks))
	return entries, nil
}

// discover resolves path to the documents to index. single reports whether
// path named one file, in which case load errors are fatal.
func discover(path string, reg *loader.Registry) (found walker.Result, single bool, err error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return found, false, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return found, false, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
	}
	if !info.IsDir() {
		found.Files = []walker.FileInfo{{Path: abs, RelPath: filepath.Base(abs), Size: info.Size()}}
		return found, true, nil
	}

	res, err := walker.Walk(abs, reg.Extensions())
	if err != nil {
		return found, false, fmt.Errorf("walk error: %w", err)
	}
	return res, false, nil
}
