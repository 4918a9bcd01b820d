package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"docqa/internal/config"
	"docqa/internal/domain"
	"docqa/internal/embedder"
	"docqa/internal/index"
	"docqa/internal/llm"
	"docqa/internal/rag"
	"docqa/internal/store"
)

// session holds an opened index and the query-time pipeline over it. store
// is nil for a session over a single in-memory document.
type session struct {
	store     *store.SQLiteStore
	pipeline  *rag.Pipeline
	completer llm.Completer
	overview  string
}

func openSession(c config.Config) (*session, error) {
	dbPath := c.Index.DBPath()
	if _, err := os.Stat(dbPath); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: index not found at %s\nRun 'docqa index <path>' first to build the index", domain.ErrEmptyIndex, dbPath)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	if err := st.VerifyModel(c.Embedding.Model); err != nil {
		st.Close()
		return nil, err
	}

	comp, err := llm.New(c.OllamaURL, c.Completion)
	if err != nil {
		st.Close()
		return nil, err
	}

	// Load document overview if available.
	var overview string
	if data, err := os.ReadFile(c.Index.OverviewPath()); err == nil {
		overview = string(data)
	}

	emb := embedder.NewOllamaEmbedder(c.OllamaURL, c.Embedding)
	retriever := rag.NewRetriever(emb, st, c.Retrieval)
	return &session{
		store:     st,
		pipeline:  rag.NewPipeline(retriever, rag.NewComposer(comp, overview), c.Retrieval.K, slog.Default()),
		completer: comp,
		overview:  overview,
	}, nil
}

// openFileSession builds a throwaway in-memory index over one document.
// The persisted index is neither read nor written.
func openFileSession(ctx context.Context, c config.Config, path string) (*session, error) {
	comp, err := llm.New(c.OllamaURL, c.Completion)
	if err != nil {
		return nil, err
	}
	emb := embedder.NewOllamaEmbedder(c.OllamaURL, c.Embedding)
	mem, err := index.BuildMemory(ctx, path, emb, c.Embedding, c.Chunking, slog.Default())
	if err != nil {
		return nil, err
	}
	slog.Info("loaded document", "path", path, "chunks", mem.Len())

	retriever := rag.NewRetriever(emb, mem, c.Retrieval)
	return &session{
		pipeline:  rag.NewPipeline(retriever, rag.NewComposer(comp, ""), c.Retrieval.K, slog.Default()),
		completer: comp,
	}, nil
}

func (s *session) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}
