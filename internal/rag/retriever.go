package rag

import (
	"context"
	"fmt"

	"docqa/internal/config"
	"docqa/internal/domain"
	"docqa/internal/embedder"
	"docqa/internal/store"
)

// Retriever returns the chunks most relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]domain.SearchResult, error)
}

// VectorRetriever embeds the query and searches a vector index, optionally
// re-ranking with maximal marginal relevance.
type VectorRetriever struct {
	emb   embedder.Embedder
	index store.Index
	cfg   config.Retrieval
}

// NewRetriever creates a retriever over index. Queries must be embedded with
// the same model the index was built with.
func NewRetriever(emb embedder.Embedder, index store.Index, cfg config.Retrieval) *VectorRetriever {
	return &VectorRetriever{emb: emb, index: index, cfg: cfg}
}

// Retrieve returns at most k results; k <= 0 uses the configured default.
// An empty index fails with domain.ErrEmptyIndex before any embedding call.
func (r *VectorRetriever) Retrieve(ctx context.Context, query string, k int) ([]domain.SearchResult, error) {
	if k <= 0 {
		k = r.cfg.K
	}
	if r.index.Len() == 0 {
		return nil, domain.ErrEmptyIndex
	}

	vec, err := r.emb.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	if r.cfg.SearchType != config.SearchMMR {
		return r.index.Query(ctx, vec, k)
	}

	fetch := r.cfg.FetchK
	if fetch < k {
		fetch = k
	}
	candidates, err := r.index.Query(ctx, vec, fetch)
	if err != nil {
		return nil, err
	}
	return MMR(candidates, k, r.cfg.Lambda), nil
}
