package store

import (
	"context"
	"time"

	"docqa/internal/domain"
)

// Index answers nearest-neighbour queries over chunk embeddings using
// cosine similarity.
type Index interface {
	// Query returns the min(k, Len()) entries closest to vector, best first.
	// Equal scores keep insertion order. It fails with domain.ErrEmptyIndex
	// when the index has no entries.
	Query(ctx context.Context, vector []float32, k int) ([]domain.SearchResult, error)
	// Len returns the number of entries.
	Len() int
	// Dimension returns the vector length, or 0 for an empty index.
	Dimension() int
}

// Meta keys written by Build.
const (
	MetaEmbeddingModel = "embedding_model"
	MetaDimension      = "dimension"
	MetaChunkSize      = "chunk_size"
	MetaChunkOverlap   = "chunk_overlap"
	MetaBuiltAt        = "built_at"
)

// BuildInfo describes how a set of entries was produced.
type BuildInfo struct {
	Model        string
	ChunkSize    int
	ChunkOverlap int
	Documents    []domain.Source
	BuiltAt      time.Time
}
