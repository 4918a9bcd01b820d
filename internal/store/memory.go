package store

import (
	"context"
	"fmt"

	"docqa/internal/domain"
)

// MemoryIndex is an exact brute-force index held in memory.
type MemoryIndex struct {
	entries []domain.Entry
	dim     int
}

// NewMemoryIndex builds an index from all entries at once. Entries must
// share one dimensionality.
func NewMemoryIndex(entries []domain.Entry) (*MemoryIndex, error) {
	dim, err := dimensionOf(entries)
	if err != nil {
		return nil, err
	}
	cp := make([]domain.Entry, len(entries))
	copy(cp, entries)
	return &MemoryIndex{entries: cp, dim: dim}, nil
}

func (m *MemoryIndex) Len() int       { return len(m.entries) }
func (m *MemoryIndex) Dimension() int { return m.dim }

// Query scores every entry against vector.
func (m *MemoryIndex) Query(ctx context.Context, vector []float32, k int) ([]domain.SearchResult, error) {
	if len(m.entries) == 0 {
		return nil, domain.ErrEmptyIndex
	}
	if len(vector) != m.dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d", domain.ErrDimensionMismatch, len(vector), m.dim)
	}
	if k <= 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := make([]domain.SearchResult, len(m.entries))
	for i, e := range m.entries {
		results[i] = domain.SearchResult{
			Chunk:  e.Chunk,
			Score:  Cosine(vector, e.Vector),
			Vector: e.Vector,
		}
	}
	return rank(results, k), nil
}
