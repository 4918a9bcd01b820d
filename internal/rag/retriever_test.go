package rag

import (
	"context"
	"testing"

	"docqa/internal/config"
	"docqa/internal/domain"
	"docqa/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func buildIndex(t *testing.T, emb *runeEmbedder, chunks ...string) *store.MemoryIndex {
	t.Helper()
	vecs, err := emb.Embed(context.Background(), chunks)
	require.NoError(t, err)
	entries := make([]domain.Entry, len(chunks))
	for i, c := range chunks {
		entries[i] = domain.Entry{Vector: vecs[i], Chunk: domain.Chunk{Source: "doc.pdf", Index: i, Text: c}}
	}
	idx, err := store.NewMemoryIndex(entries)
	require.NoError(t, err)
	return idx
}

func retrievalConfig(searchType string) config.Retrieval {
	cfg := config.Default().Retrieval
	cfg.SearchType = searchType
	return cfg
}

func TestSimilarityRetrieval(t *testing.T) {
	emb := &runeEmbedder{dim: 16}
	idx := buildIndex(t, emb, "aaaa", "bbbb", "aabb", "cccc")
	r := NewRetriever(emb, idx, retrievalConfig(config.SearchSimilarity))

	res, err := r.Retrieve(context.Background(), "aaaa", 2)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "aaaa", res[0].Chunk.Text)
	assert.Equal(t, "aabb", res[1].Chunk.Text)
}

func TestRetrieveCapsAtIndexSize(t *testing.T) {
	emb := &runeEmbedder{dim: 16}
	idx := buildIndex(t, emb, "one", "two", "three")

	for _, st := range []string{config.SearchSimilarity, config.SearchMMR} {
		res, err := NewRetriever(emb, idx, retrievalConfig(st)).Retrieve(context.Background(), "tree", 10)
		require.NoError(t, err)
		assert.Len(t, res, 3, st)
	}
}

func TestRetrieveDefaultK(t *testing.T) {
	emb := &runeEmbedder{dim: 16}
	idx := buildIndex(t, emb, "a", "b", "c", "d", "e", "f", "g")
	res, err := NewRetriever(emb, idx, retrievalConfig(config.SearchSimilarity)).Retrieve(context.Background(), "a", 0)
	require.NoError(t, err)
	assert.Len(t, res, 5)
}

func TestMMRRetrievalDiversifies(t *testing.T) {
	emb := &runeEmbedder{dim: 16}
	idx := buildIndex(t, emb, "aaaa", "aaaa", "cccc")

	sim, err := NewRetriever(emb, idx, retrievalConfig(config.SearchSimilarity)).Retrieve(context.Background(), "aaaac", 2)
	require.NoError(t, err)
	mmr, err := NewRetriever(emb, idx, retrievalConfig(config.SearchMMR)).Retrieve(context.Background(), "aaaac", 2)
	require.NoError(t, err)

	assert.Equal(t, []string{"aaaa", "aaaa"}, texts(sim))
	assert.Equal(t, []string{"aaaa", "cccc"}, texts(mmr))
	assert.Equal(t, 0, mmr[0].Chunk.Index)
}

func TestRetrieveEmptyIndexSkipsEmbedding(t *testing.T) {
	emb := &runeEmbedder{dim: 8}
	idx, err := store.NewMemoryIndex(nil)
	require.NoError(t, err)

	_, err = NewRetriever(emb, idx, retrievalConfig(config.SearchMMR)).Retrieve(context.Background(), "q", 3)
	assert.ErrorIs(t, err, domain.ErrEmptyIndex)
	assert.Equal(t, 0, emb.calls)
}

func TestRetrieveEmbeddingFailure(t *testing.T) {
	emb := &runeEmbedder{dim: 8}
	idx := buildIndex(t, emb, "x")
	emb.fail = domain.ErrEmbeddingService

	_, err := NewRetriever(emb, idx, retrievalConfig(config.SearchSimilarity)).Retrieve(context.Background(), "q", 3)
	assert.ErrorIs(t, err, domain.ErrEmbeddingService)
}

func TestPipelineAsk(t *testing.T) {
	emb := &runeEmbedder{dim: 16}
	idx := buildIndex(t, emb, "泵的压力为三巴", "other text")
	m := &MockCompleter{}
	m.On("Complete", mock.Anything, mock.Anything).Return("三巴", nil)

	p := NewPipeline(NewRetriever(emb, idx, retrievalConfig(config.SearchSimilarity)), NewComposer(m, ""), 1, nil)
	ans, err := p.Ask(context.Background(), "泵的压力")
	require.NoError(t, err)
	assert.Equal(t, "三巴", ans.Text)
	require.Len(t, ans.Chunks, 1)
	assert.Equal(t, "泵的压力为三巴", ans.Chunks[0].Text)
}

func TestPipelineAbortsOnFailure(t *testing.T) {
	emb := &runeEmbedder{dim: 16}
	idx := buildIndex(t, emb, "text")

	m := &MockCompleter{}
	m.On("Chat", mock.Anything, mock.Anything).Return("", errBoom)
	p := NewPipeline(NewRetriever(emb, idx, retrievalConfig(config.SearchSimilarity)), NewComposer(m, ""), 3, nil)

	_, err := p.Chat(context.Background(), "q", nil)
	assert.ErrorIs(t, err, errBoom)

	emb.fail = domain.ErrEmbeddingService
	_, err = p.Ask(context.Background(), "q")
	assert.ErrorIs(t, err, domain.ErrEmbeddingService)
	m.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}
