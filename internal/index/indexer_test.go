package index

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"docqa/internal/config"
	"docqa/internal/domain"
	"docqa/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testConfig(dir string) Config {
	return Config{
		Index:     config.Index{Dir: filepath.Join(dir, ".docqa")},
		Embedding: config.Embedding{BatchSize: 2},
		Chunking:  config.Chunking{Size: 100, Overlap: 20},
	}
}

func newTestIndexer(t *testing.T, cfg Config, emb *letterEmbedder, comp *MockCompleter) *Indexer {
	t.Helper()
	require.NoError(t, os.MkdirAll(cfg.Index.Dir, 0o755))
	s, err := store.Open(cfg.Index.DBPath())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	var idx *Indexer
	if comp != nil {
		idx, err = NewWithDeps(s, emb, comp, cfg)
	} else {
		idx, err = NewWithDeps(s, emb, nil, cfg)
	}
	require.NoError(t, err)
	return idx
}

func TestIndexDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, writeDocx(filepath.Join(dir, "a.docx"), 250))
	require.NoError(t, writeDocx(filepath.Join(dir, "sub", "b.docx"), 90))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.pdf"), []byte("not a pdf"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	var phases []string
	cfg := testConfig(dir)
	cfg.OnProgress = func(phase string, done, total int) {
		if len(phases) == 0 || phases[len(phases)-1] != phase {
			phases = append(phases, phase)
		}
	}
	emb := &letterEmbedder{}
	idx := newTestIndexer(t, cfg, emb, nil)

	stats, err := idx.Index(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.DocumentsTotal)
	assert.Equal(t, 2, stats.DocumentsIndexed)
	assert.Equal(t, 1, stats.DocumentsSkipped)
	assert.Equal(t, 2, stats.Pages)
	// 250 runes → 3 windows, 90 runes → 1
	assert.Equal(t, 4, stats.ChunksTotal)
	assert.Equal(t, len(alphabet)+1, stats.Dimension)
	assert.Equal(t, 2, emb.calls)
	assert.Equal(t, []string{"Loading documents...", "Embedding chunks...", "Writing index..."}, phases)

	sources, err := idx.Store().Sources(context.Background())
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, domain.Source{Path: "a.docx", Pages: 1, Chunks: 3}, sources[0])
	assert.Equal(t, domain.Source{Path: "sub/b.docx", Pages: 1, Chunks: 1}, sources[1])

	model, err := idx.Store().Meta(store.MetaEmbeddingModel)
	require.NoError(t, err)
	assert.Equal(t, "letters", model)
}

func TestIndexSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.docx")
	require.NoError(t, writeDocx(path, 50))

	idx := newTestIndexer(t, testConfig(dir), &letterEmbedder{}, nil)
	stats, err := idx.Index(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ChunksTotal)

	chunks, err := idx.Store().Chunks(context.Background())
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "report.docx", chunks[0].Source)
}

func TestIndexErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "broken.pdf")
	require.NoError(t, os.WriteFile(bad, []byte("not a pdf"), 0o644))
	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("plain"), 0o644))

	idx := newTestIndexer(t, testConfig(dir), &letterEmbedder{}, nil)
	ctx := context.Background()

	_, err := idx.Index(ctx, filepath.Join(dir, "missing.docx"))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = idx.Index(ctx, bad)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)

	_, err = idx.Index(ctx, txt)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestFailedRebuildKeepsPreviousIndex(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.docx")
	require.NoError(t, writeDocx(path, 250))

	cfg := testConfig(dir)
	emb := &letterEmbedder{}
	idx := newTestIndexer(t, cfg, emb, nil)
	ctx := context.Background()

	_, err := idx.Index(ctx, path)
	require.NoError(t, err)
	require.Equal(t, 3, idx.Store().Len())

	require.NoError(t, writeDocx(path, 500))
	emb.calls = 0
	emb.failOn = 2

	_, err = idx.Index(ctx, path)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingService)

	assert.Equal(t, 3, idx.Store().Len())
	chunks, err := idx.Store().Chunks(ctx)
	require.NoError(t, err)
	assert.Len(t, chunks, 3)
}

func TestIndexWritesOverview(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, writeDocx(filepath.Join(dir, "a.docx"), 150))
	require.NoError(t, writeDocx(filepath.Join(dir, "b.docx"), 60))

	comp := new(MockCompleter)
	comp.On("Complete", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "Document: a.docx")
	})).Return("  About the alphabet.  ", nil).Once()
	comp.On("Complete", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "Document: b.docx")
	})).Return("Shorter alphabet.", nil).Once()
	comp.On("Complete", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "## Documents") &&
			strings.Contains(p, "Summary: About the alphabet.") &&
			strings.Contains(p, "### b.docx")
	})).Return("# Overview\n\nTwo alphabets.", nil).Once()

	cfg := testConfig(dir)
	cfg.Overview = true
	idx := newTestIndexer(t, cfg, &letterEmbedder{}, comp)

	_, err := idx.Index(context.Background(), dir)
	require.NoError(t, err)
	comp.AssertExpectations(t)

	data, err := os.ReadFile(cfg.Index.OverviewPath())
	require.NoError(t, err)
	assert.Equal(t, "# Overview\n\nTwo alphabets.", string(data))

	sources, err := idx.Store().Sources(context.Background())
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "About the alphabet.", sources[0].Summary)
}

func TestOverviewFailureIsNotFatal(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, writeDocx(filepath.Join(dir, "a.docx"), 80))

	cfg := testConfig(dir)
	require.NoError(t, os.MkdirAll(cfg.Index.Dir, 0o755))
	require.NoError(t, os.WriteFile(cfg.Index.OverviewPath(), []byte("stale"), 0o644))

	comp := new(MockCompleter)
	comp.On("Complete", mock.Anything, mock.Anything).Return("", domain.ErrCompletionService)

	cfg.Overview = true
	idx := newTestIndexer(t, cfg, &letterEmbedder{}, comp)

	stats, err := idx.Index(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ChunksTotal)

	_, err = os.Stat(cfg.Index.OverviewPath())
	assert.True(t, os.IsNotExist(err), "stale overview should be removed")
}

func TestIndexOnlyReadsDocumentDir(t *testing.T) {
	docs := t.TempDir()
	require.NoError(t, writeDocx(filepath.Join(docs, "a.docx"), 120))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "empty.pdf"), nil, 0o644))

	cfg := testConfig(t.TempDir())
	idx := newTestIndexer(t, cfg, &letterEmbedder{}, nil)

	before := listTree(t, docs)
	stats, err := idx.Index(context.Background(), docs)
	require.NoError(t, err)
	assert.Equal(t, before, listTree(t, docs))

	assert.Equal(t, 2, stats.DocumentsTotal)
	assert.Equal(t, 1, stats.DocumentsIndexed)
	assert.Equal(t, 1, stats.DocumentsSkipped)
}

func listTree(t *testing.T, root string) []string {
	t.Helper()
	var names []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		names = append(names, rel)
		return nil
	})
	require.NoError(t, err)
	return names
}

func TestBuildMemory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.docx")
	require.NoError(t, writeDocx(path, 250))
	before := listTree(t, dir)

	emb := &letterEmbedder{}
	mem, err := BuildMemory(context.Background(), path, emb, config.Embedding{BatchSize: 2}, config.Chunking{Size: 100, Overlap: 20}, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, mem.Len())
	assert.Equal(t, len(alphabet)+1, mem.Dimension())
	assert.Equal(t, 2, emb.calls)
	assert.Equal(t, before, listTree(t, dir))

	v, err := emb.EmbedQuery(context.Background(), "abc")
	require.NoError(t, err)
	res, err := mem.Query(context.Background(), v, 1)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "report.docx", res[0].Chunk.Source)
}

func TestBuildMemoryErrors(t *testing.T) {
	dir := t.TempDir()
	chunking := config.Chunking{Size: 100, Overlap: 20}
	ctx := context.Background()

	_, err := BuildMemory(ctx, filepath.Join(dir, "missing.docx"), &letterEmbedder{}, config.Embedding{}, chunking, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	path := filepath.Join(dir, "report.docx")
	require.NoError(t, writeDocx(path, 50))
	_, err = BuildMemory(ctx, path, &letterEmbedder{failOn: 1}, config.Embedding{}, chunking, nil)
	assert.ErrorIs(t, err, domain.ErrEmbeddingService)

	empty := filepath.Join(dir, "empty.docx")
	require.NoError(t, writeDocx(empty, 0))
	mem, err := BuildMemory(ctx, empty, &letterEmbedder{}, config.Embedding{}, chunking, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, mem.Len())
}
