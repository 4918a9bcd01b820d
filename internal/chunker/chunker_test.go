package chunker

import (
	"math/rand"
	"strings"
	"testing"
	"unicode/utf8"

	"docqa/internal/config"
	"docqa/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWindow(t *testing.T, size, overlap int) *SlidingWindow {
	t.Helper()
	w, err := New(config.Chunking{Size: size, Overlap: overlap})
	require.NoError(t, err)
	return w
}

func randomText(r *rand.Rand, n int) string {
	alphabet := []rune("abcdefghij 文档检索增强生成。\n")
	out := make([]rune, n)
	for i := range out {
		out[i] = alphabet[r.Intn(len(alphabet))]
	}
	return string(out)
}

func TestNewRejectsInvalidWindow(t *testing.T) {
	for _, overlap := range []int{10, 11, 200} {
		_, err := New(config.Chunking{Size: 10, Overlap: overlap})
		assert.ErrorIs(t, err, domain.ErrInvalidConfiguration, "overlap %d", overlap)
	}
	_, err := New(config.Chunking{Size: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}

func TestSplitDefaultsOnLongDocument(t *testing.T) {
	w := newWindow(t, 1000, 200)
	text := strings.Repeat("x", 2500)

	chunks, err := w.Split([]domain.Page{{Source: "a.pdf", Text: text}})
	require.NoError(t, err)

	// ceil((2500-200)/(1000-200))
	require.Len(t, chunks, 3)
	assert.Equal(t, w.Count(2500), len(chunks))
	assert.Equal(t, 1000, utf8.RuneCountInString(chunks[0].Text))
	assert.Equal(t, 1000, utf8.RuneCountInString(chunks[1].Text))
	assert.Equal(t, 900, utf8.RuneCountInString(chunks[2].Text))
	assert.Equal(t, 800, chunks[1].Start)
	assert.Equal(t, 2500, chunks[2].End)
}

func TestSplitShortDocumentIsOneChunk(t *testing.T) {
	w := newWindow(t, 1000, 200)
	for _, n := range []int{1, 999, 1000} {
		chunks, err := w.Split([]domain.Page{{Source: "a.docx", Text: strings.Repeat("字", n)}})
		require.NoError(t, err)
		require.Len(t, chunks, 1, "length %d", n)
		assert.Equal(t, 0, chunks[0].OverlapStart)
		assert.Equal(t, 0, chunks[0].OverlapEnd)
	}
}

func TestSplitEmptyDocument(t *testing.T) {
	w := newWindow(t, 1000, 200)
	chunks, err := w.Split([]domain.Page{{Source: "blank.pdf"}, {Source: "blank.pdf", Number: 1}})
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSplitProperties(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	windows := []config.Chunking{{Size: 1000, Overlap: 200}, {Size: 50, Overlap: 0}, {Size: 7, Overlap: 6}, {Size: 128, Overlap: 31}}

	for _, cfg := range windows {
		w := newWindow(t, cfg.Size, cfg.Overlap)
		for trial := 0; trial < 20; trial++ {
			var pages []domain.Page
			var full strings.Builder
			for p := 0; p < 1+r.Intn(4); p++ {
				text := randomText(r, r.Intn(900))
				full.WriteString(text)
				pages = append(pages, domain.Page{Source: "doc.pdf", Number: p, Text: text})
			}
			want := full.String()

			chunks, err := w.Split(pages)
			require.NoError(t, err)
			assert.Equal(t, w.Count(utf8.RuneCountInString(want)), len(chunks))

			var rebuilt strings.Builder
			for i, c := range chunks {
				n := utf8.RuneCountInString(c.Text)
				assert.LessOrEqual(t, n, cfg.Size)
				assert.Equal(t, c.End-c.Start, n)
				if i > 0 {
					assert.Equal(t, cfg.Overlap, c.OverlapStart)
					prev := []rune(chunks[i-1].Text)
					assert.Equal(t, string(prev[len(prev)-cfg.Overlap:]), string([]rune(c.Text)[:cfg.Overlap]))
				}
				if i < len(chunks)-1 {
					assert.Equal(t, cfg.Overlap, c.OverlapEnd)
				}
				rebuilt.WriteString(c.Core())
			}
			assert.Equal(t, want, rebuilt.String())
		}
	}
}

func TestSplitTracksPages(t *testing.T) {
	w := newWindow(t, 4, 1)
	pages := []domain.Page{
		{Source: "a.pdf", Number: 0, Text: "abc"},
		{Source: "a.pdf", Number: 1, Text: ""},
		{Source: "a.pdf", Number: 2, Text: "defgh"},
	}
	chunks, err := w.Split(pages)
	require.NoError(t, err)

	// "abcdefgh": windows at 0, 3, 6
	require.Len(t, chunks, 3)
	assert.Equal(t, "abcd", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Page)
	assert.Equal(t, "defg", chunks[1].Text)
	assert.Equal(t, 2, chunks[1].Page)
	assert.Equal(t, "gh", chunks[2].Text)
	assert.Equal(t, 2, chunks[2].Page)
}

func TestSplitSeparatesDocuments(t *testing.T) {
	w := newWindow(t, 5, 2)
	pages := []domain.Page{
		{Source: "a.pdf", Text: "hello"},
		{Source: "b.docx", Text: "worlds"},
	}
	chunks, err := w.Split(pages)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Equal(t, "a.pdf", chunks[0].Source)
	assert.Equal(t, "hello", chunks[0].Text)
	assert.Equal(t, "b.docx", chunks[1].Source)
	assert.Equal(t, 0, chunks[1].Index)
	assert.Equal(t, "world", chunks[1].Text)
	assert.Equal(t, "lds", chunks[2].Text)
	assert.Equal(t, 1, chunks[2].Index)
}
