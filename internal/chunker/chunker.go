package chunker

import (
	"sort"
	"unicode/utf8"

	"docqa/internal/config"
	"docqa/internal/domain"
)

// Chunker splits the pages of loaded documents into chunks.
type Chunker interface {
	Split(pages []domain.Page) ([]domain.Chunk, error)
}

// SlidingWindow cuts document text into fixed-size rune windows. Each window
// starts size-overlap runes after the previous one, so consecutive chunks
// share exactly overlap runes and the last chunk may be shorter.
type SlidingWindow struct {
	size    int
	overlap int
}

// New creates a sliding window chunker. It fails with
// domain.ErrInvalidConfiguration unless 0 <= overlap < size.
func New(cfg config.Chunking) (*SlidingWindow, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &SlidingWindow{size: cfg.Size, overlap: cfg.Overlap}, nil
}

// Split chunks each document separately. Consecutive pages with the same
// Source form one document; chunk indices restart at zero per document.
func (w *SlidingWindow) Split(pages []domain.Page) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	for start := 0; start < len(pages); {
		end := start + 1
		for end < len(pages) && pages[end].Source == pages[start].Source {
			end++
		}
		chunks = append(chunks, w.splitDocument(pages[start:end])...)
		start = end
	}
	return chunks, nil
}

func (w *SlidingWindow) splitDocument(pages []domain.Page) []domain.Chunk {
	// pageStarts[i] is the rune offset where pages[i] begins in text.
	pageStarts := make([]int, len(pages))
	size := 0
	for i, p := range pages {
		pageStarts[i] = size
		size += utf8.RuneCountInString(p.Text)
	}
	if size == 0 {
		return nil
	}
	text := make([]rune, 0, size)
	for _, p := range pages {
		text = append(text, []rune(p.Text)...)
	}

	step := w.size - w.overlap
	source := pages[0].Source

	var chunks []domain.Chunk
	for start := 0; ; start += step {
		end := start + w.size
		if end > len(text) {
			end = len(text)
		}

		c := domain.Chunk{
			Source: source,
			Index:  len(chunks),
			Page:   pages[pageIndex(pageStarts, start)].Number,
			Start:  start,
			End:    end,
			Text:   string(text[start:end]),
		}
		if n := len(chunks); n > 0 {
			shared := chunks[n-1].End - start
			c.OverlapStart = shared
			chunks[n-1].OverlapEnd = shared
		}
		chunks = append(chunks, c)

		if end == len(text) {
			break
		}
	}
	return chunks
}

// pageIndex returns the page holding rune offset pos. Empty pages share a
// start offset with their successor and are never selected.
func pageIndex(pageStarts []int, pos int) int {
	i := sort.Search(len(pageStarts), func(i int) bool { return pageStarts[i] > pos })
	if i == 0 {
		return 0
	}
	return i - 1
}

// Count returns the number of chunks a text of n runes produces.
func (w *SlidingWindow) Count(n int) int {
	if n == 0 {
		return 0
	}
	if n <= w.size {
		return 1
	}
	step := w.size - w.overlap
	return (n - w.overlap + step - 1) / step
}
