package domain

// Page is one page or section of a source document.
type Page struct {
	Source string
	Number int // 0-based
	Text   string
}

// Chunk is a contiguous window of document text. Offsets count runes in the
// concatenated page text of its source document.
type Chunk struct {
	Source string
	Index  int
	Page   int // page holding the first rune
	Start  int
	End    int
	Text   string

	// OverlapStart runes at the head are shared with the previous chunk,
	// OverlapEnd runes at the tail with the next one.
	OverlapStart int
	OverlapEnd   int
}

// Core returns the text not repeated from the previous chunk. Concatenating
// the cores of a document's chunks in order yields the document text.
func (c Chunk) Core() string {
	r := []rune(c.Text)
	if c.OverlapStart >= len(r) {
		return ""
	}
	return string(r[c.OverlapStart:])
}

// Entry pairs a chunk with its embedding.
type Entry struct {
	Vector []float32
	Chunk  Chunk
}

// SearchResult is a chunk returned by an index query. Score is cosine
// similarity, higher is closer.
type SearchResult struct {
	Chunk  Chunk
	Score  float64
	Vector []float32
}

// Answer is a composed response and the chunks it was grounded on.
type Answer struct {
	Question string
	Text     string
	Chunks   []Chunk
}

// Source is an indexed document with its chunk and page counts.
type Source struct {
	Path    string
	Pages   int
	Chunks  int
	Summary string
}
