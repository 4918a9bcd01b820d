package cmd

import (
	"fmt"
	"strings"

	"docqa/internal/domain"
)

const previewRunes = 300

// preview returns the first n runes of s on one line.
func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// location renders a chunk's document and 1-based page.
func location(c domain.Chunk) string {
	return fmt.Sprintf("%s, page %d", c.Source, c.Page+1)
}

func formatSources(chunks []domain.Chunk, n int) string {
	if n > len(chunks) {
		n = len(chunks)
	}
	var sb strings.Builder
	for i, c := range chunks[:n] {
		fmt.Fprintf(&sb, "[%d] %s\n    %s\n", i+1, location(c), preview(c.Text, previewRunes))
	}
	return sb.String()
}

func formatSearchResults(query string, results []domain.SearchResult) string {
	if len(results) == 0 {
		return fmt.Sprintf("No results found for query: %q", query)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Search results for %q (%d chunks)\n\n", query, len(results))

	for i, r := range results {
		fmt.Fprintf(&sb, "### Result %d: `%s`\n\n", i+1, r.Chunk.Source)
		fmt.Fprintf(&sb, "**Page:** %d  \n**Chunk:** %d  \n**Score:** %.4f\n\n",
			r.Chunk.Page+1, r.Chunk.Index, r.Score)
		fmt.Fprintf(&sb, "%s\n\n", r.Chunk.Text)
	}

	return sb.String()
}
