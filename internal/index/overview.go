package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"docqa/internal/llm"
	"docqa/internal/store"
)

// maxSummaryRunes caps the document text sent for one summary.
const maxSummaryRunes = 6000

const documentSummaryPrompt = `Summarize this document in 2-3 sentences. What is it about, and what kind of information does it contain? Answer in the language of the document. Do not speculate about things not shown in the text.

Document: %s

%s`

const overviewPrompt = `You are reviewing a collection of documents. Based ONLY on the document summaries provided below, write a concise overview in Markdown.

Rules:
- ONLY describe what you can directly observe in the provided summaries
- Do NOT guess or infer content that isn't shown
- Answer in the language most of the summaries are written in

Cover:
1. What the collection is about (one paragraph)
2. Each document and what it covers (bullet points)

Keep it under 300 words.
`

// summarizeDocuments generates a summary for every indexed document from
// the beginning of its text.
func summarizeDocuments(ctx context.Context, s *store.SQLiteStore, c llm.Completer, logger *slog.Logger) error {
	chunks, err := s.Chunks(ctx)
	if err != nil {
		return fmt.Errorf("list chunks: %w", err)
	}

	var order []string
	texts := make(map[string]*strings.Builder)
	for _, ch := range chunks {
		b, ok := texts[ch.Source]
		if !ok {
			b = &strings.Builder{}
			texts[ch.Source] = b
			order = append(order, ch.Source)
		}
		if utf8.RuneCountInString(b.String()) < maxSummaryRunes {
			b.WriteString(ch.Core())
		}
	}

	for _, path := range order {
		logger.Info("summarizing document", "path", path)

		text := []rune(texts[path].String())
		if len(text) > maxSummaryRunes {
			text = text[:maxSummaryRunes]
		}

		summary, err := c.Complete(ctx, fmt.Sprintf(documentSummaryPrompt, path, string(text)))
		if err != nil {
			return fmt.Errorf("summarize %s: %w", path, err)
		}
		if err := s.SetSummary(ctx, path, strings.TrimSpace(summary)); err != nil {
			return fmt.Errorf("save summary for %s: %w", path, err)
		}
	}
	return nil
}

// synthesizeOverview combines all document summaries into one overview.
func synthesizeOverview(ctx context.Context, s *store.SQLiteStore, c llm.Completer) (string, error) {
	sources, err := s.Sources(ctx)
	if err != nil {
		return "", fmt.Errorf("list documents: %w", err)
	}
	if len(sources) == 0 {
		return "", errors.New("no documents indexed")
	}

	var b strings.Builder
	b.WriteString(overviewPrompt)
	b.WriteString("\n## Documents\n\n")
	for _, d := range sources {
		fmt.Fprintf(&b, "### %s  (%d pages, %d chunks)\n", d.Path, d.Pages, d.Chunks)
		if d.Summary != "" {
			fmt.Fprintf(&b, "Summary: %s\n", d.Summary)
		}
		b.WriteString("\n")
	}

	overview, err := c.Complete(ctx, b.String())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(overview), nil
}
