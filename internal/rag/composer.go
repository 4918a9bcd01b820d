package rag

import (
	"context"
	"fmt"
	"strings"

	"docqa/internal/domain"
	"docqa/internal/llm"
)

const stuffPrompt = `Use the following pieces of context to answer the question at the end. If you don't know the answer, just say that you don't know, don't try to make up an answer.

%s

Question: %s
Helpful Answer:`

const systemPrompt = `You are a document assistant. You answer questions about a set of PDF and Word documents using the retrieved passages provided below.

Quote or paraphrase the passages, and mention the document and page a fact comes from when it helps. Answer in the language of the question. If the passages don't contain enough information to answer, say so.`

// Composer turns retrieved chunks and a question into an answer.
type Composer struct {
	llm      llm.Completer
	overview string
}

// NewComposer creates a composer. A non-empty overview is included in every
// prompt as background on the indexed documents.
func NewComposer(c llm.Completer, overview string) *Composer {
	return &Composer{llm: c, overview: overview}
}

// Prompt builds the single-prompt form: every chunk text in the given order,
// separated by blank lines, followed by the question.
func (c *Composer) Prompt(question string, results []domain.SearchResult) string {
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Chunk.Text
	}
	body := strings.Join(texts, "\n\n")
	if c.overview != "" {
		body = "Document overview:\n" + c.overview + "\n\n" + body
	}
	return fmt.Sprintf(stuffPrompt, body, question)
}

// Compose asks the completer once and returns the answer with the chunks
// it was grounded on.
func (c *Composer) Compose(ctx context.Context, question string, results []domain.SearchResult) (domain.Answer, error) {
	text, err := c.llm.Complete(ctx, c.Prompt(question, results))
	if err != nil {
		return domain.Answer{}, fmt.Errorf("compose answer: %w", err)
	}
	return newAnswer(question, text, results), nil
}

// ComposeChat answers question as the next turn of a conversation.
func (c *Composer) ComposeChat(ctx context.Context, question string, results []domain.SearchResult, history []llm.Message) (domain.Answer, error) {
	msgs := BuildMessages(results, history, question, c.overview)
	text, err := c.llm.Chat(ctx, msgs)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("compose answer: %w", err)
	}
	return newAnswer(question, text, results), nil
}

func newAnswer(question, text string, results []domain.SearchResult) domain.Answer {
	chunks := make([]domain.Chunk, len(results))
	for i, r := range results {
		chunks[i] = r.Chunk
	}
	return domain.Answer{Question: question, Text: strings.TrimSpace(text), Chunks: chunks}
}

// BuildMessages constructs the message list for the LLM from retrieved chunks,
// conversation history, and the current question.
func BuildMessages(results []domain.SearchResult, history []llm.Message, question string, overview string) []llm.Message {
	var msgs []llm.Message

	sys := systemPrompt
	if overview != "" {
		sys += "\n\n## Document Overview\n\n" + overview
	}
	msgs = append(msgs, llm.Message{Role: "system", Content: sys})

	if len(results) > 0 {
		var b strings.Builder
		b.WriteString("Here are the relevant passages:\n\n")
		for i, r := range results {
			fmt.Fprintf(&b, "--- Passage %d: %s, page %d ---\n", i+1, r.Chunk.Source, r.Chunk.Page+1)
			b.WriteString(r.Chunk.Text)
			b.WriteString("\n\n")
		}
		msgs = append(msgs, llm.Message{Role: "user", Content: b.String()})
		msgs = append(msgs, llm.Message{Role: "assistant", Content: "I've read the passages. What would you like to know?"})
	}

	msgs = append(msgs, history...)
	msgs = append(msgs, llm.Message{Role: "user", Content: question})

	return msgs
}
