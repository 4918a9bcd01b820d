package rag

import (
	"context"
	"fmt"
	"log/slog"

	"docqa/internal/domain"
	"docqa/internal/llm"
)

// Pipeline answers questions by retrieving chunks and composing an answer.
type Pipeline struct {
	retriever Retriever
	composer  *Composer
	k         int
	logger    *slog.Logger
}

// NewPipeline wires a retriever and a composer. k is the number of chunks
// retrieved per question.
func NewPipeline(r Retriever, c *Composer, k int, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{retriever: r, composer: c, k: k, logger: logger}
}

// Ask runs retrieval then composition. Either stage's error aborts the
// query; there is no partial answer.
func (p *Pipeline) Ask(ctx context.Context, question string) (domain.Answer, error) {
	results, err := p.retrieve(ctx, question)
	if err != nil {
		return domain.Answer{}, err
	}
	return p.composer.Compose(ctx, question, results)
}

// Chat is Ask with prior conversation turns.
func (p *Pipeline) Chat(ctx context.Context, question string, history []llm.Message) (domain.Answer, error) {
	results, err := p.retrieve(ctx, question)
	if err != nil {
		return domain.Answer{}, err
	}
	return p.composer.ComposeChat(ctx, question, results, history)
}

// Search runs retrieval only.
func (p *Pipeline) Search(ctx context.Context, query string, k int) ([]domain.SearchResult, error) {
	if k <= 0 {
		k = p.k
	}
	results, err := p.retriever.Retrieve(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	return results, nil
}

func (p *Pipeline) retrieve(ctx context.Context, question string) ([]domain.SearchResult, error) {
	results, err := p.Search(ctx, question, p.k)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("retrieved chunks", "question", question, "count", len(results))
	return results, nil
}

const questionTemplate = "请回答以下问题：%s"

// AskDirect answers question without retrieval, using a fixed
// single-turn template.
func AskDirect(ctx context.Context, c llm.Completer, question string) (string, error) {
	return c.Complete(ctx, fmt.Sprintf(questionTemplate, question))
}
