package rag

import (
	"context"
	"errors"

	"docqa/internal/llm"

	"github.com/stretchr/testify/mock"
)

// runeEmbedder counts runes into buckets, so texts sharing characters
// get similar vectors.
type runeEmbedder struct {
	dim   int
	fail  error
	calls int
}

func (e *runeEmbedder) vector(text string) []float32 {
	v := make([]float32, e.dim)
	for _, r := range text {
		v[int(r)%e.dim]++
	}
	return v
}

func (e *runeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls++
	if e.fail != nil {
		return nil, e.fail
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	return out, nil
}

func (e *runeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *runeEmbedder) Model() string { return "rune-test" }

// MockCompleter is a mock implementation of llm.Completer
type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func (m *MockCompleter) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	args := m.Called(ctx, messages)
	return args.String(0), args.Error(1)
}

func (m *MockCompleter) Model() string { return "mock" }

var errBoom = errors.New("boom")
