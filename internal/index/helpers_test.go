package index

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"docqa/internal/domain"
	"docqa/internal/llm"

	"github.com/stretchr/testify/mock"
)

const alphabet = "abcdefghijklmnopqrstuvwxyz"

// writeDocx writes a Word document whose extracted text is exactly n runes:
// one paragraph of n-1 letters plus the paragraph break.
func writeDocx(path string, n int) error {
	body := ""
	if n > 0 {
		text := strings.Repeat(alphabet, n/len(alphabet)+1)[:n-1]
		body = "<w:p><w:r><w:t>" + text + "</w:t></w:r></w:p>"
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		return err
	}
	doc := `<?xml version="1.0" encoding="UTF-8"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body + `</w:body></w:document>`
	if _, err := w.Write([]byte(doc)); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// letterEmbedder maps text to letter frequencies. failOn makes the n-th
// call fail with an embedding service error.
type letterEmbedder struct {
	failOn int
	calls  int
}

func (e *letterEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls++
	if e.failOn > 0 && e.calls == e.failOn {
		return nil, fmt.Errorf("%w: connection refused", domain.ErrEmbeddingService)
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v := make([]float32, len(alphabet)+1)
		for _, r := range t {
			if idx := strings.IndexRune(alphabet, r); idx >= 0 {
				v[idx]++
			} else {
				v[len(alphabet)]++
			}
		}
		out[i] = v
	}
	return out, nil
}

func (e *letterEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *letterEmbedder) Model() string { return "letters" }

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
