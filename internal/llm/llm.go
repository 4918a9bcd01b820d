package llm

import (
	"context"
	"fmt"

	"docqa/internal/config"
	"docqa/internal/domain"
)

// Message represents a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer produces text from a prompt or a conversation.
type Completer interface {
	// Complete answers a single prompt.
	Complete(ctx context.Context, prompt string) (string, error)
	// Chat answers the last message of a conversation.
	Chat(ctx context.Context, messages []Message) (string, error)
	// Model returns the generative model name.
	Model() string
}

// New returns the completer selected by cfg.Provider. ollamaURL is the Ollama
// base URL; the openai provider uses it when cfg.BaseURL is empty.
func New(ollamaURL string, cfg config.Completion) (Completer, error) {
	switch cfg.Provider {
	case config.ProviderOllama, "":
		return NewOllama(ollamaURL, cfg), nil
	case config.ProviderOpenAI:
		return NewOpenAI(ollamaURL, cfg), nil
	default:
		return nil, fmt.Errorf("%w: unknown completion provider %q", domain.ErrInvalidConfiguration, cfg.Provider)
	}
}

func serviceError(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrCompletionService, err)
}
