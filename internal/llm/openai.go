package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"docqa/internal/config"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient talks to any OpenAI-compatible chat completions endpoint,
// including Ollama's /v1.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
	topP        float32
}

// NewOpenAI creates a client for cfg.BaseURL, or ollamaURL + "/v1" when unset.
func NewOpenAI(ollamaURL string, cfg config.Completion) *OpenAIClient {
	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = cfg.BaseURL
	if oc.BaseURL == "" {
		oc.BaseURL = strings.TrimRight(ollamaURL, "/") + "/v1"
	}
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &OpenAIClient{
		client:      openai.NewClientWithConfig(oc),
		model:       cfg.Model,
		temperature: float32(cfg.Temperature),
		topP:        float32(cfg.TopP),
	}
}

// Model returns the configured model name.
func (c *OpenAIClient) Model() string { return c.model }

// Complete sends prompt as a single user message.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.Chat(ctx, []Message{{Role: openai.ChatMessageRoleUser, Content: prompt}})
}

// Chat sends the conversation and returns the first choice.
func (c *OpenAIClient) Chat(ctx context.Context, messages []Message) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		msgs[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: c.temperature,
		TopP:        c.topP,
	})
	if err != nil {
		return "", serviceError(err)
	}
	if len(resp.Choices) == 0 {
		return "", serviceError(errors.New("no choices in completion response"))
	}
	return resp.Choices[0].Message.Content, nil
}
