package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"docqa/internal/config"
)

// Options are the Ollama sampling parameters.
type Options struct {
	Temperature float64 `json:"temperature"`
	TopK        int     `json:"top_k,omitempty"`
	TopP        float64 `json:"top_p,omitempty"`
}

// GenerateRequest is a single-prompt generation. Images are raw base64
// strings without a data URL prefix.
type GenerateRequest struct {
	Prompt  string
	Images  []string
	Options *Options // nil uses the client defaults
}

// OllamaClient calls the Ollama /api/generate and /api/chat endpoints.
type OllamaClient struct {
	baseURL string
	model   string
	options Options
	client  *http.Client
}

// NewOllama creates a client targeting the given Ollama instance.
func NewOllama(baseURL string, cfg config.Completion) *OllamaClient {
	return &OllamaClient{
		baseURL: baseURL,
		model:   cfg.Model,
		options: Options{
			Temperature: cfg.Temperature,
			TopK:        cfg.TopK,
			TopP:        cfg.TopP,
		},
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// WithModel returns a copy of the client that uses another model.
func (c *OllamaClient) WithModel(model string) *OllamaClient {
	cp := *c
	cp.model = model
	return &cp
}

// Model returns the configured model name.
func (c *OllamaClient) Model() string { return c.model }

type generateRequest struct {
	Model   string   `json:"model"`
	Prompt  string   `json:"prompt"`
	Images  []string `json:"images,omitempty"`
	Stream  bool     `json:"stream"`
	Options Options  `json:"options"`
}

type generateResponse struct {
	Response string `json:"response"`
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
	Options  Options   `json:"options"`
}

type chatResponse struct {
	Message Message `json:"message"`
}

// Generate sends one prompt, optionally with images, to /api/generate.
func (c *OllamaClient) Generate(ctx context.Context, gr GenerateRequest) (string, error) {
	opts := c.options
	if gr.Options != nil {
		opts = *gr.Options
	}
	var result generateResponse
	err := c.post(ctx, "/api/generate", generateRequest{
		Model:   c.model,
		Prompt:  gr.Prompt,
		Images:  gr.Images,
		Stream:  false,
		Options: opts,
	}, &result)
	if err != nil {
		return "", serviceError(err)
	}
	return result.Response, nil
}

// Complete sends prompt to /api/generate with the default options.
func (c *OllamaClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.Generate(ctx, GenerateRequest{Prompt: prompt})
}

// Chat sends a conversation to Ollama and returns the assistant's response.
func (c *OllamaClient) Chat(ctx context.Context, messages []Message) (string, error) {
	var result chatResponse
	err := c.post(ctx, "/api/chat", chatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   false,
		Options:  c.options,
	}, &result)
	if err != nil {
		return "", serviceError(err)
	}
	return result.Message.Content, nil
}

func (c *OllamaClient) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama %s request: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("ollama %s returned %d: %s", path, resp.StatusCode, string(respBody))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// ModelInfo represents a model returned by /api/tags.
type ModelInfo struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

type tagsResponse struct {
	Models []ModelInfo `json:"models"`
}

// ListModels queries the Ollama /api/tags endpoint and returns available models.
func ListModels(ctx context.Context, baseURL string) ([]ModelInfo, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("build tags request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connect to ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama /api/tags returned %d", resp.StatusCode)
	}

	var result tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode tags response: %w", err)
	}
	return result.Models, nil
}
