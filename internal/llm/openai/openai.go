package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client is an OpenAI-compatible REST client providing chat completions and
// embeddings. It never retries; a failed call is reported to the caller.
type Client struct {
	http           *resty.Client
	chatModel      string
	embeddingModel string
}

// Config configures the OpenAI-compatible client.
type Config struct {
	BaseURL        string
	APIKeyEnv      string
	ChatModel      string
	EmbeddingModel string
	Timeout        time.Duration
}

// NewClient creates a client using the API key found in cfg.APIKeyEnv.
func NewClient(cfg Config) (*Client, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("openai: missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = "gpt-4o-mini"
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = "text-embedding-ada-002"
	}
	t := cfg.Timeout
	if t == 0 {
		t = 60 * time.Second
	}
	h := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(t).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetAuthToken(key).
		SetRetryCount(0)
	return &Client{http: h, chatModel: cfg.ChatModel, embeddingModel: cfg.EmbeddingModel}, nil
}

// Name returns the identifier of this embedder implementation.
func (c *Client) Name() string { return "openai" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Complete sends prompt as a single user message and returns the first choice.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	body := map[string]any{
		"model":    c.chatModel,
		"messages": []chatMessage{{Role: "user", Content: prompt}},
	}
	resp, err := c.http.R().SetContext(ctx).SetBody(body).Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("openai: chat completion: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("openai: chat completion failed: %s: %s", resp.Status(), snippet(resp.String()))
	}
	var out struct {
		Choices []struct {
			Message chatMessage `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", fmt.Errorf("openai: decode chat completion: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("openai: no completion returned")
	}
	return out.Choices[0].Message.Content, nil
}

// Embed returns an embedding vector for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	body := map[string]any{
		"model":           c.embeddingModel,
		"input":           text,
		"encoding_format": "float",
	}
	resp, err := c.http.R().SetContext(ctx).SetBody(body).Post("/embeddings")
	if err != nil {
		return nil, fmt.Errorf("openai: embeddings: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("openai: embeddings failed: %s: %s", resp.Status(), snippet(resp.String()))
	}
	payload := resp.Body()
	// OpenAI shape first, then the Ollama-native { "embedding": [...] }.
	var openaiOut struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &openaiOut); err == nil {
		if len(openaiOut.Data) > 0 && len(openaiOut.Data[0].Embedding) > 0 {
			return openaiOut.Data[0].Embedding, nil
		}
	}
	var ollamaOut struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.Unmarshal(payload, &ollamaOut); err == nil && len(ollamaOut.Embedding) > 0 {
		return ollamaOut.Embedding, nil
	}
	return nil, errors.New("openai: no embedding returned")
}

func snippet(s string) string {
	const limit = 200
	s = strings.TrimSpace(s)
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
