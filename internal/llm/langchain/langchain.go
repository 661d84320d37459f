package langchain

import (
	"context"
	"fmt"
	"os"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Config configures the langchaingo-backed provider.
type Config struct {
	BaseURL        string
	APIKeyEnv      string
	ChatModel      string
	EmbeddingModel string
}

// Provider completes prompts and embeds text through langchaingo.
type Provider struct {
	model    llms.Model
	embedder embeddings.Embedder
}

// New builds the chat model and embedder from one OpenAI-compatible client.
func New(cfg Config) (*Provider, error) {
	opts := []openai.Option{
		openai.WithModel(cfg.ChatModel),
		openai.WithEmbeddingModel(cfg.EmbeddingModel),
	}
	if key := os.Getenv(cfg.APIKeyEnv); key != "" {
		opts = append(opts, openai.WithToken(key))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("langchain: failed to initialize openai client: %w", err)
	}
	emb, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("langchain: failed to construct embedder: %w", err)
	}
	return &Provider{model: client, embedder: emb}, nil
}

// NewWith wires an existing model and embedder.
func NewWith(model llms.Model, embedder embeddings.Embedder) *Provider {
	return &Provider{model: model, embedder: embedder}
}

func (p *Provider) Name() string { return "langchain" }

// Complete sends prompt as a single human message.
func (p *Provider) Complete(ctx context.Context, prompt string) (string, error) {
	out, err := llms.GenerateFromSinglePrompt(ctx, p.model, prompt)
	if err != nil {
		return "", fmt.Errorf("langchain: generate: %w", err)
	}
	return out, nil
}

func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := p.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("langchain: embed: %w", err)
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("langchain: embed: empty vector")
	}
	return vec, nil
}
