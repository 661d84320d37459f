package llm

import (
	"fmt"
	"time"

	"docvec/internal/config"
	"docvec/internal/domain"
	"docvec/internal/llm/langchain"
	"docvec/internal/llm/local"
	"docvec/internal/llm/openai"
)

// New assembles the augmenter and embedder selected by cfg.Type.
func New(cfg config.ProviderConfig) (domain.Augmenter, domain.Embedder, error) {
	switch cfg.Type {
	case "openai", "":
		client, err := openai.NewClient(openai.Config{
			BaseURL:        cfg.BaseURL,
			APIKeyEnv:      cfg.APIKeyEnv,
			ChatModel:      cfg.ChatModel,
			EmbeddingModel: cfg.EmbeddingModel,
			Timeout:        time.Duration(cfg.TimeoutSecs) * time.Second,
		})
		if err != nil {
			return nil, nil, err
		}
		return NewPromptAugmenter(client, cfg.Audience), client, nil
	case "langchain":
		p, err := langchain.New(langchain.Config{
			BaseURL:        cfg.BaseURL,
			APIKeyEnv:      cfg.APIKeyEnv,
			ChatModel:      cfg.ChatModel,
			EmbeddingModel: cfg.EmbeddingModel,
		})
		if err != nil {
			return nil, nil, err
		}
		return NewPromptAugmenter(p, cfg.Audience), p, nil
	case "local":
		emb, err := local.NewEmbedder(cfg.Dimension)
		if err != nil {
			return nil, nil, err
		}
		return local.NewAugmenter(), emb, nil
	default:
		return nil, nil, fmt.Errorf("unknown provider: %s", cfg.Type)
	}
}
