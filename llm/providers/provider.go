package providers

import (
	"context"
	"fmt"

	openaiEmbed "github.com/cloudwego/eino-ext/components/embedding/openai"
	openaiModel "github.com/cloudwego/eino-ext/components/model/openai"
	einoEmbedding "github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"

	"leetmentor/config"
)

// ChatModelConfig defines the configuration for creating a chat model.
type ChatModelConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// NewChatModel creates an OpenAI-compatible chat model from specific configuration.
// A missing API key is a construction-time configuration error; nothing is
// retried later, the process simply refuses to come up without credentials.
func NewChatModel(ctx context.Context, cfg *ChatModelConfig) (model.BaseChatModel, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required in config")
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = "gpt-4o-mini"
	}

	return openaiModel.NewChatModel(ctx, &openaiModel.ChatModelConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   modelName,
	})
}

// EmbeddingConfig defines the configuration for creating an embedding model.
type EmbeddingConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// NewEmbeddingModel creates an OpenAI-compatible embedding model from specific configuration.
func NewEmbeddingModel(ctx context.Context, cfg *EmbeddingConfig) (einoEmbedding.Embedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required in config")
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = "text-embedding-3-large"
	}

	return openaiEmbed.NewEmbedder(ctx, &openaiEmbed.EmbeddingConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   modelName,
	})
}

// Models bundles the generation collaborators one pipeline needs.
type Models struct {
	Chat     model.BaseChatModel
	Summary  model.BaseChatModel
	Embedder einoEmbedding.Embedder
}

// Build constructs all models from process configuration. The summary model
// falls back to the chat model's credentials when none of its own are set,
// and the whole bundle honours the LLM_PROVIDER switch.
func Build(ctx context.Context, cfg config.Config) (*Models, error) {
	embedder, err := NewEmbeddingModel(ctx, &EmbeddingConfig{
		APIKey:  cfg.EmbeddingAPIKey,
		BaseURL: cfg.EmbeddingURL,
		Model:   cfg.EmbeddingModel,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding model: %w", err)
	}

	var chat model.BaseChatModel
	switch cfg.Provider {
	case "gemini":
		chat, err = NewGeminiModel(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	default:
		chat, err = NewChatModel(ctx, &ChatModelConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}

	summaryCfg := &ChatModelConfig{
		APIKey:  cfg.SummaryAPIKey,
		BaseURL: cfg.SummaryBaseURL,
		Model:   cfg.SummaryModel,
	}
	if summaryCfg.APIKey == "" {
		summaryCfg.APIKey = cfg.APIKey
		if summaryCfg.BaseURL == "" {
			summaryCfg.BaseURL = cfg.BaseURL
		}
		if summaryCfg.Model == "" {
			summaryCfg.Model = cfg.Model
		}
	}

	summary := chat
	if summaryCfg.APIKey != "" {
		summary, err = NewChatModel(ctx, summaryCfg)
		if err != nil {
			return nil, fmt.Errorf("create summary model: %w", err)
		}
	}

	return &Models{Chat: chat, Summary: summary, Embedder: embedder}, nil
}
