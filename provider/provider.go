package provider

import (
	"context"
	"errors"

	"docint/config"
	openai_provider "docint/provider/openai"
)

// Provider is the interface the pipeline and retrieval layers consume for all
// model and embedding calls.
type Provider interface {
	// Complete sends a system+user text prompt and returns the model's reply.
	Complete(ctx context.Context, system, user string) (string, error)
	// CompleteVision sends a text instruction alongside a JPEG-encoded image.
	CompleteVision(ctx context.Context, instruction string, imageJPEG []byte) (string, error)
	// CreateEmbedding generates one embedding vector per input text.
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// NewProvider creates a new LLM client based on the provided configuration
func NewProvider(cfg config.LLMConfig) (Provider, error) {
	switch cfg.Provider {
	case "openai":
		if cfg.APIKey == "" {
			return nil, errors.New("OPENAI_API_KEY not set")
		}
		return openai_provider.NewClient(openai_provider.Config{
			APIKey:          cfg.APIKey,
			BaseURL:         cfg.BaseURL,
			CompletionModel: cfg.CompletionModel,
			VisionModel:     cfg.VisionModel,
			EmbeddingModel:  cfg.EmbeddingModel,
			Temperature:     cfg.Temperature,
			MaxTokens:       cfg.MaxTokens,
			Timeout:         cfg.Timeout,
		}), nil
	default:
		return nil, errors.New("unsupported LLM provider")
	}
}
