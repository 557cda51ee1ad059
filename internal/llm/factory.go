package llm

import (
	"fmt"
	"strings"
	"time"

	"github.com/refutelab/refute/internal/cache"
	"github.com/refutelab/refute/internal/model"
)

// NewProvider creates a raw provider from configuration. Anthropic is not
// offered because the pipeline's provider contract requires an embeddings
// endpoint, which Anthropic does not expose.
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, ollama)", config.Provider)
	}
}

// NewClient builds the provider the pipeline uses: the configured backend
// wrapped with retry, rate limiting, and an optional embedding cache.
func NewClient(config Config, c cache.Cache) (Provider, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}

	provider = WithRetry(provider, config.MaxRetries)

	if config.RequestsPerSecond > 0 {
		provider = WithRateLimit(provider, config.RequestsPerSecond, config.Burst)
	}

	if c != nil {
		provider = WithEmbeddingCache(provider, c, 0)
	}

	return provider, nil
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(mc model.LLMConfig) Config {
	return Config{
		Provider:          mc.Provider,
		Model:             mc.Model,
		EmbeddingModel:    mc.EmbeddingModel,
		APIKey:            mc.APIKey,
		BaseURL:           mc.BaseURL,
		Timeout:           mc.Timeout,
		MaxTokens:         mc.MaxTokens,
		Temperature:       mc.Temperature,
		MaxRetries:        mc.MaxRetries,
		RequestsPerSecond: mc.RequestsPerSecond,
		Burst:             mc.Burst,
		HTTPProxy:         mc.HTTPProxy,
		HTTPSProxy:        mc.HTTPSProxy,
	}
}

// Meta returns generation metadata describing a provider call
func Meta(p Provider, config Config) model.GenerationMeta {
	return model.GenerationMeta{
		Provider:    p.Name(),
		Model:       config.Model,
		Temperature: config.Temperature,
		GeneratedAt: time.Now().UTC(),
	}
}
