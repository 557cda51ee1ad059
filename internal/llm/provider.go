// Package llm abstracts the inference endpoint behind a synchronous
// text-generation and embedding contract. Stages receive a Provider at
// construction, so tests can substitute a double.
package llm

import (
	"context"
)

// GenerateRequest is one synchronous text-generation call
type GenerateRequest struct {
	// Prompt is the user prompt
	Prompt string

	// System is an optional system prompt
	System string

	// MaxTokens limits the response length (0 uses the provider default)
	MaxTokens int

	// Temperature overrides the configured sampling temperature when > 0
	Temperature float32
}

// Provider defines the interface for inference-endpoint backends
type Provider interface {
	// Name returns the provider name
	Name() string

	// Generate produces text for a prompt
	Generate(ctx context.Context, req GenerateRequest) (string, error)

	// Embed returns a fixed-dimension embedding vector for text
	Embed(ctx context.Context, text string) ([]float32, error)

	// IsAvailable checks if the provider is configured and reachable
	IsAvailable(ctx context.Context) bool
}

// Config holds provider configuration
type Config struct {
	// Provider name: "openai" or "ollama"
	Provider string

	// Model is the generation model name
	Model string

	// EmbeddingModel is the embedding model name
	EmbeddingModel string

	// APIKey for OpenAI
	APIKey string

	// BaseURL for custom endpoints (e.g. Ollama, proxies)
	BaseURL string

	// Timeout for API requests, in seconds
	Timeout int

	// MaxTokens for response generation
	MaxTokens int

	// Temperature for sampling
	Temperature float32

	// MaxRetries caps the backoff retry loop around transient errors
	MaxRetries int

	// RequestsPerSecond and Burst throttle calls to the endpoint
	RequestsPerSecond float64
	Burst             int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:          "openai",
		Model:             "gpt-4o-mini",
		EmbeddingModel:    "text-embedding-3-small",
		Timeout:           60,
		MaxTokens:         1000,
		Temperature:       0.3,
		MaxRetries:        3,
		RequestsPerSecond: 2,
		Burst:             5,
	}
}
