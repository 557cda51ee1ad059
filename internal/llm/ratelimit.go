package llm

import (
	"context"

	"golang.org/x/time/rate"
)

// limitedProvider throttles calls to the inference endpoint
type limitedProvider struct {
	inner   Provider
	limiter *rate.Limiter
}

// WithRateLimit wraps a provider with a token-bucket rate limiter
func WithRateLimit(p Provider, requestsPerSecond float64, burst int) Provider {
	if burst <= 0 {
		burst = 1
	}
	return &limitedProvider{
		inner:   p,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

func (p *limitedProvider) Name() string { return p.inner.Name() }

func (p *limitedProvider) IsAvailable(ctx context.Context) bool {
	return p.inner.IsAvailable(ctx)
}

func (p *limitedProvider) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return p.inner.Generate(ctx, req)
}

func (p *limitedProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return p.inner.Embed(ctx, text)
}
