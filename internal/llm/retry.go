package llm

import (
	"context"
	"time"
)

// RetryBaseDelay controls the base duration for exponential backoff.
// Tests override this to avoid real sleeps.
var RetryBaseDelay = 500 * time.Millisecond

const defaultMaxRetries = 3

// retryProvider retries failed calls with capped exponential backoff.
// The delay starts at RetryBaseDelay and doubles each attempt. Exhaustion
// returns the last error; callers treat it as a stage-local failure.
type retryProvider struct {
	inner      Provider
	maxRetries int
}

// WithRetry wraps a provider with backoff retries on transient errors
func WithRetry(p Provider, maxRetries int) Provider {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	return &retryProvider{inner: p, maxRetries: maxRetries}
}

func (p *retryProvider) Name() string { return p.inner.Name() }

func (p *retryProvider) IsAvailable(ctx context.Context) bool {
	return p.inner.IsAvailable(ctx)
}

func (p *retryProvider) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	var out string
	err := p.retry(ctx, func() error {
		var callErr error
		out, callErr = p.inner.Generate(ctx, req)
		return callErr
	})
	return out, err
}

func (p *retryProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	err := p.retry(ctx, func() error {
		var callErr error
		out, callErr = p.inner.Embed(ctx, text)
		return callErr
	})
	return out, err
}

func (p *retryProvider) retry(ctx context.Context, call func() error) error {
	var lastErr error

	backoff := RetryBaseDelay
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		lastErr = call()
		if lastErr == nil {
			return nil
		}

		// Context cancellation is not transient
		if ctx.Err() != nil {
			return lastErr
		}
	}

	return lastErr
}
