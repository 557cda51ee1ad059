package llm

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/refutelab/refute/internal/cache"
)

func init() {
	// Avoid real backoff sleeps in tests
	RetryBaseDelay = time.Microsecond
}

// flakyProvider fails a fixed number of calls before succeeding
type flakyProvider struct {
	failures      int
	generateCalls int
	embedCalls    int
}

func (f *flakyProvider) Name() string { return "flaky" }

func (f *flakyProvider) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	f.generateCalls++
	if f.generateCalls <= f.failures {
		return "", fmt.Errorf("transient error %d", f.generateCalls)
	}
	return "ok", nil
}

func (f *flakyProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	f.embedCalls++
	if f.embedCalls <= f.failures {
		return nil, fmt.Errorf("transient error %d", f.embedCalls)
	}
	return []float32{1, 2, 3}, nil
}

func (f *flakyProvider) IsAvailable(ctx context.Context) bool { return true }

func TestWithRetry_EventualSuccess(t *testing.T) {
	inner := &flakyProvider{failures: 2}
	p := WithRetry(inner, 3)

	out, err := p.Generate(context.Background(), GenerateRequest{Prompt: "x"})
	if err != nil {
		t.Fatalf("Expected success after retries, got: %v", err)
	}
	if out != "ok" {
		t.Errorf("Expected ok, got %q", out)
	}
	if inner.generateCalls != 3 {
		t.Errorf("Expected 3 calls, got %d", inner.generateCalls)
	}
}

func TestWithRetry_Exhaustion(t *testing.T) {
	inner := &flakyProvider{failures: 10}
	p := WithRetry(inner, 2)

	if _, err := p.Generate(context.Background(), GenerateRequest{Prompt: "x"}); err == nil {
		t.Fatal("Expected last error after exhaustion")
	}
	// Initial attempt plus maxRetries
	if inner.generateCalls != 3 {
		t.Errorf("Expected 3 attempts, got %d", inner.generateCalls)
	}
}

func TestWithRetry_EmbedRetries(t *testing.T) {
	inner := &flakyProvider{failures: 1}
	p := WithRetry(inner, 3)

	vec, err := p.Embed(context.Background(), "text")
	if err != nil {
		t.Fatalf("Expected success, got: %v", err)
	}
	if len(vec) != 3 {
		t.Errorf("Expected vector, got %v", vec)
	}
}

func TestWithRetry_ContextCancelStops(t *testing.T) {
	inner := &flakyProvider{failures: 100}
	p := WithRetry(inner, 50)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Generate(ctx, GenerateRequest{Prompt: "x"}); err == nil {
		t.Fatal("Expected error with cancelled context")
	}
	if inner.generateCalls > 1 {
		t.Errorf("Expected no retries after cancellation, got %d calls", inner.generateCalls)
	}
}

func TestWithEmbeddingCache_Memoizes(t *testing.T) {
	inner := &flakyProvider{}
	c := cache.NewMemoryCache(time.Minute, time.Minute)
	p := WithEmbeddingCache(inner, c, 0)

	first, err := p.Embed(context.Background(), "same text")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	second, err := p.Embed(context.Background(), "same text")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if inner.embedCalls != 1 {
		t.Errorf("Expected 1 backend call, got %d", inner.embedCalls)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("Cached vector differs at %d: %v vs %v", i, first, second)
		}
	}

	// Different text misses
	if _, err := p.Embed(context.Background(), "other text"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if inner.embedCalls != 2 {
		t.Errorf("Expected miss for different text, got %d calls", inner.embedCalls)
	}
}

func TestWithEmbeddingCache_GenerateNeverCached(t *testing.T) {
	inner := &flakyProvider{}
	c := cache.NewMemoryCache(time.Minute, time.Minute)
	p := WithEmbeddingCache(inner, c, 0)

	for i := 0; i < 3; i++ {
		if _, err := p.Generate(context.Background(), GenerateRequest{Prompt: "same"}); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}
	if inner.generateCalls != 3 {
		t.Errorf("Expected every generation to hit the backend, got %d calls", inner.generateCalls)
	}
}

func TestVectorCodecRoundTrip(t *testing.T) {
	vec := []float32{0, -1.5, 3.25, 1e-7}
	got := decodeVector(encodeVector(vec))
	if len(got) != len(vec) {
		t.Fatalf("Length mismatch: %d vs %d", len(got), len(vec))
	}
	for i := range vec {
		if got[i] != vec[i] {
			t.Errorf("Position %d: %v != %v", i, got[i], vec[i])
		}
	}

	if decodeVector([]byte{1, 2, 3}) != nil {
		t.Error("Expected nil for misaligned input")
	}
	if decodeVector(nil) != nil {
		t.Error("Expected nil for empty input")
	}
}
