package llm

import (
	"context"
	"encoding/binary"
	"math"
	"time"

	"github.com/refutelab/refute/internal/cache"
)

// cachingProvider memoizes embedding calls. Generation is never cached:
// retry-by-regeneration relies on a malformed response being regenerated
// as a fresh sample.
type cachingProvider struct {
	inner Provider
	cache cache.Cache
	ttl   time.Duration
}

// WithEmbeddingCache wraps a provider with an embedding cache. A zero ttl
// uses the cache's default.
func WithEmbeddingCache(p Provider, c cache.Cache, ttl time.Duration) Provider {
	return &cachingProvider{inner: p, cache: c, ttl: ttl}
}

func (p *cachingProvider) Name() string { return p.inner.Name() }

func (p *cachingProvider) IsAvailable(ctx context.Context) bool {
	return p.inner.IsAvailable(ctx)
}

func (p *cachingProvider) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	return p.inner.Generate(ctx, req)
}

func (p *cachingProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cache.Key("embed", p.inner.Name(), text)

	if data, found := p.cache.Get(key); found {
		if vec := decodeVector(data); vec != nil {
			return vec, nil
		}
	}

	vec, err := p.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	_ = p.cache.Set(key, encodeVector(vec), p.ttl)
	return vec, nil
}

// encodeVector packs a float32 vector as little-endian bytes
func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// decodeVector unpacks a little-endian byte slice into a float32 vector.
// Returns nil for malformed input.
func decodeVector(data []byte) []float32 {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec
}
