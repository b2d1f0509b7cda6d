package embcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/escola-labs/bulletindex/internal/db"
)

func TestEmbed_CacheMiss(t *testing.T) {
	inner := &mockEmbedder{}
	inner.result.Embedding = []float32{0.1, 0.2, 0.3}
	inner.result.TotalTokens = 10
	ce, ms := newTestCachedEmbedder(t, inner)
	ctx := context.Background()

	// GET → ErrKeyNotFound (cache miss)
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return nil, db.ErrKeyNotFound
	}

	// SET → OK (cache put)
	var setCalled bool
	ms.setFn = func(_ context.Context, _ string, _ []byte) error {
		setCalled = true
		return nil
	}

	result, err := ce.Embed(ctx, "quando é a reunião de pais?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 || result.Embedding[0] != 0.1 {
		t.Fatalf("unexpected vector: %v", result.Embedding)
	}
	if result.TotalTokens != 10 {
		t.Fatalf("expected TotalTokens=10, got %d", result.TotalTokens)
	}
	if !setCalled {
		t.Fatal("expected SET to be called for cache put")
	}
}

func TestEmbed_CacheMissWithTTL(t *testing.T) {
	inner := &mockEmbedder{}
	inner.result.Embedding = []float32{0.1, 0.2, 0.3}
	ms := &mockKVStore{}
	ce := New(inner, ms, "text-embedding-004", 720*time.Hour, nil, zap.NewNop())
	ctx := context.Background()

	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return nil, db.ErrKeyNotFound
	}

	var gotTTL time.Duration
	ms.setWithTTLFn = func(_ context.Context, _ string, _ []byte, ttl time.Duration) error {
		gotTTL = ttl
		return nil
	}
	var plainSetCalled bool
	ms.setFn = func(_ context.Context, _ string, _ []byte) error {
		plainSetCalled = true
		return nil
	}

	if _, err := ce.Embed(ctx, "quando é a reunião de pais?"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotTTL != 720*time.Hour {
		t.Fatalf("expected cache put with 720h TTL, got %v", gotTTL)
	}
	if plainSetCalled {
		t.Fatal("plain SET must not be used when a TTL is configured")
	}
}

func TestEmbed_CacheHit(t *testing.T) {
	inner := &mockEmbedder{}
	inner.result.Embedding = []float32{0.1, 0.2, 0.3}
	ce, ms := newTestCachedEmbedder(t, inner)
	ctx := context.Background()

	cached := vectorToCacheBytes([]float32{0.4, 0.5, 0.6})

	// GET → cached bytes
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return cached, nil
	}

	result, err := ce.Embed(ctx, "quando é a reunião de pais?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 || result.Embedding[0] != 0.4 {
		t.Fatalf("expected cached vector, got: %v", result.Embedding)
	}
	if result.TotalTokens != 0 {
		t.Fatalf("expected TotalTokens=0 on cache hit, got %d", result.TotalTokens)
	}
	if inner.calls != 0 {
		t.Fatalf("inner embedder must not be called on hit, got %d calls", inner.calls)
	}
}

func TestEmbed_InnerError(t *testing.T) {
	inner := &mockEmbedder{err: errors.New("provider down")}
	ce, ms := newTestCachedEmbedder(t, inner)
	ctx := context.Background()

	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return nil, db.ErrKeyNotFound
	}

	_, err := ce.Embed(ctx, "pergunta")
	if err == nil {
		t.Fatal("expected inner error to propagate")
	}
}

func TestEmbed_CorruptCacheEntryFallsThrough(t *testing.T) {
	inner := &mockEmbedder{}
	inner.result.Embedding = []float32{1, 2, 3}
	ce, ms := newTestCachedEmbedder(t, inner)
	ctx := context.Background()

	// 5 bytes is not a whole number of float32s.
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return []byte{1, 2, 3, 4, 5}, nil
	}

	result, err := ce.Embed(ctx, "pergunta")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("expected fallthrough to inner embedder, got %d calls", inner.calls)
	}
	if result.Embedding[0] != 1 {
		t.Fatalf("unexpected vector: %v", result.Embedding)
	}
}

func TestCacheKey_DependsOnModelAndText(t *testing.T) {
	a, _ := newTestCachedEmbedder(t, &mockEmbedder{})
	b := New(&mockEmbedder{}, &mockKVStore{}, "other-model", 0, nil, a.logger)

	if a.cacheKey("texto") == b.cacheKey("texto") {
		t.Fatal("cache keys must differ across models")
	}
	if a.cacheKey("texto") != a.cacheKey("texto") {
		t.Fatal("cache key must be deterministic")
	}
	if a.cacheKey("texto") == a.cacheKey("outro texto") {
		t.Fatal("cache keys must differ across texts")
	}
}

func TestVectorCacheRoundTrip(t *testing.T) {
	in := []float32{0.1, -2.5, 3.25, 0}
	out, err := bytesToVector(vectorToCacheBytes(in))
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("length mismatch: %d != %d", len(out), len(in))
	}
	for i := range in {
		if in[i] != out[i] {
			t.Fatalf("element %d: %v != %v", i, in[i], out[i])
		}
	}
}
