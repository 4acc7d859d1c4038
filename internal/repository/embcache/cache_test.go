package embcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/nordveil/shopsearch/internal/db"
	"github.com/nordveil/shopsearch/internal/domain"
)

type fakeKV struct {
	data    map[string][]byte
	getErr  error
	setErr  error
	setTTLs map[string]time.Duration
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string][]byte{}, setTTLs: map[string]time.Duration{}}
}

func (f *fakeKV) Get(_ context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	v, ok := f.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (f *fakeKV) Set(_ context.Context, key string, value []byte) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.data[key] = value
	return nil
}

func (f *fakeKV) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.data[key] = value
	f.setTTLs[key] = ttl
	return nil
}

type fakeEmbedder struct {
	calls  int
	result domain.EmbeddingResult
	err    error
}

func (f *fakeEmbedder) Embed(context.Context, string) (domain.EmbeddingResult, error) {
	f.calls++
	return f.result, f.err
}

func TestEmbedCachesMisses(t *testing.T) {
	kv := newFakeKV()
	next := &fakeEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.5, -1.25}}}
	cache := New(next, kv, "test-model", 0, zap.NewNop())

	first, err := cache.Embed(context.Background(), "red shoes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := cache.Embed(context.Background(), "red shoes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if next.calls != 1 {
		t.Errorf("expected 1 model call, got %d", next.calls)
	}
	if len(second.Embedding) != 2 || second.Embedding[0] != first.Embedding[0] {
		t.Errorf("cached vector mismatch: %v vs %v", second.Embedding, first.Embedding)
	}
}

func TestEmbedUsesTTLWhenConfigured(t *testing.T) {
	kv := newFakeKV()
	next := &fakeEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	cache := New(next, kv, "test-model", time.Hour, zap.NewNop())

	if _, err := cache.Embed(context.Background(), "q"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, ttl := range kv.setTTLs {
		if ttl != time.Hour {
			t.Errorf("ttl = %v, want 1h", ttl)
		}
	}
	if len(kv.setTTLs) != 1 {
		t.Errorf("expected one TTL write, got %d", len(kv.setTTLs))
	}
}

func TestEmbedFallsThroughOnCacheReadError(t *testing.T) {
	kv := newFakeKV()
	kv.getErr = errors.New("connection reset")
	next := &fakeEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	cache := New(next, kv, "test-model", 0, zap.NewNop())

	if _, err := cache.Embed(context.Background(), "q"); err != nil {
		t.Fatalf("cache read error must not fail the embed: %v", err)
	}
	if next.calls != 1 {
		t.Errorf("expected model call on cache error, got %d", next.calls)
	}
}

func TestEmbedPropagatesModelError(t *testing.T) {
	kv := newFakeKV()
	next := &fakeEmbedder{err: domain.ErrModelProviderError}
	cache := New(next, kv, "test-model", 0, zap.NewNop())

	if _, err := cache.Embed(context.Background(), "q"); !errors.Is(err, domain.ErrModelProviderError) {
		t.Errorf("expected provider error, got %v", err)
	}
	if len(kv.data) != 0 {
		t.Error("nothing should be cached on model failure")
	}
}

func TestKeyDependsOnModel(t *testing.T) {
	kv := newFakeKV()
	a := New(&fakeEmbedder{}, kv, "model-a", 0, zap.NewNop())
	b := New(&fakeEmbedder{}, kv, "model-b", 0, zap.NewNop())

	if a.key("q") == b.key("q") {
		t.Error("different models must not share cache keys")
	}
}
