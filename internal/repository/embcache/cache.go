// Package embcache caches embedding vectors in the store so repeated
// queries skip the model round trip.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/nordveil/shopsearch/internal/db"
	"github.com/nordveil/shopsearch/internal/domain"
	"github.com/nordveil/shopsearch/internal/metrics"
)

const keyPrefix = domain.KeyPrefix + "embcache:"

// kvStore is the subset of db.Store the cache needs.
type kvStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedEmbedder wraps an embedder with a store-backed vector cache.
// Cache failures never fail an embed: reads fall through to the model,
// write errors are logged and dropped.
type CachedEmbedder struct {
	next   domain.Embedder
	store  kvStore
	model  string
	ttl    time.Duration
	logger *zap.Logger
}

// New creates a caching embedder. A zero ttl caches forever.
func New(next domain.Embedder, store kvStore, model string, ttl time.Duration, logger *zap.Logger) *CachedEmbedder {
	return &CachedEmbedder{
		next:   next,
		store:  store,
		model:  model,
		ttl:    ttl,
		logger: logger,
	}
}

// Embed implements domain.Embedder.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := c.key(text)

	raw, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		if vec, decErr := bytesToVector(raw); decErr == nil {
			metrics.EmbeddingCacheTotal.WithLabelValues("hit").Inc()
			return domain.EmbeddingResult{Embedding: vec}, nil
		}
		c.logger.Warn("corrupt cached embedding, refetching", zap.String("key", key))
	case !errors.Is(err, db.ErrKeyNotFound):
		c.logger.Warn("embedding cache read failed", zap.Error(err))
	}

	metrics.EmbeddingCacheTotal.WithLabelValues("miss").Inc()

	res, err := c.next.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, err
	}

	encoded := vectorToBytes(res.Embedding)
	if c.ttl > 0 {
		err = c.store.SetWithTTL(ctx, key, encoded, c.ttl)
	} else {
		err = c.store.Set(ctx, key, encoded)
	}
	if err != nil {
		c.logger.Warn("embedding cache write failed", zap.Error(err))
	}

	return res, nil
}

// key derives a stable cache key from model and input so a model switch
// never serves stale vectors.
func (c *CachedEmbedder) key(text string) string {
	h := sha256.New()
	h.Write([]byte(c.model))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}

func vectorToBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToVector(buf []byte) ([]float32, error) {
	if len(buf) == 0 || len(buf)%4 != 0 {
		return nil, fmt.Errorf("invalid vector payload length %d", len(buf))
	}
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v, nil
}
