package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultQueryCacheSize is the number of query vectors kept by NewQueryCache.
const DefaultQueryCacheSize = 256

// QueryCache memoizes query embeddings. Keys include the model so a
// provider switch never serves stale vectors.
type QueryCache struct {
	cache *lru.Cache[string, []float32]
}

// NewQueryCache creates a cache holding up to size vectors.
func NewQueryCache(size int) (*QueryCache, error) {
	if size <= 0 {
		size = DefaultQueryCacheSize
	}
	c, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, err
	}
	return &QueryCache{cache: c}, nil
}

// Embed returns the cached vector for text or asks p for it.
func (c *QueryCache) Embed(ctx context.Context, p Provider, text string) ([]float32, error) {
	key := cacheKey(p.Metadata().Model, InputQuery, text)
	if vec, ok := c.cache.Get(key); ok {
		return vec, nil
	}

	vectors, err := p.GenerateEmbedding(ctx, []string{text}, InputQuery)
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, ErrEmptyInput
	}
	c.cache.Add(key, vectors[0])
	return vectors[0], nil
}

// Purge drops every cached vector.
func (c *QueryCache) Purge() {
	c.cache.Purge()
}

// Len returns the number of cached vectors.
func (c *QueryCache) Len() int {
	return c.cache.Len()
}

func cacheKey(model string, inputType InputType, text string) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(inputType))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}
