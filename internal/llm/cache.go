package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of replies kept by a CachedGenerator
const DefaultCacheSize = 256

// CachedGenerator wraps a Generator with an in-memory LRU reply cache.
// Only successful replies are cached.
type CachedGenerator struct {
	Generator
	cache *lru.Cache[string, string]
}

// NewCachedGenerator wraps next with a cache of the given size
func NewCachedGenerator(next Generator, size int) *CachedGenerator {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		// Only fails for non-positive sizes
		cache, _ = lru.New[string, string](DefaultCacheSize)
	}
	return &CachedGenerator{Generator: next, cache: cache}
}

// Generate implements Generator
func (c *CachedGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if err := ValidateRequest(req); err != nil {
		return "", err
	}

	key := c.key(withDefaults(req, c.Model()))
	if reply, ok := c.cache.Get(key); ok {
		return reply, nil
	}

	reply, err := c.Generator.Generate(ctx, req)
	if err != nil {
		return "", err
	}

	c.cache.Add(key, reply)
	return reply, nil
}

// Size returns the current cache size
func (c *CachedGenerator) Size() int {
	return c.cache.Len()
}

// Clear empties the cache
func (c *CachedGenerator) Clear() {
	c.cache.Purge()
}

// key computes the SHA-256 cache key of a request
func (c *CachedGenerator) key(req Request) string {
	h := sha256.New()
	_, _ = fmt.Fprintf(h, "%s\x00%s\x00%d\x00%g\x00", c.Provider(), req.Model, req.MaxTokens, req.Temperature)
	_, _ = h.Write([]byte(req.Prompt))
	return hex.EncodeToString(h.Sum(nil))
}
