package retrieval

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"docint/provider"
)

const embedCacheKeyPrefix = "docint:emb:"

// Embedder wraps the provider's embedding endpoint with a degraded-output
// contract (zero vector on failure, never an error) and an optional Redis
// cache so re-indexing identical text avoids repeat API calls.
type Embedder struct {
	provider  provider.Provider
	cache     *redis.Client // nil disables caching
	model     string
	dimension int
	ttl       time.Duration
	logger    *log.Logger
}

func NewEmbedder(p provider.Provider, cache *redis.Client, model string, dimension int, ttl time.Duration) *Embedder {
	return &Embedder{
		provider:  p,
		cache:     cache,
		model:     model,
		dimension: dimension,
		ttl:       ttl,
		logger:    log.New(log.Writer(), "[EMBED] ", log.LstdFlags),
	}
}

// Dimension returns the expected vector length.
func (e *Embedder) Dimension() int { return e.dimension }

// Embed returns the embedding vector for text, or a zero vector when the
// provider call fails. Cache errors fall through to the provider silently.
func (e *Embedder) Embed(ctx context.Context, text string) []float32 {
	key := e.cacheKey(text)
	if e.cache != nil {
		if raw, err := e.cache.Get(ctx, key).Result(); err == nil {
			var vec []float32
			if err := json.Unmarshal([]byte(raw), &vec); err == nil && len(vec) == e.dimension {
				return vec
			}
		}
	}

	vecs, err := e.provider.CreateEmbedding(ctx, []string{text})
	if err != nil || len(vecs) == 0 {
		e.logger.Printf("embedding failed, substituting zero vector: %v", err)
		return make([]float32, e.dimension)
	}
	vec := vecs[0]

	if e.cache != nil {
		if data, err := json.Marshal(vec); err == nil {
			if err := e.cache.Set(ctx, key, data, e.ttl).Err(); err != nil {
				e.logger.Printf("cache write failed: %v", err)
			}
		}
	}
	return vec
}

func (e *Embedder) cacheKey(text string) string {
	h := sha256.New()
	h.Write([]byte(e.model))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return embedCacheKeyPrefix + hex.EncodeToString(h.Sum(nil))
}

// IsZeroVector reports whether v is all zeros (the degraded embedding output).
func IsZeroVector(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
