package cache

import (
	"context"
	"log/slog"
	"time"

	"sentinel/internal/embeddings"
)

// CachedEncoder wraps an Encoder with an embedding cache. Cache failures
// are logged and degrade to provider calls; they never fail the batch.
type CachedEncoder struct {
	inner embeddings.Encoder
	cache Cache
	ttl   time.Duration
	log   *slog.Logger
}

// NewCachedEncoder wraps inner so previously seen texts are served from the
// cache.
func NewCachedEncoder(inner embeddings.Encoder, c Cache, ttl time.Duration, log *slog.Logger) *CachedEncoder {
	return &CachedEncoder{inner: inner, cache: c, ttl: ttl, log: log}
}

func (e *CachedEncoder) Encode(ctx context.Context, texts []string) ([]embeddings.Vector, error) {
	out := make([]embeddings.Vector, len(texts))
	var missTexts []string
	var missIdx []int

	model := e.inner.ModelID()
	for i, text := range texts {
		vec, err := e.cache.GetEmbedding(ctx, Key(model, text))
		if err != nil {
			e.log.Warn("embedding cache lookup failed", "err", err)
		}
		if vec != nil {
			out[i] = vec
			continue
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	encoded, err := e.inner.Encode(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	for j, vec := range encoded {
		out[missIdx[j]] = vec
		if err := e.cache.SetEmbedding(ctx, Key(model, missTexts[j]), vec, e.ttl); err != nil {
			e.log.Warn("embedding cache store failed", "err", err)
		}
	}
	return out, nil
}

func (e *CachedEncoder) ModelID() string {
	return e.inner.ModelID()
}
