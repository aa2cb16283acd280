package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"sentinel/internal/embeddings"
)

// Cache stores computed embeddings so repeated observations skip the
// provider round trip.
type Cache interface {
	// GetEmbedding retrieves a cached vector by key.
	// Returns nil, nil on a miss.
	GetEmbedding(ctx context.Context, key string) (embeddings.Vector, error)

	// SetEmbedding stores a vector with TTL.
	SetEmbedding(ctx context.Context, key string, vec embeddings.Vector, ttl time.Duration) error

	// Close closes the cache connection.
	Close() error
}

// Key derives the cache key for one text under one model. The model is part
// of the key so switching encoders never serves stale vectors.
func Key(modelID, text string) string {
	sum := sha256.Sum256([]byte(modelID + "\x00" + text))
	return hex.EncodeToString(sum[:])
}
