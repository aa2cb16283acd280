package embeddings

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
)

// HashingEncoder maps text to a fixed-size vector with the hashing trick:
// each whitespace token is hashed to an index and set to 1. It needs no
// model weights and is fully deterministic, which makes it both the offline
// fallback provider and the encoder used in tests.
type HashingEncoder struct {
	dim int
}

const DefaultHashingDim = 512

// NewHashingEncoder creates a hashing encoder with the given dimension.
func NewHashingEncoder(dim int) *HashingEncoder {
	if dim <= 0 {
		dim = DefaultHashingDim
	}
	return &HashingEncoder{dim: dim}
}

func (e *HashingEncoder) Encode(_ context.Context, texts []string) ([]Vector, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("empty batch")
	}
	out := make([]Vector, len(texts))
	for i, text := range texts {
		vec := make(Vector, e.dim)
		// Lowercase only; punctuation stays because obfuscated tokens carry
		// a different signal than their clean forms.
		for _, w := range strings.Fields(strings.ToLower(text)) {
			h := fnv.New32a()
			h.Write([]byte(w))
			vec[int(h.Sum32())%e.dim] = 1.0
		}
		out[i] = vec
	}
	return out, nil
}

func (e *HashingEncoder) ModelID() string {
	return fmt.Sprintf("hashing-%d", e.dim)
}
