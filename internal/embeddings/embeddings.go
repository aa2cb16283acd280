package embeddings

import (
	"context"
	"math"
)

// Vector is a single fixed-dimension embedding.
type Vector []float32

// Encoder turns text into embeddings. The output dimension is constant for a
// given instance. ModelID returns the identifier needed to reconstruct an
// equivalent encoder later; it must be tracked explicitly because it cannot
// be recovered from a persisted index without it.
type Encoder interface {
	Encode(ctx context.Context, texts []string) ([]Vector, error)
	ModelID() string
}

// CosineSimilarity computes the cosine similarity between two vectors.
// Mismatched lengths or a zero-magnitude vector yield 0.
func CosineSimilarity(a, b Vector) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		va := float64(a[i])
		vb := float64(b[i])
		dot += va * vb
		na += va * va
		nb += vb * vb
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
