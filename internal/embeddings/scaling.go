package embeddings

import "strings"

// ScaleFunc rescales a raw cosine similarity before aggregation. Some model
// families produce similarities compressed into a narrow band; scaling
// spreads them back over [0, 1] so thresholds stay comparable across models.
type ScaleFunc func(float64) float64

// MinMaxScale returns a ScaleFunc that clamps into [min, max] and rescales
// the result linearly to [0, 1].
func MinMaxScale(min, max float64) ScaleFunc {
	return func(score float64) float64 {
		if score < min {
			score = min
		}
		if score > max {
			score = max
		}
		return (score - min) / (max - min)
	}
}

// E5 models produce cosine similarities in roughly [0.7, 1.0].
var e5Scale = MinMaxScale(0.7, 1.0)

// ScalingFor returns the similarity scaling function appropriate for the
// given model identifier, or nil when raw similarities are fine as-is.
func ScalingFor(modelID string) ScaleFunc {
	if strings.Contains(strings.ToLower(modelID), "e5-") {
		return e5Scale
	}
	return nil
}
