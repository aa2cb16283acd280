package scoring

import "math"

// skewWeight bounds how much the skewness of the score distribution can
// move the aggregate. tanh keeps the multiplier inside (0.5, 1.5), so a
// concentrated high-similarity tail boosts the aggregate and a diffuse one
// dampens it, but the sign of the mean is never flipped.
const skewWeight = 0.5

// AggregateScore is a tri-state scalar: a defined value, or no signal at
// all. It mirrors the sql.Null pattern instead of leaking NaN to callers.
type AggregateScore struct {
	Float64 float64
	Valid   bool
}

// Result is the outcome of scoring one batch of observations.
// ObservationScores maps each distinct input text to its score; duplicate
// texts collapse to one entry with the last occurrence winning.
type Result struct {
	RareClassAffinity AggregateScore
	ObservationScores map[string]float64
}

// Aggregate blends the per-observation scores into a single batch score:
//
//	meanOfPositives × (1 + 0.5·tanh(skewness))
//
// Skewness acts as a confidence modifier, not the primary signal: it favors
// a concentrated subset of strongly-affine observations over a broad,
// moderate spread. When no observation scored positive the aggregate is
// not valid; "no positive evidence" is distinct from a score of zero.
func Aggregate(scores []float64) AggregateScore {
	pos := MeanOfPositives(scores)
	if math.IsNaN(pos) {
		return AggregateScore{}
	}
	skew := Skewness(scores, DefaultSkewnessMinSize)
	return AggregateScore{
		Float64: pos * (1 + skewWeight*math.Tanh(skew)),
		Valid:   true,
	}
}
