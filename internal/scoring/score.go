// Package scoring holds the pure numeric formulae behind rare-class affinity
// detection: the contrastive score of one observation against both exemplar
// pools, and the statistics used to aggregate a batch of such scores.
package scoring

import "math"

// DefaultSkewnessMinSize is the smallest sample for which a third-moment
// estimate is considered trustworthy.
const DefaultSkewnessMinSize = 10

// ContrastiveScore returns mean(posSims) − mean(negSims), floored at 0.
// The floor is asymmetric on purpose: strong similarity to common-class
// exemplars is not evidence of anything, only missing rare-class similarity
// is, so the score never goes negative. The two slices may have different
// lengths. Calling with an empty slice is a caller bug; the result is
// undefined (NaN).
func ContrastiveScore(posSims, negSims []float64) float64 {
	diff := mean(posSims) - mean(negSims)
	if diff < 0 {
		return 0
	}
	return diff
}

// MeanOfPositives returns the mean of the strictly positive scores.
// When no score is positive (including an empty input) it returns NaN,
// which propagates as "no positive signal" rather than being coerced to 0.
func MeanOfPositives(scores []float64) float64 {
	var sum float64
	var n int
	for _, s := range scores {
		if s > 0 {
			sum += s
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// Skewness returns the sample skewness coefficient m3/m2^1.5 of scores.
// Samples smaller than minSize (use DefaultSkewnessMinSize for the stock
// cutoff) return 0.0, as do constant samples where the variance vanishes.
func Skewness(scores []float64, minSize int) float64 {
	n := len(scores)
	if n < minSize {
		return 0.0
	}
	mu := mean(scores)
	var m2, m3 float64
	for _, s := range scores {
		d := s - mu
		m2 += d * d
		m3 += d * d * d
	}
	m2 /= float64(n)
	m3 /= float64(n)
	if m2 < 1e-12 {
		return 0.0
	}
	return m3 / math.Pow(m2, 1.5)
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
