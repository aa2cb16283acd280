// Package index implements the contrastive affinity index: exemplar
// embeddings for a rare class and a common class, an injected encoder, and
// the scoring operation that measures how strongly new observations lean
// toward the rare class.
package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"

	"sentinel/internal/embeddings"
	"sentinel/internal/logger"
	"sentinel/internal/scoring"
)

var (
	// ErrEmptyQuery is returned when a scoring call carries no texts.
	// Callers filter empty batches upstream.
	ErrEmptyQuery = errors.New("index: empty query batch")

	// ErrNoExemplars is returned when scoring is attempted without both
	// exemplar pools populated.
	ErrNoExemplars = errors.New("index: exemplar pool empty or absent")
)

// DefaultSubsampleSeed seeds negative-pool subsampling unless overridden,
// so rebalancing is reproducible across runs.
const DefaultSubsampleSeed = 42

// Index pairs an embedding encoder with rare-class (positive) and
// common-class (negative) exemplar embeddings. The encoder is shared, not
// owned. Scoring never mutates the index; ApplyNegativeRatio does, and is
// not internally synchronized; callers keep single-writer discipline.
type Index struct {
	encoder  embeddings.Encoder
	positive *embeddings.Matrix
	negative *embeddings.Matrix

	// Parallel corpora are diagnostic only; scoring never reads them.
	positiveCorpus []string
	negativeCorpus []string

	scale     embeddings.ScaleFunc
	modelCard map[string]any
	seed      int64
	log       *slog.Logger
}

// Options configures index construction. PositiveEmbeddings and
// NegativeEmbeddings accept any container AsMatrix accepts.
type Options struct {
	PositiveEmbeddings any
	NegativeEmbeddings any
	PositiveCorpus     []string
	NegativeCorpus     []string
	Scale              embeddings.ScaleFunc
	ModelCard          map[string]any
	SubsampleSeed      int64
	Logger             *slog.Logger
}

// New constructs an index around the given encoder. Embedding inputs are
// normalized into the canonical matrix form at this boundary; both pools
// must agree on dimension when present.
func New(encoder embeddings.Encoder, opts Options) (*Index, error) {
	if encoder == nil {
		return nil, fmt.Errorf("index: encoder required")
	}
	positive, err := embeddings.AsMatrix(opts.PositiveEmbeddings)
	if err != nil {
		return nil, fmt.Errorf("positive embeddings: %w", err)
	}
	negative, err := embeddings.AsMatrix(opts.NegativeEmbeddings)
	if err != nil {
		return nil, fmt.Errorf("negative embeddings: %w", err)
	}
	if positive != nil && negative != nil && positive.Dim() != negative.Dim() {
		return nil, fmt.Errorf("%w: positive dim %d vs negative dim %d",
			embeddings.ErrDimensionMismatch, positive.Dim(), negative.Dim())
	}
	if opts.PositiveCorpus != nil && len(opts.PositiveCorpus) != positive.Rows() {
		return nil, fmt.Errorf("index: positive corpus has %d texts for %d embeddings", len(opts.PositiveCorpus), positive.Rows())
	}
	if opts.NegativeCorpus != nil && len(opts.NegativeCorpus) != negative.Rows() {
		return nil, fmt.Errorf("index: negative corpus has %d texts for %d embeddings", len(opts.NegativeCorpus), negative.Rows())
	}

	seed := opts.SubsampleSeed
	if seed == 0 {
		seed = DefaultSubsampleSeed
	}
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}
	return &Index{
		encoder:        encoder,
		positive:       positive,
		negative:       negative,
		positiveCorpus: opts.PositiveCorpus,
		negativeCorpus: opts.NegativeCorpus,
		scale:          opts.Scale,
		modelCard:      opts.ModelCard,
		seed:           seed,
		log:            log,
	}, nil
}

// PositiveCount returns the rare-class exemplar count.
func (ix *Index) PositiveCount() int { return ix.positive.Rows() }

// NegativeCount returns the common-class exemplar count.
func (ix *Index) NegativeCount() int { return ix.negative.Rows() }

// ModelCard returns the free-form model metadata, if any.
func (ix *Index) ModelCard() map[string]any { return ix.modelCard }

// ApplyNegativeRatio bounds class imbalance by subsampling the negative
// pool down to floor(positiveCount × ratio) rows. Smaller pools are left
// alone. The subsample is a seeded draw with surviving rows kept in their
// original order, and the parallel corpus follows. Discarded rows are gone
// for good; a later call with a larger ratio cannot restore them.
func (ix *Index) ApplyNegativeRatio(ratio float64) {
	target := int(float64(ix.positive.Rows()) * ratio)
	if ix.negative.Rows() <= target {
		return
	}

	rng := rand.New(rand.NewSource(ix.seed))
	keep := rng.Perm(ix.negative.Rows())[:target]
	sort.Ints(keep)

	ix.log.Info("subsampling negative pool",
		"from", ix.negative.Rows(), "to", target, "ratio", ratio)

	ix.negative = ix.negative.Select(keep)
	if ix.negativeCorpus != nil {
		corpus := make([]string, len(keep))
		for i, src := range keep {
			corpus[i] = ix.negativeCorpus[src]
		}
		ix.negativeCorpus = corpus
	}
}

// CalculateRareClassAffinity scores each text against both exemplar pools
// and blends the per-text contrastive scores into a batch aggregate.
// Per-text scores below minScoreToConsider floor to 0 ("insufficient
// evidence"). The observation map collapses duplicate texts by value, last
// occurrence winning; the aggregate is computed over the full per-position
// score vector.
func (ix *Index) CalculateRareClassAffinity(ctx context.Context, texts []string, minScoreToConsider float64) (scoring.Result, error) {
	if len(texts) == 0 {
		return scoring.Result{}, ErrEmptyQuery
	}
	if ix.positive.Rows() == 0 || ix.negative.Rows() == 0 {
		return scoring.Result{}, ErrNoExemplars
	}

	queries, err := ix.encoder.Encode(ctx, texts)
	if err != nil {
		return scoring.Result{}, fmt.Errorf("encode queries: %w", err)
	}
	if len(queries) != len(texts) {
		return scoring.Result{}, fmt.Errorf("index: encoder returned %d vectors for %d texts", len(queries), len(texts))
	}

	scores := make([]float64, len(texts))
	observations := make(map[string]float64, len(texts))
	for i, q := range queries {
		if len(q) != ix.positive.Dim() {
			return scoring.Result{}, fmt.Errorf("%w: query dim %d vs index dim %d",
				embeddings.ErrDimensionMismatch, len(q), ix.positive.Dim())
		}
		posSims := ix.similarities(q, ix.positive)
		negSims := ix.similarities(q, ix.negative)

		score := scoring.ContrastiveScore(posSims, negSims)
		if score < minScoreToConsider {
			score = 0
		}
		scores[i] = score
		observations[texts[i]] = score
	}

	return scoring.Result{
		RareClassAffinity: scoring.Aggregate(scores),
		ObservationScores: observations,
	}, nil
}

func (ix *Index) similarities(q embeddings.Vector, pool *embeddings.Matrix) []float64 {
	sims := make([]float64, pool.Rows())
	for i := range sims {
		s := embeddings.CosineSimilarity(q, pool.Row(i))
		if ix.scale != nil {
			s = ix.scale(s)
		}
		sims[i] = s
	}
	return sims
}
