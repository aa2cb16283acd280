package index

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"sentinel/internal/embeddings"
)

// BuildFromCorpora encodes both exemplar corpora and constructs an index
// over the results. The two pools are encoded concurrently; the corpora are
// retained on the index for diagnostics.
func BuildFromCorpora(ctx context.Context, encoder embeddings.Encoder, positiveCorpus, negativeCorpus []string, opts Options) (*Index, error) {
	if len(positiveCorpus) == 0 || len(negativeCorpus) == 0 {
		return nil, ErrNoExemplars
	}

	var positive, negative []embeddings.Vector
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		positive, err = encoder.Encode(gctx, positiveCorpus)
		return err
	})
	g.Go(func() error {
		var err error
		negative, err = encoder.Encode(gctx, negativeCorpus)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("encode exemplars: %w", err)
	}

	opts.PositiveEmbeddings = positive
	opts.NegativeEmbeddings = negative
	opts.PositiveCorpus = positiveCorpus
	opts.NegativeCorpus = negativeCorpus
	return New(encoder, opts)
}
