package index

import (
	"context"
	"fmt"

	"sentinel/internal/embeddings"
	"sentinel/internal/indexio"
	"sentinel/internal/logger"
)

// EncoderFactory reconstructs an encoder (and its similarity scaling, if
// the model family needs one) from a persisted model identifier. Injected
// at load time so the index never resolves providers from global state.
type EncoderFactory func(modelID string) (embeddings.Encoder, embeddings.ScaleFunc, error)

// Save persists the index beneath path: its config document plus the two
// exemplar matrices. encoderModelNameOrPath is stored verbatim; when empty
// it falls back to the encoder's own ModelID. The written config is
// returned so callers can record exactly what was persisted.
func (ix *Index) Save(ctx context.Context, store indexio.BlobStore, path, encoderModelNameOrPath string, encodingKwargs map[string]any) (indexio.SavedIndexConfig, error) {
	if ix.positive.Rows() == 0 || ix.negative.Rows() == 0 {
		return indexio.SavedIndexConfig{}, ErrNoExemplars
	}
	if encoderModelNameOrPath == "" {
		encoderModelNameOrPath = ix.encoder.ModelID()
	}
	cfg := indexio.SavedIndexConfig{
		EncoderModelNameOrPath: encoderModelNameOrPath,
		EncodingKwargs:         encodingKwargs,
		ModelCard:              ix.modelCard,
	}
	if err := indexio.SaveIndex(ctx, store, path, cfg, ix.positive, ix.negative, ix.log); err != nil {
		return indexio.SavedIndexConfig{}, err
	}
	return cfg, nil
}

// Load reads a persisted index from beneath path and reconstructs its
// encoder through the factory. A positive negativeToPositiveRatio
// rebalances the freshly loaded negative pool before the index is returned.
// Remaining opts fields (logger, seed) apply to the rebuilt index; its
// embedding and corpus fields are overwritten from storage.
func Load(ctx context.Context, store indexio.BlobStore, path string, factory EncoderFactory, negativeToPositiveRatio float64, opts Options) (*Index, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
		opts.Logger = log
	}
	cfg, positive, negative, err := indexio.LoadIndex(ctx, store, path, log)
	if err != nil {
		return nil, err
	}

	encoder, scale, err := factory(cfg.EncoderModelNameOrPath)
	if err != nil {
		return nil, fmt.Errorf("reconstruct encoder %q: %w", cfg.EncoderModelNameOrPath, err)
	}

	opts.PositiveEmbeddings = positive
	opts.NegativeEmbeddings = negative
	opts.Scale = scale
	opts.ModelCard = cfg.ModelCard
	// Corpora are not persisted; a loaded index carries embeddings only.
	opts.PositiveCorpus = nil
	opts.NegativeCorpus = nil
	ix, err := New(encoder, opts)
	if err != nil {
		return nil, err
	}
	if negativeToPositiveRatio > 0 {
		ix.ApplyNegativeRatio(negativeToPositiveRatio)
	}
	return ix, nil
}
