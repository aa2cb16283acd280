package index

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinel/internal/embeddings"
	"sentinel/internal/indexio"
)

func hashingFactory(t *testing.T) EncoderFactory {
	t.Helper()
	return func(modelID string) (embeddings.Encoder, embeddings.ScaleFunc, error) {
		enc := embeddings.NewHashingEncoder(512)
		require.Equal(t, enc.ModelID(), modelID, "persisted model id must match")
		return enc, embeddings.ScalingFor(modelID), nil
	}
}

func TestEndToEndWorkflow(t *testing.T) {
	ctx := context.Background()
	enc := embeddings.NewHashingEncoder(512)

	positiveTexts := []string{
		"unsafe content detected",
		"harmful behavior observed",
		"dangerous activity identified",
		"violent content detected",
	}
	negativeTexts := []string{
		"normal behavior detected",
		"regular activity observed",
		"safe content identified",
		"standard procedure followed",
		"ordinary events occurred",
	}

	ix, err := BuildFromCorpora(ctx, enc, positiveTexts, negativeTexts, Options{
		ModelCard: map[string]any{"version": "1.0", "description": "Test model"},
	})
	require.NoError(t, err)

	dir := t.TempDir()
	store := indexio.NewLocalStore()

	savedCfg, err := ix.Save(ctx, store, dir, "", map[string]any{"normalize_embeddings": true})
	require.NoError(t, err)
	assert.Equal(t, enc.ModelID(), savedCfg.EncoderModelNameOrPath)
	assert.Equal(t, map[string]any{"version": "1.0", "description": "Test model"}, savedCfg.ModelCard)

	loaded, err := Load(ctx, store, dir, hashingFactory(t), 1.0, Options{})
	require.NoError(t, err)
	assert.Equal(t, ix.PositiveCount(), loaded.PositiveCount())
	// ratio 1.0 trims negatives down to the positive count
	assert.Equal(t, ix.PositiveCount(), loaded.NegativeCount())
	assert.Equal(t, map[string]any{"version": "1.0", "description": "Test model"}, loaded.ModelCard())

	testTexts := []string{
		"harmful unsafe behavior",
		"normal regular activity",
		"dangerous violent content",
		"unusual but safe behavior",
	}
	result, err := loaded.CalculateRareClassAffinity(ctx, testTexts, 0)
	require.NoError(t, err)
	require.Len(t, result.ObservationScores, len(testTexts))

	positiveScore := result.ObservationScores["harmful unsafe behavior"]
	negativeScore := result.ObservationScores["normal regular activity"]
	assert.Greater(t, positiveScore, negativeScore,
		"positive example should score higher than negative")
	assert.Equal(t, 0.0, negativeScore, "negative example should score zero")
}

func TestLoadedMatricesMatchWithinTolerance(t *testing.T) {
	ctx := context.Background()
	ix, err := BuildFromCorpora(ctx, embeddings.NewHashingEncoder(512),
		positiveCorpus, negativeCorpus, Options{})
	require.NoError(t, err)

	dir := t.TempDir()
	store := indexio.NewLocalStore()
	_, err = ix.Save(ctx, store, dir, "", nil)
	require.NoError(t, err)

	loaded, err := Load(ctx, store, dir, hashingFactory(t), 0, Options{})
	require.NoError(t, err)

	require.Equal(t, ix.PositiveCount(), loaded.PositiveCount())
	require.Equal(t, ix.NegativeCount(), loaded.NegativeCount())
	for i := 0; i < ix.PositiveCount(); i++ {
		for j, v := range ix.positive.Row(i) {
			assert.InDelta(t, v, loaded.positive.Row(i)[j], 1e-6)
		}
	}
	for i := 0; i < ix.NegativeCount(); i++ {
		for j, v := range ix.negative.Row(i) {
			assert.InDelta(t, v, loaded.negative.Row(i)[j], 1e-6)
		}
	}
}

func TestSaveRequiresExemplars(t *testing.T) {
	ix, err := New(embeddings.NewHashingEncoder(8), Options{})
	require.NoError(t, err)

	_, err = ix.Save(context.Background(), indexio.NewLocalStore(), t.TempDir(), "", nil)
	require.ErrorIs(t, err, ErrNoExemplars)
}
