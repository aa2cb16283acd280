package indexio

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSavedIndexConfigRoundTrip(t *testing.T) {
	cfg := SavedIndexConfig{
		EncoderModelNameOrPath: "all-MiniLM-L6-v2",
		EncodingKwargs:         map[string]any{"normalize_embeddings": true},
		ModelCard:              map[string]any{"version": "1.0", "description": "Test model"},
	}

	data, err := json.Marshal(cfg)
	require.NoError(t, err)

	var got SavedIndexConfig
	require.NoError(t, json.Unmarshal(data, &got))

	assert.Equal(t, cfg.EncoderModelNameOrPath, got.EncoderModelNameOrPath)
	assert.Equal(t, cfg.EncodingKwargs, got.EncodingKwargs)
	assert.Equal(t, cfg.ModelCard, got.ModelCard)
}

func TestSavedIndexConfigKwargsStoredAsString(t *testing.T) {
	cfg := SavedIndexConfig{
		EncoderModelNameOrPath: "all-MiniLM-L6-v2",
		EncodingKwargs:         map[string]any{"normalize_embeddings": true},
	}

	data, err := json.Marshal(cfg)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	// The kwargs field is a JSON string inside the document; that nesting
	// is part of the persisted format.
	kwargs, ok := raw["encoding_kwargs"].(string)
	require.True(t, ok, "encoding_kwargs must serialize as a string")
	assert.JSONEq(t, `{"normalize_embeddings":true}`, kwargs)
}

func TestSavedIndexConfigDefaultsEmptyMaps(t *testing.T) {
	cfg := SavedIndexConfig{EncoderModelNameOrPath: "all-MiniLM-L6-v2"}

	data, err := json.Marshal(cfg)
	require.NoError(t, err)

	var got SavedIndexConfig
	require.NoError(t, json.Unmarshal(data, &got))

	assert.NotNil(t, got.EncodingKwargs)
	assert.Empty(t, got.EncodingKwargs)
	assert.NotNil(t, got.ModelCard)
	assert.Empty(t, got.ModelCard)
}

func TestSavedIndexConfigValidate(t *testing.T) {
	err := SavedIndexConfig{}.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfig))

	require.NoError(t, SavedIndexConfig{EncoderModelNameOrPath: "m"}.Validate())
}

func TestSavedIndexConfigRejectsMalformedKwargs(t *testing.T) {
	doc := `{"encoder_model_name_or_path":"m","encoding_kwargs":"{not json","model_card":{}}`
	var cfg SavedIndexConfig
	err := json.Unmarshal([]byte(doc), &cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfig))
}
