package indexio

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrConfig marks a malformed or incomplete index configuration.
var ErrConfig = errors.New("indexio: invalid index config")

var validate = validator.New()

// SavedIndexConfig is everything needed to rebuild an index around its
// persisted embeddings: which encoder produced them, how encoding was
// parameterized, and free-form model-card metadata.
type SavedIndexConfig struct {
	EncoderModelNameOrPath string         `validate:"required"`
	EncodingKwargs         map[string]any
	ModelCard              map[string]any
}

// savedIndexConfigJSON is the on-disk schema. EncodingKwargs travels as a
// JSON string inside the JSON document; that nesting is part of the stored
// format and must be preserved for existing indexes to keep loading.
type savedIndexConfigJSON struct {
	EncoderModelNameOrPath string         `json:"encoder_model_name_or_path"`
	EncodingKwargs         string         `json:"encoding_kwargs"`
	ModelCard              map[string]any `json:"model_card"`
}

func (c SavedIndexConfig) MarshalJSON() ([]byte, error) {
	kwargs := c.EncodingKwargs
	if kwargs == nil {
		kwargs = map[string]any{}
	}
	kwargsJSON, err := json.Marshal(kwargs)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding kwargs: %v", ErrConfig, err)
	}
	card := c.ModelCard
	if card == nil {
		card = map[string]any{}
	}
	return json.Marshal(savedIndexConfigJSON{
		EncoderModelNameOrPath: c.EncoderModelNameOrPath,
		EncodingKwargs:         string(kwargsJSON),
		ModelCard:              card,
	})
}

func (c *SavedIndexConfig) UnmarshalJSON(data []byte) error {
	var raw savedIndexConfigJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}
	kwargs := map[string]any{}
	if raw.EncodingKwargs != "" {
		if err := json.Unmarshal([]byte(raw.EncodingKwargs), &kwargs); err != nil {
			return fmt.Errorf("%w: encoding kwargs: %v", ErrConfig, err)
		}
	}
	card := raw.ModelCard
	if card == nil {
		card = map[string]any{}
	}
	*c = SavedIndexConfig{
		EncoderModelNameOrPath: raw.EncoderModelNameOrPath,
		EncodingKwargs:         kwargs,
		ModelCard:              card,
	}
	return nil
}

// Validate checks required fields, wrapping failures in ErrConfig.
func (c SavedIndexConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}
	return nil
}
