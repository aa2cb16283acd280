package embeddings

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"sentinel/internal/retry"
)

// OpenAIEncoder calls OpenAI's embeddings API.
type OpenAIEncoder struct {
	model  openai.EmbeddingModel
	client *openai.Client
}

const (
	defaultEncodeTimeout = 30 * time.Second
	encodeAttempts       = 3
	encodeBackoffBase    = 500 * time.Millisecond
)

// NewOpenAIEncoder creates a new OpenAI embedding encoder.
func NewOpenAIEncoder(apiKey string, model openai.EmbeddingModel) (*OpenAIEncoder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key required")
	}
	if model == "" {
		model = openai.EmbeddingModelTextEmbedding3Small
	}
	cli := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIEncoder{
		model:  model,
		client: &cli,
	}, nil
}

// Encode embeds a batch of texts in a single API call, retrying transient
// failures with exponential backoff.
func (e *OpenAIEncoder) Encode(ctx context.Context, texts []string) ([]Vector, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("empty batch")
	}
	ctx, cancel := context.WithTimeout(ctx, defaultEncodeTimeout)
	defer cancel()

	var resp *openai.CreateEmbeddingResponse
	err := retry.Do(ctx, encodeAttempts, encodeBackoffBase, func() error {
		var apiErr error
		resp, apiErr = e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{
				OfArrayOfStrings: texts,
			},
			Model: e.model,
		})
		return apiErr
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai embeddings: got %d vectors for %d texts", len(resp.Data), len(texts))
	}

	out := make([]Vector, len(texts))
	for _, d := range resp.Data {
		vec := make(Vector, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		out[d.Index] = vec
	}
	return out, nil
}

// ModelID returns the embedding model identifier.
func (e *OpenAIEncoder) ModelID() string {
	return string(e.model)
}
