// Package indexio persists an affinity index, meaning its configuration
// document and its exemplar embedding matrices, to local or object storage.
package indexio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"sentinel/internal/embeddings"
	"sentinel/internal/tensorfile"
)

const (
	// ConfigFileName is the JSON configuration document under the index path.
	ConfigFileName = "sentinel_local_index_config.json"
	// EmbeddingsFileName is the tensor container under the index path.
	EmbeddingsFileName = "embeddings.safetensors"

	// Container entry names. Kept as positive/negative for compatibility
	// with already-persisted indexes: positive holds the rare-class rows,
	// negative the common-class rows.
	PositiveEmbeddingsKey = "positive_embeddings"
	NegativeEmbeddingsKey = "negative_embeddings"
)

// ErrCorruptIndex marks a tensor container missing a required named entry.
var ErrCorruptIndex = errors.New("indexio: corrupt index")

// SaveIndex writes the config document and the tensor container beneath
// path. The container is always staged to a local temporary file first and
// streamed to the store from there, so remote targets never see a partial
// write; any failure aborts without leaving a loadable half-index.
func SaveIndex(ctx context.Context, store BlobStore, path string, cfg SavedIndexConfig, positive, negative *embeddings.Matrix, log *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	configPath := JoinPath(path, ConfigFileName)
	embeddingsPath := JoinPath(path, EmbeddingsFileName)

	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	log.Info("saving index configuration", "path", configPath)
	if err := store.Upload(ctx, configPath, bytes.NewReader(cfgJSON)); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	tmpPath := filepath.Join(os.TempDir(), "embeddings-"+uuid.NewString()+".safetensors")
	tmp, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("stage embeddings: %w", err)
	}
	defer os.Remove(tmpPath)

	err = tensorfile.Write(tmp, map[string]*embeddings.Matrix{
		PositiveEmbeddingsKey: positive,
		NegativeEmbeddingsKey: negative,
	})
	if err != nil {
		tmp.Close()
		return fmt.Errorf("stage embeddings: %w", err)
	}
	if _, err := tmp.Seek(0, 0); err != nil {
		tmp.Close()
		return fmt.Errorf("stage embeddings: %w", err)
	}

	log.Info("saving embeddings", "path", embeddingsPath)
	if err := store.Upload(ctx, embeddingsPath, tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("save embeddings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	log.Info("saved index", "path", path)
	return nil
}

// LoadIndex is the inverse of SaveIndex. A container missing either named
// entry fails with ErrCorruptIndex rather than defaulting silently.
func LoadIndex(ctx context.Context, store BlobStore, path string, log *slog.Logger) (SavedIndexConfig, *embeddings.Matrix, *embeddings.Matrix, error) {
	var cfg SavedIndexConfig

	configPath := JoinPath(path, ConfigFileName)
	log.Info("loading index configuration", "path", configPath)
	body, err := store.Download(ctx, configPath)
	if err != nil {
		return cfg, nil, nil, fmt.Errorf("load config: %w", err)
	}
	if body == nil {
		return cfg, nil, nil, fmt.Errorf("%w: %s not found", ErrConfig, configPath)
	}
	dec := json.NewDecoder(body)
	if err := dec.Decode(&cfg); err != nil {
		body.Close()
		return cfg, nil, nil, err
	}
	if err := body.Close(); err != nil {
		return cfg, nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, nil, nil, err
	}

	embeddingsPath := JoinPath(path, EmbeddingsFileName)
	log.Info("loading embeddings", "path", embeddingsPath)
	positive, negative, err := loadEmbeddings(ctx, store, embeddingsPath)
	if err != nil {
		return cfg, nil, nil, err
	}

	log.Info("loaded index", "path", path)
	return cfg, positive, negative, nil
}

func loadEmbeddings(ctx context.Context, store BlobStore, path string) (*embeddings.Matrix, *embeddings.Matrix, error) {
	body, err := store.Download(ctx, path)
	if err != nil {
		return nil, nil, fmt.Errorf("load embeddings: %w", err)
	}
	if body == nil {
		return nil, nil, fmt.Errorf("%w: %s not found", ErrCorruptIndex, path)
	}
	defer body.Close()

	// Remote containers are staged to a temporary file before parsing, the
	// mirror of the staged write on save.
	if IsRemote(path) {
		tmpPath := filepath.Join(os.TempDir(), "embeddings-"+uuid.NewString()+".safetensors")
		tmp, err := os.Create(tmpPath)
		if err != nil {
			return nil, nil, fmt.Errorf("stage embeddings: %w", err)
		}
		defer os.Remove(tmpPath)
		defer tmp.Close()
		if _, err := tmp.ReadFrom(body); err != nil {
			return nil, nil, fmt.Errorf("stage embeddings: %w", err)
		}
		if _, err := tmp.Seek(0, 0); err != nil {
			return nil, nil, fmt.Errorf("stage embeddings: %w", err)
		}
		return splitEntries(tmp, path)
	}
	return splitEntries(body, path)
}

func splitEntries(r io.Reader, path string) (*embeddings.Matrix, *embeddings.Matrix, error) {
	tensors, err := tensorfile.Read(r)
	if err != nil {
		return nil, nil, fmt.Errorf("read embeddings container: %w", err)
	}
	positive, ok := tensors[PositiveEmbeddingsKey]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s missing entry %q", ErrCorruptIndex, path, PositiveEmbeddingsKey)
	}
	negative, ok := tensors[NegativeEmbeddingsKey]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s missing entry %q", ErrCorruptIndex, path, NegativeEmbeddingsKey)
	}
	return positive, negative, nil
}
