package app

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/openai/openai-go/v3"

	"sentinel/internal/cache"
	"sentinel/internal/config"
	"sentinel/internal/embeddings"
	"sentinel/internal/index"
	"sentinel/internal/indexio"
	"sentinel/internal/logger"
)

// Deps bundles common runtime dependencies.
type Deps struct {
	Config  config.Config
	Log     *slog.Logger
	Encoder embeddings.Encoder
	Cache   cache.Cache
}

// Build loads env, config, and shared components.
func Build() (Deps, error) {
	// A .env file is optional; environment variables alone are fine.
	_ = godotenv.Load()
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	c, err := buildCache(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize cache: %w", err)
	}
	encoder, err := buildEncoder(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize encoder: %w", err)
	}
	if cfg.CacheProvider == "redis" {
		encoder = cache.NewCachedEncoder(encoder, c, cfg.CacheTTL, log)
	}
	return Deps{
		Config:  cfg,
		Log:     log,
		Encoder: encoder,
		Cache:   c,
	}, nil
}

// EncoderFactory returns the factory used to reconstruct an encoder from a
// persisted index config. Scaling comes from the model family.
func (d Deps) EncoderFactory() index.EncoderFactory {
	return func(modelID string) (embeddings.Encoder, embeddings.ScaleFunc, error) {
		enc, err := encoderFor(d.Config, modelID)
		if err != nil {
			return nil, nil, err
		}
		return enc, embeddings.ScalingFor(modelID), nil
	}
}

// BlobStoreFor picks the transport matching the path scheme. S3 credentials
// come from config and are handed to the store explicitly.
func (d Deps) BlobStoreFor(path string) (indexio.BlobStore, error) {
	if !indexio.IsRemote(path) {
		return indexio.NewLocalStore(), nil
	}
	store, err := indexio.NewS3Store(indexio.S3Options{
		Endpoint:        d.Config.S3Endpoint,
		AccessKeyID:     d.Config.S3AccessKeyID,
		SecretAccessKey: d.Config.S3SecretAccessKey,
		Region:          d.Config.S3Region,
		UseSSL:          d.Config.S3UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize S3 store: %w", err)
	}
	return store, nil
}

func buildCache(cfg config.Config, log *slog.Logger) (cache.Cache, error) {
	switch cfg.CacheProvider {
	case "redis":
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("REDIS_ADDR is required when CACHE_PROVIDER=redis")
		}
		c, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return nil, err
		}
		log.Info("using Redis embedding cache", "addr", cfg.RedisAddr)
		return c, nil
	case "noop":
		return cache.NewNoOpCache(), nil
	default:
		return nil, fmt.Errorf("invalid CACHE_PROVIDER: %s (valid options: redis, noop)", cfg.CacheProvider)
	}
}

func buildEncoder(cfg config.Config, log *slog.Logger) (embeddings.Encoder, error) {
	enc, err := encoderFor(cfg, cfg.EmbeddingModel)
	if err != nil {
		return nil, err
	}
	log.Info("using encoder", "provider", cfg.EncoderProvider, "model", enc.ModelID())
	return enc, nil
}

func encoderFor(cfg config.Config, modelID string) (embeddings.Encoder, error) {
	switch cfg.EncoderProvider {
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when ENCODER_PROVIDER=openai")
		}
		return embeddings.NewOpenAIEncoder(cfg.OpenAIKey, openai.EmbeddingModel(modelID))
	case "hashing":
		// Persisted hashing model IDs carry their dimension; honor it so a
		// loaded index scores against vectors of the right width.
		if dim, ok := strings.CutPrefix(modelID, "hashing-"); ok {
			if n, err := strconv.Atoi(dim); err == nil {
				return embeddings.NewHashingEncoder(n), nil
			}
		}
		return embeddings.NewHashingEncoder(cfg.HashingDim), nil
	default:
		return nil, fmt.Errorf("invalid ENCODER_PROVIDER: %s (valid options: openai, hashing)", cfg.EncoderProvider)
	}
}
