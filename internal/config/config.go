package config

import (
	"log/slog"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds minimal runtime configuration. Extend as needed.
type Config struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Encoder
	EncoderProvider string `env:"ENCODER_PROVIDER" envDefault:"openai"` // "openai" (uses OpenAI API) or "hashing" (deterministic, offline)
	OpenAIKey       string `env:"OPENAI_API_KEY"`
	EmbeddingModel  string `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	HashingDim      int    `env:"HASHING_DIM" envDefault:"512"`

	// Embedding cache
	CacheProvider string        `env:"CACHE_PROVIDER" envDefault:"noop"` // "redis" or "noop"
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	CacheTTL      time.Duration `env:"CACHE_TTL" envDefault:"24h"`

	// Index defaults
	NegativeRatio float64 `env:"NEGATIVE_RATIO" envDefault:"1"` // negative-to-positive rebalance applied on load

	// Object storage transport. Passed explicitly to the S3 store; the
	// persistence layer itself never reads the environment.
	S3Endpoint        string `env:"S3_ENDPOINT"`
	S3AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
	S3Region          string `env:"S3_REGION"`
	S3UseSSL          bool   `env:"S3_USE_SSL" envDefault:"true"`
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	return cfg
}
