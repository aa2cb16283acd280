package app

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinel/internal/indexio"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	original := os.Getenv(key)
	require.NoError(t, os.Setenv(key, value))
	t.Cleanup(func() { os.Setenv(key, original) })
}

func TestBuildWithHashingEncoder(t *testing.T) {
	setEnv(t, "ENCODER_PROVIDER", "hashing")
	setEnv(t, "CACHE_PROVIDER", "noop")
	setEnv(t, "HASHING_DIM", "128")

	deps, err := Build()
	require.NoError(t, err)
	require.NotNil(t, deps.Encoder)
	require.NotNil(t, deps.Cache)

	vecs, err := deps.Encoder.Encode(context.Background(), []string{"hello world"})
	require.NoError(t, err)
	require.Len(t, vecs, 1)
	assert.Len(t, vecs[0], 128)
	assert.Equal(t, "hashing-128", deps.Encoder.ModelID())
}

func TestBuildRejectsUnknownProviders(t *testing.T) {
	setEnv(t, "ENCODER_PROVIDER", "hashing")
	setEnv(t, "CACHE_PROVIDER", "bogus")

	_, err := Build()
	require.Error(t, err)
}

func TestBuildOpenAIRequiresKey(t *testing.T) {
	setEnv(t, "ENCODER_PROVIDER", "openai")
	setEnv(t, "CACHE_PROVIDER", "noop")
	setEnv(t, "OPENAI_API_KEY", "")

	_, err := Build()
	require.Error(t, err)
}

func TestEncoderFactoryHonorsPersistedHashingDim(t *testing.T) {
	setEnv(t, "ENCODER_PROVIDER", "hashing")
	setEnv(t, "CACHE_PROVIDER", "noop")
	setEnv(t, "HASHING_DIM", "128")

	deps, err := Build()
	require.NoError(t, err)

	enc, scale, err := deps.EncoderFactory()("hashing-256")
	require.NoError(t, err)
	assert.Equal(t, "hashing-256", enc.ModelID())
	assert.Nil(t, scale)
}

func TestBlobStoreForScheme(t *testing.T) {
	setEnv(t, "ENCODER_PROVIDER", "hashing")
	setEnv(t, "CACHE_PROVIDER", "noop")
	setEnv(t, "S3_ENDPOINT", "storage.example.com")
	setEnv(t, "S3_ACCESS_KEY_ID", "key")
	setEnv(t, "S3_SECRET_ACCESS_KEY", "secret")

	deps, err := Build()
	require.NoError(t, err)

	local, err := deps.BlobStoreFor(t.TempDir())
	require.NoError(t, err)
	assert.IsType(t, &indexio.LocalStore{}, local)

	remote, err := deps.BlobStoreFor("s3://bucket/key")
	require.NoError(t, err)
	assert.IsType(t, &indexio.S3Store{}, remote)
}
