package cache

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinel/internal/embeddings"
)

// mapCache is a simple in-memory Cache for tests.
type mapCache struct {
	mu   sync.Mutex
	data map[string]embeddings.Vector
	sets int
	gets int
}

func newMapCache() *mapCache {
	return &mapCache{data: make(map[string]embeddings.Vector)}
}

func (c *mapCache) GetEmbedding(_ context.Context, key string) (embeddings.Vector, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	return c.data[key], nil
}

func (c *mapCache) SetEmbedding(_ context.Context, key string, vec embeddings.Vector, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.data[key] = vec
	return nil
}

func (c *mapCache) Close() error { return nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestKeyIncludesModel(t *testing.T) {
	assert.NotEqual(t, Key("model-a", "text"), Key("model-b", "text"))
	assert.NotEqual(t, Key("model", "text-a"), Key("model", "text-b"))
	assert.Equal(t, Key("model", "text"), Key("model", "text"))
}

func TestCachedEncoderMissThenHit(t *testing.T) {
	inner := embeddings.NewHashingEncoder(32)
	c := newMapCache()
	enc := NewCachedEncoder(inner, c, time.Minute, testLogger())

	texts := []string{"first text", "second text"}
	first, err := enc.Encode(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, 2, c.sets, "both misses should be stored")

	second, err := enc.Encode(context.Background(), texts)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 2, c.sets, "hits must not re-store")
}

func TestCachedEncoderPartialHit(t *testing.T) {
	inner := &embeddings.MockEncoder{}
	c := newMapCache()
	enc := NewCachedEncoder(inner, c, time.Minute, testLogger())

	cached := embeddings.Vector{1, 2, 3}
	require.NoError(t, c.SetEmbedding(context.Background(), Key("m", "known"), cached, time.Minute))

	inner.On("ModelID").Return("m")
	inner.On("Encode", context.Background(), []string{"unknown"}).
		Return([]embeddings.Vector{{4, 5, 6}}, nil).Once()

	got, err := enc.Encode(context.Background(), []string{"known", "unknown"})
	require.NoError(t, err)
	assert.Equal(t, cached, got[0])
	assert.Equal(t, embeddings.Vector{4, 5, 6}, got[1])
	inner.AssertExpectations(t)
}

func TestCachedEncoderAllHitsSkipsProvider(t *testing.T) {
	inner := &embeddings.MockEncoder{}
	c := newMapCache()
	enc := NewCachedEncoder(inner, c, time.Minute, testLogger())

	inner.On("ModelID").Return("m")
	require.NoError(t, c.SetEmbedding(context.Background(), Key("m", "a"), embeddings.Vector{1}, time.Minute))

	got, err := enc.Encode(context.Background(), []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, embeddings.Vector{1}, got[0])
	inner.AssertNotCalled(t, "Encode")
}

func TestNoOpCacheAlwaysMisses(t *testing.T) {
	c := NewNoOpCache()
	require.NoError(t, c.SetEmbedding(context.Background(), "k", embeddings.Vector{1}, time.Minute))
	vec, err := c.GetEmbedding(context.Background(), "k")
	require.NoError(t, err)
	assert.Nil(t, vec)
	require.NoError(t, c.Close())
}
