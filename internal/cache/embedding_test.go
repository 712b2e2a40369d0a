package cache

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

type mockExtractor struct {
	mock.Mock
}

func (m *mockExtractor) Embed(ctx context.Context, image []byte) (domain.Embedding, error) {
	args := m.Called(ctx, image)
	return args.Get(0).(domain.Embedding), args.Error(1)
}

type failingCache struct {
	MemoryCache
}

func (f *failingCache) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("cache down")
}

func (f *failingCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("cache down")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestCachingExtractor_ServesSecondCallFromCache(t *testing.T) {
	ctx := context.Background()
	image := []byte("reference image")
	want := domain.NewEmbedding([]float64{0.1, -0.2, 0.3})

	next := &mockExtractor{}
	next.On("Embed", mock.Anything, image).Return(want, nil).Once()

	extractor := NewCachingExtractor(next, NewMemoryCache(), time.Hour, "mock", discardLogger())

	first, err := extractor.Embed(ctx, image)
	require.NoError(t, err)
	second, err := extractor.Embed(ctx, image)
	require.NoError(t, err)

	assert.Equal(t, want.Values(), first.Values())
	assert.Equal(t, want.Values(), second.Values())
	next.AssertExpectations(t)
}

func TestCachingExtractor_ScopeSeparatesEntries(t *testing.T) {
	ctx := context.Background()
	image := []byte("reference image")
	shared := NewMemoryCache()

	a := &mockExtractor{}
	a.On("Embed", mock.Anything, image).Return(domain.NewEmbedding([]float64{1, 0}), nil).Once()
	b := &mockExtractor{}
	b.On("Embed", mock.Anything, image).Return(domain.NewEmbedding([]float64{0, 1}), nil).Once()

	ea, err := NewCachingExtractor(a, shared, time.Hour, "facenet", discardLogger()).Embed(ctx, image)
	require.NoError(t, err)
	eb, err := NewCachingExtractor(b, shared, time.Hour, "arcface", discardLogger()).Embed(ctx, image)
	require.NoError(t, err)

	assert.NotEqual(t, ea.Values(), eb.Values())
	a.AssertExpectations(t)
	b.AssertExpectations(t)
}

func TestCachingExtractor_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	image := []byte("img")

	next := &mockExtractor{}
	next.On("Embed", mock.Anything, image).Return(domain.Embedding{}, domain.ErrExtractionFailed).Twice()

	extractor := NewCachingExtractor(next, NewMemoryCache(), time.Hour, "mock", discardLogger())

	_, err := extractor.Embed(ctx, image)
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
	_, err = extractor.Embed(ctx, image)
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
	next.AssertExpectations(t)
}

func TestCachingExtractor_CacheFailureFallsThrough(t *testing.T) {
	ctx := context.Background()
	image := []byte("img")
	want := domain.NewEmbedding([]float64{1, 2})

	next := &mockExtractor{}
	next.On("Embed", mock.Anything, image).Return(want, nil).Twice()

	extractor := NewCachingExtractor(next, &failingCache{}, time.Hour, "mock", discardLogger())

	for i := 0; i < 2; i++ {
		got, err := extractor.Embed(ctx, image)
		require.NoError(t, err)
		assert.Equal(t, want.Values(), got.Values())
	}
	next.AssertExpectations(t)
}

func TestCachingExtractor_Forget(t *testing.T) {
	ctx := context.Background()
	image := []byte("img")

	next := &mockExtractor{}
	next.On("Embed", mock.Anything, image).Return(domain.NewEmbedding([]float64{1}), nil).Twice()

	extractor := NewCachingExtractor(next, NewMemoryCache(), time.Hour, "mock", discardLogger())

	_, err := extractor.Embed(ctx, image)
	require.NoError(t, err)
	require.NoError(t, extractor.Forget(ctx, image))
	_, err = extractor.Embed(ctx, image)
	require.NoError(t, err)

	next.AssertExpectations(t)
}

func TestEmbeddingEncoding(t *testing.T) {
	emb := domain.NewEmbedding([]float64{0, -1.5, 3.25, 1e-9})

	decoded, err := DecodeEmbedding(EncodeEmbedding(emb))
	require.NoError(t, err)
	assert.Equal(t, emb.Values(), decoded.Values())

	_, err = DecodeEmbedding([]byte{1, 2, 3})
	assert.Error(t, err)
	_, err = DecodeEmbedding(nil)
	assert.Error(t, err)
}
