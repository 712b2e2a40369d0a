package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider"
)

const embeddingKeyPrefix = "embedding:"

// CachingExtractor memoizes embeddings by image content. The enrolled
// reference image rarely changes, so its embedding is served from cache
// on every match after the first.
type CachingExtractor struct {
	next   provider.EmbeddingExtractor
	cache  Cache
	ttl    time.Duration
	scope  string
	logger *slog.Logger
}

// NewCachingExtractor wraps next. scope separates entries of different
// models so switching extractor never serves a stale vector.
func NewCachingExtractor(next provider.EmbeddingExtractor, c Cache, ttl time.Duration, scope string, logger *slog.Logger) *CachingExtractor {
	return &CachingExtractor{
		next:   next,
		cache:  c,
		ttl:    ttl,
		scope:  scope,
		logger: logger.With("component", "embedding_cache"),
	}
}

func (e *CachingExtractor) Embed(ctx context.Context, image []byte) (domain.Embedding, error) {
	key := e.key(image)

	raw, err := e.cache.Get(ctx, key)
	switch {
	case err == nil:
		if emb, decErr := DecodeEmbedding(raw); decErr == nil {
			return emb, nil
		}
		e.logger.WarnContext(ctx, "discarding corrupt cache entry", slog.String("key", key))
	case errors.Is(err, ErrCacheMiss), errors.Is(err, ErrCacheExpired):
	default:
		e.logger.WarnContext(ctx, "embedding cache read failed", slog.String("error", err.Error()))
	}

	emb, err := e.next.Embed(ctx, image)
	if err != nil {
		return domain.Embedding{}, err
	}

	if err := e.cache.Set(ctx, key, EncodeEmbedding(emb), e.ttl); err != nil {
		e.logger.WarnContext(ctx, "embedding cache write failed", slog.String("error", err.Error()))
	}

	return emb, nil
}

// Forget drops the cached embedding of image
func (e *CachingExtractor) Forget(ctx context.Context, image []byte) error {
	return e.cache.Delete(ctx, e.key(image))
}

func (e *CachingExtractor) key(image []byte) string {
	sum := sha256.Sum256(image)
	return embeddingKeyPrefix + e.scope + ":" + hex.EncodeToString(sum[:])
}

// EncodeEmbedding serializes components as little-endian float64
func EncodeEmbedding(e domain.Embedding) []byte {
	buf := make([]byte, 8*e.Len())
	for i := 0; i < e.Len(); i++ {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(e.At(i)))
	}
	return buf
}

func DecodeEmbedding(data []byte) (domain.Embedding, error) {
	if len(data) == 0 || len(data)%8 != 0 {
		return domain.Embedding{}, fmt.Errorf("invalid embedding encoding: %d bytes", len(data))
	}
	values := make([]float64, len(data)/8)
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
	}
	return domain.NewEmbedding(values), nil
}

// StartJanitor removes expired entries every interval until ctx is done
func StartJanitor(ctx context.Context, c Cache, interval time.Duration, logger *slog.Logger) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := c.CleanupExpired(ctx)
				if err != nil {
					logger.WarnContext(ctx, "cache cleanup failed", slog.String("error", err.Error()))
					continue
				}
				if n > 0 {
					logger.DebugContext(ctx, "cache cleanup", slog.Int64("removed", n))
				}
			}
		}
	}()
}

var _ provider.EmbeddingExtractor = (*CachingExtractor)(nil)
