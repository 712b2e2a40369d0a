package mock

import (
	"context"
	"crypto/sha256"
	"math"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider"
)

const embeddingDimension = 512

// Provider implements provider.FaceAnalyzer and provider.EmbeddingExtractor
// for development and tests. The whole frame is treated as the face and
// embeddings are derived from the image hash, so identical images always
// match and different images almost never do.
type Provider struct{}

// New creates a new mock provider
func New() *Provider {
	return &Provider{}
}

// Analyze emits the frame itself as the detected face
func (p *Provider) Analyze(ctx context.Context, frame []byte) <-chan domain.AnalysisEvent {
	return provider.Stream(ctx, func(ctx context.Context) domain.AnalysisEvent {
		if len(frame) == 0 {
			return domain.AnalysisFailed(domain.ErrInvalidImage.Message, domain.ErrInvalidImage)
		}
		face := make([]byte, len(frame))
		copy(face, frame)
		return domain.AnalysisDetected(face)
	})
}

// Embed generates a deterministic embedding from the image hash
func (p *Provider) Embed(ctx context.Context, image []byte) (domain.Embedding, error) {
	if err := ctx.Err(); err != nil {
		return domain.Embedding{}, err
	}
	if len(image) == 0 {
		return domain.Embedding{}, domain.ErrExtractionFailed.WithError(domain.ErrInvalidImage)
	}
	return domain.NewEmbedding(generateEmbedding(image)), nil
}

// generateEmbedding returns a unit-length vector seeded by the image hash
func generateEmbedding(image []byte) []float64 {
	hash := sha256.Sum256(image)
	embedding := make([]float64, embeddingDimension)
	hashLen := len(hash)

	for i := 0; i < embeddingDimension; i++ {
		idx := i % hashLen
		//nolint:gosec // idx is always < hashLen due to modulo operation
		embedding[i] = (float64(hash[idx])/255.0)*2 - 1
	}

	norm := 0.0
	for _, v := range embedding {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	for i := range embedding {
		embedding[i] /= norm
	}

	return embedding
}

var (
	_ provider.FaceAnalyzer       = (*Provider)(nil)
	_ provider.EmbeddingExtractor = (*Provider)(nil)
)
