package deepface

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
	"github.com/saturnino-fabrica-de-software/facegate/internal/imaging"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider"
)

// Provider implements provider.FaceAnalyzer and provider.EmbeddingExtractor
// on top of the DeepFace /represent endpoint
type Provider struct {
	client   *Client
	faceSize int
}

// NewProvider creates a new DeepFace provider
func NewProvider(config Config) *Provider {
	faceSize := config.FaceSize
	if faceSize <= 0 {
		faceSize = imaging.DefaultFaceSize
	}
	return &Provider{
		client:   NewClient(config),
		faceSize: faceSize,
	}
}

// Embed extracts the embedding of the first face found in image
func (p *Provider) Embed(ctx context.Context, image []byte) (domain.Embedding, error) {
	if len(image) == 0 {
		return domain.Embedding{}, domain.ErrInvalidImage
	}

	// Analyze already cropped the face; detection is not enforced so a tight
	// crop is still embedded.
	resp, err := p.client.Represent(ctx, base64.StdEncoding.EncodeToString(image), false)
	if err != nil {
		return domain.Embedding{}, domain.ErrExtractionFailed.WithError(fmt.Errorf("represent: %w", err))
	}

	if len(resp.Results) == 0 {
		return domain.Embedding{}, domain.ErrExtractionFailed.WithError(ErrNoFaceInResponse)
	}

	if len(resp.Results[0].Embedding) == 0 {
		return domain.Embedding{}, domain.ErrExtractionFailed.WithError(ErrEmptyEmbedding)
	}

	return domain.NewEmbedding(resp.Results[0].Embedding), nil
}

// Analyze detects the single face in frame and emits its cropped image
func (p *Provider) Analyze(ctx context.Context, frame []byte) <-chan domain.AnalysisEvent {
	return provider.Stream(ctx, func(ctx context.Context) domain.AnalysisEvent {
		face, err := p.detect(ctx, frame)
		if err != nil {
			return domain.AnalysisFailed(domain.MessageOf(err, domain.ErrAnalysisFailed.Message), err)
		}
		return domain.AnalysisDetected(face)
	})
}

func (p *Provider) detect(ctx context.Context, frame []byte) ([]byte, error) {
	if len(frame) == 0 {
		return nil, domain.ErrInvalidImage
	}

	resp, err := p.client.Represent(ctx, base64.StdEncoding.EncodeToString(frame), true)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusBadRequest {
			// enforce_detection makes DeepFace reject frames without a face
			return nil, domain.ErrNoFaceDetected.WithError(err)
		}
		return nil, domain.ErrAnalysisFailed.WithError(err)
	}

	switch len(resp.Results) {
	case 0:
		return nil, domain.ErrNoFaceDetected
	case 1:
	default:
		return nil, domain.ErrMultipleFaces
	}

	area := resp.Results[0].FacialArea
	box := provider.BoundingBox{
		X:      float64(area.X),
		Y:      float64(area.Y),
		Width:  float64(area.W),
		Height: float64(area.H),
	}

	return imaging.CropFace(frame, box, p.faceSize)
}

var (
	_ provider.FaceAnalyzer       = (*Provider)(nil)
	_ provider.EmbeddingExtractor = (*Provider)(nil)
)
