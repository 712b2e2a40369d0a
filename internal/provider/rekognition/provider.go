package rekognition

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/saturnino-fabrica-de-software/facegate/internal/audit"
	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
	"github.com/saturnino-fabrica-de-software/facegate/internal/imaging"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider"
)

// maxImageSize is the maximum image size supported by AWS Rekognition (5MB)
const maxImageSize = 5 * 1024 * 1024

// Provider implements provider.FaceAnalyzer using AWS Rekognition DetectFaces.
// Rekognition does not expose embeddings, so extraction is left to another provider.
type Provider struct {
	client        *Client
	faceSize      int
	minConfidence float64
	auditLogger   audit.Logger
}

// ProviderOption defines optional configuration for Provider
type ProviderOption func(*Provider)

// WithAuditLogger sets the audit logger for the provider
func WithAuditLogger(logger audit.Logger) ProviderOption {
	return func(p *Provider) {
		p.auditLogger = logger
	}
}

var _ provider.FaceAnalyzer = (*Provider)(nil)

// NewProvider creates a new Rekognition analyzer
func NewProvider(ctx context.Context, cfg Config, opts ...ProviderOption) (*Provider, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create rekognition client: %w", err)
	}
	return newProvider(client, opts...), nil
}

func newProvider(client *Client, opts ...ProviderOption) *Provider {
	faceSize := client.config.FaceSize
	if faceSize <= 0 {
		faceSize = imaging.DefaultFaceSize
	}

	p := &Provider{
		client:        client,
		faceSize:      faceSize,
		minConfidence: float64(client.config.MinConfidence) / 100.0,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// logAudit logs an audit event if an audit logger is configured
// Audit failure does not affect the operation (fire-and-forget)
func (p *Provider) logAudit(ctx context.Context, success bool, err error, metadata map[string]string) {
	if p.auditLogger == nil {
		return
	}

	event := audit.Event{
		EventType: audit.EventFaceAnalyzed,
		Provider:  "rekognition",
		Success:   success,
		Metadata:  metadata,
		IPAddress: audit.IPAddressFrom(ctx),
	}

	if err != nil {
		event.Error = err.Error()
	}

	_ = p.auditLogger.Log(ctx, event)
}

func validateImage(image []byte) error {
	if len(image) == 0 {
		return domain.ErrInvalidImage
	}
	if len(image) > maxImageSize {
		return domain.ErrInvalidImage.WithError(
			fmt.Errorf("image too large (%d bytes, maximum %d)", len(image), maxImageSize))
	}
	return nil
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
	metadata := map[string]string{
		"image_size": strconv.Itoa(len(frame)),
	}

	if err := validateImage(frame); err != nil {
		p.logAudit(ctx, false, err, metadata)
		return nil, err
	}

	detected, err := p.client.DetectFaces(ctx, frame)
	if err != nil {
		if errors.Is(err, ErrImageRejected) {
			err = domain.ErrInvalidImage.WithError(err)
		} else {
			err = domain.ErrAnalysisFailed.WithError(err)
		}
		p.logAudit(ctx, false, err, metadata)
		return nil, err
	}

	faces := make([]provider.DetectedFace, 0, len(detected))
	for _, f := range detected {
		if f.Confidence >= p.minConfidence {
			faces = append(faces, f)
		}
	}
	metadata["faces_count"] = strconv.Itoa(len(faces))

	switch len(faces) {
	case 0:
		p.logAudit(ctx, false, domain.ErrNoFaceDetected, metadata)
		return nil, domain.ErrNoFaceDetected
	case 1:
	default:
		p.logAudit(ctx, false, domain.ErrMultipleFaces, metadata)
		return nil, domain.ErrMultipleFaces
	}

	face, err := imaging.CropFace(frame, faces[0].BoundingBox, p.faceSize)
	if err != nil {
		p.logAudit(ctx, false, err, metadata)
		return nil, err
	}

	metadata["confidence"] = fmt.Sprintf("%.4f", faces[0].Confidence)
	p.logAudit(ctx, true, nil, metadata)

	return face, nil
}
