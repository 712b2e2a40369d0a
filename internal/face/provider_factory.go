package face

import (
	"context"
	"fmt"

	"github.com/saturnino-fabrica-de-software/facegate/internal/audit"
	"github.com/saturnino-fabrica-de-software/facegate/internal/config"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider/deepface"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider/mock"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider/rekognition"
)

// ProviderType defines supported face provider types
type ProviderType string

const (
	// ProviderTypeDeepFace is the self-hosted DeepFace REST service
	ProviderTypeDeepFace ProviderType = config.ProviderDeepFace
	// ProviderTypeRekognition is AWS Rekognition (analysis only)
	ProviderTypeRekognition ProviderType = config.ProviderRekognition
	// ProviderTypeMock is the deterministic in-process provider
	ProviderTypeMock ProviderType = config.ProviderMock
)

// Providers bundles the two collaborators of the matching pipeline
type Providers struct {
	Analyzer      provider.FaceAnalyzer
	AnalyzerName  string
	Extractor     provider.EmbeddingExtractor
	ExtractorName string
}

// NewProviders builds the analyzer and extractor selected by cfg.
// When both use DeepFace a single client is shared.
//
// Environment variables:
//   - ANALYZER: "deepface", "rekognition" or "mock" (default: "deepface")
//   - EXTRACTOR: "deepface" or "mock" (default: "deepface")
//   - DEEPFACE_URL: DeepFace API URL (default: "http://localhost:5005")
//   - AWS_REGION: AWS region for Rekognition (default: "us-east-1")
//   - REKOGNITION_ENDPOINT: optional endpoint override
//   - AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY: via the AWS SDK credential chain
func NewProviders(ctx context.Context, cfg *config.Config, auditLogger audit.Logger) (*Providers, error) {
	var df *deepface.Provider
	deepFace := func() *deepface.Provider {
		if df == nil {
			df = createDeepFaceProvider(cfg)
		}
		return df
	}

	p := &Providers{
		AnalyzerName:  cfg.Analyzer,
		ExtractorName: cfg.Extractor,
	}

	switch ProviderType(cfg.Analyzer) {
	case ProviderTypeDeepFace, "":
		p.Analyzer = deepFace()
		p.AnalyzerName = string(ProviderTypeDeepFace)
	case ProviderTypeRekognition:
		analyzer, err := createRekognitionProvider(ctx, cfg, auditLogger)
		if err != nil {
			return nil, err
		}
		p.Analyzer = analyzer
	case ProviderTypeMock:
		p.Analyzer = mock.New()
	default:
		return nil, fmt.Errorf("unknown analyzer type: %s (supported: %s, %s, %s)",
			cfg.Analyzer, ProviderTypeDeepFace, ProviderTypeRekognition, ProviderTypeMock)
	}

	switch ProviderType(cfg.Extractor) {
	case ProviderTypeDeepFace, "":
		p.Extractor = deepFace()
		p.ExtractorName = string(ProviderTypeDeepFace)
	case ProviderTypeMock:
		p.Extractor = mock.New()
	default:
		return nil, fmt.Errorf("unknown extractor type: %s (supported: %s, %s)",
			cfg.Extractor, ProviderTypeDeepFace, ProviderTypeMock)
	}

	return p, nil
}

func createRekognitionProvider(ctx context.Context, cfg *config.Config, auditLogger audit.Logger) (*rekognition.Provider, error) {
	rekogConfig := rekognition.DefaultConfig()
	if cfg.AWSRegion != "" {
		rekogConfig.Region = cfg.AWSRegion
	}
	if cfg.FaceCropSize > 0 {
		rekogConfig.FaceSize = cfg.FaceCropSize
	}
	if cfg.RekognitionMinConfidence > 0 {
		rekogConfig.MinConfidence = cfg.RekognitionMinConfidence
	}
	rekogConfig.Endpoint = cfg.RekognitionEndpoint

	var opts []rekognition.ProviderOption
	if auditLogger != nil {
		opts = append(opts, rekognition.WithAuditLogger(auditLogger))
	}

	prov, err := rekognition.NewProvider(ctx, rekogConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("create rekognition provider: %w", err)
	}

	return prov, nil
}

// createDeepFaceProvider fills unset fields from deepface.DefaultConfig
func createDeepFaceProvider(cfg *config.Config) *deepface.Provider {
	dfConfig := deepface.DefaultConfig()

	if cfg.DeepFaceURL != "" {
		dfConfig.BaseURL = cfg.DeepFaceURL
	}
	if cfg.DeepFaceModel != "" {
		dfConfig.Model = cfg.DeepFaceModel
	}
	if cfg.DeepFaceDetector != "" {
		dfConfig.Detector = cfg.DeepFaceDetector
	}
	if cfg.DeepFaceTimeout > 0 {
		dfConfig.Timeout = cfg.DeepFaceTimeout
	}
	if cfg.DeepFaceRetries >= 0 {
		dfConfig.RetryCount = cfg.DeepFaceRetries
	}
	if cfg.FaceCropSize > 0 {
		dfConfig.FaceSize = cfg.FaceCropSize
	}

	return deepface.NewProvider(dfConfig)
}
