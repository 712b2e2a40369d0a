package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	ProviderDeepFace    = "deepface"
	ProviderRekognition = "rekognition"
	ProviderMock        = "mock"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`
	// LogLevel overrides the per-environment default (debug, info, warn, error)
	LogLevel string `envconfig:"LOG_LEVEL"`
	// Multipart overhead on top of the 10MB image limit
	BodyLimit int `envconfig:"BODY_LIMIT" default:"12582912"`

	// Storage. An empty STORE_DRIVER selects postgres when DATABASE_URL is set.
	DatabaseURL string `envconfig:"DATABASE_URL"`
	StoreDriver string `envconfig:"STORE_DRIVER"`

	// Providers
	Analyzer         string        `envconfig:"ANALYZER" default:"deepface"`
	Extractor        string        `envconfig:"EXTRACTOR" default:"deepface"`
	DeepFaceURL      string        `envconfig:"DEEPFACE_URL" default:"http://localhost:5005"`
	DeepFaceModel    string        `envconfig:"DEEPFACE_MODEL" default:"Facenet512"`
	DeepFaceDetector string        `envconfig:"DEEPFACE_DETECTOR" default:"retinaface"`
	DeepFaceTimeout  time.Duration `envconfig:"DEEPFACE_TIMEOUT" default:"30s"`
	DeepFaceRetries  int           `envconfig:"DEEPFACE_RETRIES" default:"3"`
	AWSRegion        string        `envconfig:"AWS_REGION" default:"us-east-1"`

	// RekognitionEndpoint points the analyzer at LocalStack or a VPC endpoint
	RekognitionEndpoint      string  `envconfig:"REKOGNITION_ENDPOINT"`
	RekognitionMinConfidence float32 `envconfig:"REKOGNITION_MIN_CONFIDENCE" default:"90"`

	FaceCropSize int `envconfig:"FACE_CROP_SIZE" default:"160"`

	// Matching
	MatchThreshold    float64       `envconfig:"MATCH_THRESHOLD" default:"0.5"`
	MatchTimeout      time.Duration `envconfig:"MATCH_TIMEOUT" default:"30s"`
	EmbeddingCacheTTL time.Duration `envconfig:"EMBEDDING_CACHE_TTL" default:"24h"`
	AttemptHistory    int           `envconfig:"ATTEMPT_HISTORY" default:"1000"`

	// Rate limiting
	RateLimitMax    int           `envconfig:"RATE_LIMIT_MAX" default:"30"`
	RateLimitWindow time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
	MatchRateLimit  int           `envconfig:"MATCH_RATE_LIMIT" default:"120"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate reports every inconsistent setting at once
func (c *Config) Validate() error {
	var errs []error

	if c.MatchThreshold < -1 || c.MatchThreshold > 1 {
		errs = append(errs, fmt.Errorf("MATCH_THRESHOLD must be within [-1, 1], got %v", c.MatchThreshold))
	}

	switch c.StoreDriver {
	case "", StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when STORE_DRIVER=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}

	switch c.Analyzer {
	case ProviderDeepFace, ProviderRekognition, ProviderMock:
	default:
		errs = append(errs, fmt.Errorf("unknown ANALYZER %q", c.Analyzer))
	}

	switch c.Extractor {
	case ProviderDeepFace, ProviderMock:
	default:
		errs = append(errs, fmt.Errorf("unknown EXTRACTOR %q (rekognition does not expose embeddings)", c.Extractor))
	}

	if c.RekognitionMinConfidence < 0 || c.RekognitionMinConfidence > 100 {
		errs = append(errs, fmt.Errorf("REKOGNITION_MIN_CONFIDENCE must be within [0, 100], got %v", c.RekognitionMinConfidence))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	if c.FaceCropSize <= 0 {
		errs = append(errs, fmt.Errorf("FACE_CROP_SIZE must be positive, got %d", c.FaceCropSize))
	}
	if c.MatchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("MATCH_TIMEOUT must be positive, got %s", c.MatchTimeout))
	}
	if c.AttemptHistory < 0 {
		errs = append(errs, fmt.Errorf("ATTEMPT_HISTORY must not be negative, got %d", c.AttemptHistory))
	}
	if c.RateLimitMax <= 0 || c.RateLimitWindow <= 0 || c.MatchRateLimit <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_MAX, RATE_LIMIT_WINDOW and MATCH_RATE_LIMIT must be positive"))
	}

	return errors.Join(errs...)
}

// Store returns the effective storage driver
func (c *Config) Store() string {
	if c.StoreDriver != "" {
		return c.StoreDriver
	}
	if c.DatabaseURL != "" {
		return StorePostgres
	}
	return StoreMemory
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
