package rekognition

import (
	"errors"
	"fmt"
)

type Config struct {
	Region string
	// Endpoint overrides the regional endpoint, e.g. a LocalStack URL
	Endpoint string
	// MinConfidence is on the AWS 0-100 scale; weaker detections are ignored
	MinConfidence float32
	// FaceSize is the edge of the square crop handed to the extractor
	FaceSize int
}

func DefaultConfig() Config {
	return Config{
		Region:        "us-east-1",
		MinConfidence: 90,
		FaceSize:      160,
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.Region == "" {
		errs = append(errs, errors.New("region is required"))
	}
	if c.MinConfidence < 0 || c.MinConfidence > 100 {
		errs = append(errs, fmt.Errorf("min confidence %v is outside [0, 100]", c.MinConfidence))
	}
	return errors.Join(errs...)
}
