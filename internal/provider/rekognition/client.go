package rekognition

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/aws/smithy-go"

	"github.com/saturnino-fabrica-de-software/facegate/internal/provider"
)

const (
	errCodeAccessDenied       = "AccessDeniedException"
	errCodeInvalidParameter   = "InvalidParameterException"
	errCodeInvalidImageFormat = "InvalidImageFormatException"
	errCodeImageTooLarge      = "ImageTooLargeException"
	errCodeThrottling         = "ThrottlingException"
	errCodeThroughput         = "ProvisionedThroughputExceededException"
)

// RekognitionAPI is the subset of the AWS Rekognition client used by the analyzer
type RekognitionAPI interface {
	DetectFaces(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error)
}

// Client wraps the AWS Rekognition client
type Client struct {
	rekognition RekognitionAPI
	config      Config
}

// NewClient authenticates through the AWS default credential chain
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("rekognition config: %w", err)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	api := rekognition.NewFromConfig(awsCfg, func(o *rekognition.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return &Client{rekognition: api, config: cfg}, nil
}

// DetectFaces returns every face Rekognition finds in image.
// Bounding boxes are relative to the frame size.
func (c *Client) DetectFaces(ctx context.Context, image []byte) ([]provider.DetectedFace, error) {
	input := &rekognition.DetectFacesInput{
		Image: &types.Image{
			Bytes: image,
		},
		Attributes: []types.Attribute{types.AttributeDefault},
	}

	output, err := c.rekognition.DetectFaces(ctx, input)
	if err != nil {
		return nil, ParseError(err)
	}

	faces := make([]provider.DetectedFace, 0, len(output.FaceDetails))
	for _, detail := range output.FaceDetails {
		if detail.BoundingBox == nil {
			continue
		}
		faces = append(faces, provider.DetectedFace{
			BoundingBox: provider.BoundingBox{
				X:        float64(aws.ToFloat32(detail.BoundingBox.Left)),
				Y:        float64(aws.ToFloat32(detail.BoundingBox.Top)),
				Width:    float64(aws.ToFloat32(detail.BoundingBox.Width)),
				Height:   float64(aws.ToFloat32(detail.BoundingBox.Height)),
				Relative: true,
			},
			Confidence: float64(aws.ToFloat32(detail.Confidence)) / 100.0,
		})
	}

	return faces, nil
}

// ParseError maps AWS API error codes onto the package errors
func ParseError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case errCodeAccessDenied:
			return fmt.Errorf("%w: %s", ErrInvalidCredentials, apiErr.ErrorMessage())
		case errCodeInvalidParameter, errCodeInvalidImageFormat, errCodeImageTooLarge:
			return fmt.Errorf("%w: %s", ErrImageRejected, apiErr.ErrorMessage())
		case errCodeThrottling, errCodeThroughput:
			return fmt.Errorf("%w: %s", ErrThrottled, apiErr.ErrorMessage())
		}
	}

	return fmt.Errorf("detect faces: %w", err)
}
