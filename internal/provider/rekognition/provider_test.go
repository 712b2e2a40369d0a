package rekognition

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/facegate/internal/audit"
	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

type recordingAudit struct {
	events []audit.Event
}

func (r *recordingAudit) Log(_ context.Context, event audit.Event) error {
	r.events = append(r.events, event)
	return nil
}

func testFrame(t testing.TB) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 5), B: uint8((x + y) * 2), A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func faceDetail(left, top, width, height, confidence float32) types.FaceDetail {
	return types.FaceDetail{
		BoundingBox: &types.BoundingBox{
			Left:   aws.Float32(left),
			Top:    aws.Float32(top),
			Width:  aws.Float32(width),
			Height: aws.Float32(height),
		},
		Confidence: aws.Float32(confidence),
	}
}

func newTestProvider(api RekognitionAPI, opts ...ProviderOption) *Provider {
	cfg := DefaultConfig()
	cfg.FaceSize = 32
	return newProvider(&Client{rekognition: api, config: cfg}, opts...)
}

func collect(ch <-chan domain.AnalysisEvent) []domain.AnalysisEvent {
	var events []domain.AnalysisEvent
	for ev := range ch {
		events = append(events, ev)
	}
	return events
}

func TestProvider_Analyze(t *testing.T) {
	tests := []struct {
		name       string
		output     *rekognition.DetectFacesOutput
		apiErr     error
		frame      []byte
		wantStatus domain.AnalysisStatus
		wantErr    error
		wantCalls  int
	}{
		{
			name: "single face is cropped",
			output: &rekognition.DetectFacesOutput{
				FaceDetails: []types.FaceDetail{faceDetail(0.25, 0.25, 0.5, 0.5, 99.5)},
			},
			frame:      testFrame(t),
			wantStatus: domain.AnalysisSuccess,
			wantCalls:  1,
		},
		{
			name:       "no faces",
			output:     &rekognition.DetectFacesOutput{},
			frame:      testFrame(t),
			wantStatus: domain.AnalysisError,
			wantErr:    domain.ErrNoFaceDetected,
			wantCalls:  1,
		},
		{
			name: "low confidence detections are ignored",
			output: &rekognition.DetectFacesOutput{
				FaceDetails: []types.FaceDetail{faceDetail(0.25, 0.25, 0.5, 0.5, 40)},
			},
			frame:      testFrame(t),
			wantStatus: domain.AnalysisError,
			wantErr:    domain.ErrNoFaceDetected,
			wantCalls:  1,
		},
		{
			name: "multiple faces",
			output: &rekognition.DetectFacesOutput{
				FaceDetails: []types.FaceDetail{
					faceDetail(0.0, 0.0, 0.4, 0.4, 99),
					faceDetail(0.5, 0.5, 0.4, 0.4, 98),
				},
			},
			frame:      testFrame(t),
			wantStatus: domain.AnalysisError,
			wantErr:    domain.ErrMultipleFaces,
			wantCalls:  1,
		},
		{
			name:       "invalid image format",
			apiErr:     &smithy.GenericAPIError{Code: errCodeInvalidImageFormat, Message: "bad format"},
			frame:      testFrame(t),
			wantStatus: domain.AnalysisError,
			wantErr:    domain.ErrInvalidImage,
			wantCalls:  1,
		},
		{
			name:       "throttled",
			apiErr:     &smithy.GenericAPIError{Code: errCodeThrottling, Message: "slow down"},
			frame:      testFrame(t),
			wantStatus: domain.AnalysisError,
			wantErr:    domain.ErrAnalysisFailed,
			wantCalls:  1,
		},
		{
			name:       "empty frame never reaches aws",
			frame:      nil,
			wantStatus: domain.AnalysisError,
			wantErr:    domain.ErrInvalidImage,
			wantCalls:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &mockRekognitionAPI{
				detectFacesFunc: func(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error) {
					return tt.output, tt.apiErr
				},
			}
			recorder := &recordingAudit{}
			p := newTestProvider(api, WithAuditLogger(recorder))

			events := collect(p.Analyze(context.Background(), tt.frame))

			require.Len(t, events, 2)
			assert.Equal(t, domain.AnalysisLoading, events[0].Status)
			assert.Equal(t, tt.wantStatus, events[1].Status)
			assert.Equal(t, tt.wantCalls, api.calls)

			require.Len(t, recorder.events, 1)
			assert.Equal(t, audit.EventFaceAnalyzed, recorder.events[0].EventType)
			assert.Equal(t, "rekognition", recorder.events[0].Provider)

			if tt.wantErr != nil {
				assert.ErrorIs(t, events[1].Err, tt.wantErr)
				assert.NotEmpty(t, events[1].Message)
				assert.False(t, recorder.events[0].Success)
				return
			}

			assert.True(t, recorder.events[0].Success)
			img, _, err := image.Decode(bytes.NewReader(events[1].Face))
			require.NoError(t, err)
			assert.Equal(t, 32, img.Bounds().Dx())
			assert.Equal(t, 32, img.Bounds().Dy())
		})
	}
}

func TestClient_DetectFaces_RelativeBoxes(t *testing.T) {
	api := &mockRekognitionAPI{
		detectFacesFunc: func(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error) {
			assert.Equal(t, []types.Attribute{types.AttributeDefault}, params.Attributes)
			return &rekognition.DetectFacesOutput{
				FaceDetails: []types.FaceDetail{
					faceDetail(0.1, 0.2, 0.3, 0.4, 95),
					{Confidence: aws.Float32(99)},
				},
			}, nil
		},
	}
	client := &Client{rekognition: api, config: DefaultConfig()}

	faces, err := client.DetectFaces(context.Background(), []byte("img"))
	require.NoError(t, err)
	require.Len(t, faces, 1)

	box := faces[0].BoundingBox
	assert.True(t, box.Relative)
	assert.InDelta(t, 0.1, box.X, 1e-6)
	assert.InDelta(t, 0.2, box.Y, 1e-6)
	assert.InDelta(t, 0.3, box.Width, 1e-6)
	assert.InDelta(t, 0.4, box.Height, 1e-6)
	assert.InDelta(t, 0.95, faces[0].Confidence, 1e-6)
}

func TestParseError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{"nil", nil, nil},
		{"access denied", &smithy.GenericAPIError{Code: errCodeAccessDenied}, ErrInvalidCredentials},
		{"invalid parameter", &smithy.GenericAPIError{Code: errCodeInvalidParameter}, ErrImageRejected},
		{"image too large", &smithy.GenericAPIError{Code: errCodeImageTooLarge}, ErrImageRejected},
		{"throughput", &smithy.GenericAPIError{Code: errCodeThroughput}, ErrThrottled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseError(tt.err)
			if tt.wantErr == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.wantErr)
		})
	}

	t.Run("unknown error is wrapped", func(t *testing.T) {
		base := errors.New("network down")
		got := ParseError(base)
		assert.ErrorIs(t, got, base)
		assert.Contains(t, got.Error(), "detect faces")
	})
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "us-east-1", cfg.Region)
	assert.Equal(t, float32(90), cfg.MinConfidence)
	assert.Equal(t, 160, cfg.FaceSize)
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Region = ""
	cfg.MinConfidence = 120
	err := cfg.Validate()
	assert.ErrorContains(t, err, "region is required")
	assert.ErrorContains(t, err, "outside [0, 100]")
}
