package rekognition

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

// BenchmarkAnalyze measures local overhead of detection + crop (AWS mocked)
func BenchmarkAnalyze(b *testing.B) {
	api := &mockRekognitionAPI{
		detectFacesFunc: func(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error) {
			return &rekognition.DetectFacesOutput{
				FaceDetails: []types.FaceDetail{faceDetail(0.1, 0.2, 0.6, 0.6, 99.5)},
			}, nil
		},
	}
	p := newTestProvider(api)
	frame := testFrame(b)
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		for range p.Analyze(ctx, frame) {
		}
	}
}
