package service

import (
	"context"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider"
)

// awaitFace drains an analysis stream and returns the detected face crop
func awaitFace(ctx context.Context, analyzer provider.FaceAnalyzer, image []byte) ([]byte, error) {
	for ev := range analyzer.Analyze(ctx, image) {
		switch ev.Status {
		case domain.AnalysisSuccess:
			return ev.Face, nil
		case domain.AnalysisError:
			return nil, analysisError(ev)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, domain.ErrAnalysisFailed
}

func analysisError(ev domain.AnalysisEvent) error {
	if ev.Err != nil {
		return ev.Err
	}
	return domain.ErrAnalysisFailed
}

func analysisMessage(ev domain.AnalysisEvent) string {
	if ev.Message != "" {
		return ev.Message
	}
	return domain.MessageOf(ev.Err, domain.MessageUnknownError)
}
