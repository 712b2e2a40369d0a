package provider

import (
	"context"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

// FaceAnalyzer locates the face in a captured frame
type FaceAnalyzer interface {
	// Analyze emits zero or more loading events followed by exactly one
	// success (with the cropped face image) or error event, then closes
	// the channel. Closing early is allowed when ctx is cancelled.
	Analyze(ctx context.Context, frame []byte) <-chan domain.AnalysisEvent
}

// EmbeddingExtractor turns a face image into an embedding vector
type EmbeddingExtractor interface {
	// Embed fails with domain.ErrExtractionFailed (or a wrapped provider
	// error) when the image is invalid or contains no face.
	Embed(ctx context.Context, image []byte) (domain.Embedding, error)
}

// DetectedFace represents a detected face in the image
type DetectedFace struct {
	BoundingBox BoundingBox `json:"bounding_box"`
	Confidence  float64     `json:"confidence"`
}

// BoundingBox represents the face area in the image.
// Values are relative to the frame size (0..1) when Relative is set,
// otherwise absolute pixels.
type BoundingBox struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Relative bool    `json:"relative"`
}
