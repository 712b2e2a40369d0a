package domain

import (
	"time"

	"github.com/google/uuid"
)

// Embedding is a fixed-length face descriptor produced by an embedding model.
// The backing slice is never exposed, so an Embedding cannot change after
// it has been created.
type Embedding struct {
	values []float64
}

// NewEmbedding copies values into a new Embedding
func NewEmbedding(values []float64) Embedding {
	if len(values) == 0 {
		return Embedding{}
	}
	cp := make([]float64, len(values))
	copy(cp, values)
	return Embedding{values: cp}
}

// Len returns the dimension of the embedding
func (e Embedding) Len() int {
	return len(e.values)
}

// At returns the i-th component
func (e Embedding) At(i int) float64 {
	return e.values[i]
}

// Values returns a copy of the components
func (e Embedding) Values() []float64 {
	if len(e.values) == 0 {
		return nil
	}
	cp := make([]float64, len(e.values))
	copy(cp, e.values)
	return cp
}

// IsEmpty reports whether the embedding has no components
func (e Embedding) IsEmpty() bool {
	return len(e.values) == 0
}

// EnrolledFace is the single reference identity live captures are matched against
type EnrolledFace struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Image       []byte    `json:"-"`
	ContentType string    `json:"content_type"`
	// Embedding is the reference embedding captured at enrollment time.
	// It may be empty for records written before embeddings were stored.
	Embedding Embedding `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MatchAttempt is an audit record of one terminal match outcome
type MatchAttempt struct {
	ID             uuid.UUID  `json:"id"`
	EnrolledFaceID *uuid.UUID `json:"enrolled_face_id,omitempty"`
	Result         MatchKind  `json:"result"`
	Identity       string     `json:"identity,omitempty"`
	Reason         string     `json:"reason,omitempty"`
	Score          *float64   `json:"score,omitempty"`
	Threshold      float64    `json:"threshold"`
	LatencyMs      int64      `json:"latency_ms"`
	CreatedAt      time.Time  `json:"created_at"`
}
