package ws

import (
	"errors"
	"time"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

type EventType string

const (
	EventMatchOutcome      EventType = "match.outcome"
	EventEnrollmentUpdated EventType = "enrollment.updated"
	EventEnrollmentRemoved EventType = "enrollment.removed"
	EventFrameRejected     EventType = "frame.rejected"
)

type Event struct {
	Type EventType `json:"type"`
	// Seq is the frame number an outcome belongs to
	Seq       uint64      `json:"seq,omitempty"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

type OutcomePayload struct {
	Status   domain.OutcomeStatus `json:"status"`
	Identity string               `json:"identity,omitempty"`
	Message  string               `json:"message,omitempty"`
	Code     string               `json:"code,omitempty"`
}

func outcomePayload(o domain.Outcome) OutcomePayload {
	p := OutcomePayload{
		Status:   o.Status,
		Identity: o.Identity,
		Message:  o.Message,
	}
	var appErr *domain.AppError
	if errors.As(o.Err, &appErr) {
		p.Code = appErr.Code
	}
	return p
}

type EnrollmentPayload struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}
