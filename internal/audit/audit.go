// Package audit records operations on biometric data. Images and
// embeddings never appear in an event.
package audit

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventFaceAnalyzed      EventType = "face.analyzed"
	EventFaceEnrolled      EventType = "face.enrolled"
	EventEnrollmentRemoved EventType = "enrollment.removed"
	EventFaceMatched       EventType = "face.matched"
)

type Event struct {
	ID           uuid.UUID         `json:"id"`
	Timestamp    time.Time         `json:"timestamp"`
	EventType    EventType         `json:"event_type"`
	EnrollmentID string            `json:"enrollment_id,omitempty"`
	Provider     string            `json:"provider"`
	Success      bool              `json:"success"`
	Error        string            `json:"error,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	IPAddress    string            `json:"ip_address,omitempty"`
}

// LogValue renders the event as a group with empty optional fields left out
func (e Event) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("id", e.ID.String()),
		slog.Time("timestamp", e.Timestamp),
		slog.String("type", string(e.EventType)),
		slog.String("provider", e.Provider),
		slog.Bool("success", e.Success),
	}
	if e.EnrollmentID != "" {
		attrs = append(attrs, slog.String("enrollment_id", e.EnrollmentID))
	}
	if e.Error != "" {
		attrs = append(attrs, slog.String("error", e.Error))
	}
	if e.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", e.IPAddress))
	}
	if len(e.Metadata) > 0 {
		keys := make([]string, 0, len(e.Metadata))
		for k := range e.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		meta := make([]any, 0, len(keys))
		for _, k := range keys {
			meta = append(meta, slog.String(k, e.Metadata[k]))
		}
		attrs = append(attrs, slog.Group("metadata", meta...))
	}
	return slog.GroupValue(attrs...)
}

type Logger interface {
	Log(ctx context.Context, event Event) error
}

// SlogLogger writes one "audit" record per event
type SlogLogger struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	return &SlogLogger{
		logger: logger.With(slog.String("component", "audit")),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Log fills in the ID, timestamp and client address when the caller left
// them empty
func (l *SlogLogger) Log(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = l.now()
	}
	if event.IPAddress == "" {
		event.IPAddress = IPAddressFrom(ctx)
	}

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}
	l.logger.LogAttrs(ctx, level, "audit", slog.Any("event", event))

	return nil
}

type NoOpLogger struct{}

func (l *NoOpLogger) Log(context.Context, Event) error {
	return nil
}

type ipKey struct{}

func WithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ipKey{}, ip)
}

// IPAddressFrom returns the address stored by WithIPAddress, or ""
func IPAddressFrom(ctx context.Context) string {
	ip, _ := ctx.Value(ipKey{}).(string)
	return ip
}
