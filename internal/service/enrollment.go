package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/saturnino-fabrica-de-software/facegate/internal/audit"
	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider"
	"github.com/saturnino-fabrica-de-software/facegate/internal/repository"
)

const (
	MaxNameLength = 255
	MaxImageSize  = 10 * 1024 * 1024
)

// Forgetter drops a cached embedding for an image
type Forgetter interface {
	Forget(ctx context.Context, image []byte) error
}

// Notifier is told about enrollment changes. face is nil after a removal.
type Notifier interface {
	EnrollmentChanged(ctx context.Context, face *domain.EnrolledFace)
}

// EnrollmentService manages the single reference face
type EnrollmentService struct {
	analyzer    provider.FaceAnalyzer
	extractor   provider.EmbeddingExtractor
	store       repository.EnrollmentStore
	forgetter   Forgetter
	notifier    Notifier
	auditLogger audit.Logger
	logger      *slog.Logger
	provider    string
}

type EnrollmentOption func(*EnrollmentService)

// WithEmbeddingCache evicts the reference embedding of a replaced or
// removed enrollment
func WithEmbeddingCache(f Forgetter) EnrollmentOption {
	return func(s *EnrollmentService) {
		s.forgetter = f
	}
}

func WithEnrollmentNotifier(n Notifier) EnrollmentOption {
	return func(s *EnrollmentService) {
		s.notifier = n
	}
}

func WithEnrollmentAudit(logger audit.Logger, providerName string) EnrollmentOption {
	return func(s *EnrollmentService) {
		s.auditLogger = logger
		s.provider = providerName
	}
}

func WithEnrollmentLogger(logger *slog.Logger) EnrollmentOption {
	return func(s *EnrollmentService) {
		s.logger = logger
	}
}

func NewEnrollmentService(
	analyzer provider.FaceAnalyzer,
	extractor provider.EmbeddingExtractor,
	store repository.EnrollmentStore,
	opts ...EnrollmentOption,
) *EnrollmentService {
	s := &EnrollmentService{
		analyzer:    analyzer,
		extractor:   extractor,
		store:       store,
		auditLogger: &audit.NoOpLogger{},
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "enrollment")

	return s
}

// Enroll replaces the enrolled face. The analyzer must find exactly one face
// in image; the stored reference image is that face's crop.
func (s *EnrollmentService) Enroll(ctx context.Context, name string, image []byte) (*domain.EnrolledFace, error) {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return nil, err
	}
	if len(image) == 0 {
		return nil, domain.ErrInvalidImage.WithError(errors.New("image is empty"))
	}
	if len(image) > MaxImageSize {
		return nil, domain.ErrInvalidImage.WithError(fmt.Errorf("image exceeds %d bytes", MaxImageSize))
	}

	crop, err := awaitFace(ctx, s.analyzer, image)
	if err != nil {
		s.audit(ctx, audit.EventFaceEnrolled, "", err)
		return nil, err
	}

	emb, err := s.extractor.Embed(ctx, crop)
	if err != nil {
		s.audit(ctx, audit.EventFaceEnrolled, "", err)
		var appErr *domain.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, domain.ErrExtractionFailed.WithError(err)
	}

	previous, hadPrevious, err := s.store.Get(ctx)
	if err != nil {
		return nil, domain.ErrInternal.WithError(fmt.Errorf("load enrolled face: %w", err))
	}

	face := &domain.EnrolledFace{
		Name:        name,
		Image:       crop,
		ContentType: "image/jpeg",
		Embedding:   emb,
	}
	if err := s.store.Save(ctx, face); err != nil {
		s.audit(ctx, audit.EventFaceEnrolled, "", err)
		return nil, domain.ErrInternal.WithError(fmt.Errorf("save enrolled face: %w", err))
	}

	// re-enrolling the same crop reuses the entry cached above
	if hadPrevious && !bytes.Equal(previous.Image, crop) {
		s.forget(ctx, previous.Image)
	}

	s.logger.InfoContext(ctx, "face enrolled",
		slog.String("enrollment_id", face.ID.String()),
		slog.Int("embedding_dim", emb.Len()),
	)
	s.audit(ctx, audit.EventFaceEnrolled, face.ID.String(), nil)
	s.notify(ctx, face)

	return face, nil
}

func (s *EnrollmentService) Current(ctx context.Context) (*domain.EnrolledFace, error) {
	face, ok, err := s.store.Get(ctx)
	if err != nil {
		return nil, domain.ErrInternal.WithError(fmt.Errorf("load enrolled face: %w", err))
	}
	if !ok {
		return nil, domain.ErrEnrollmentNotFound
	}
	return &face, nil
}

// Remove clears the enrollment slot
func (s *EnrollmentService) Remove(ctx context.Context) error {
	face, ok, err := s.store.Get(ctx)
	if err != nil {
		return domain.ErrInternal.WithError(fmt.Errorf("load enrolled face: %w", err))
	}
	if !ok {
		return domain.ErrEnrollmentNotFound
	}

	if err := s.store.Delete(ctx); err != nil {
		if errors.Is(err, domain.ErrEnrollmentNotFound) {
			return err
		}
		s.audit(ctx, audit.EventEnrollmentRemoved, face.ID.String(), err)
		return domain.ErrInternal.WithError(fmt.Errorf("delete enrolled face: %w", err))
	}

	s.forget(ctx, face.Image)
	s.logger.InfoContext(ctx, "enrollment removed", slog.String("enrollment_id", face.ID.String()))
	s.audit(ctx, audit.EventEnrollmentRemoved, face.ID.String(), nil)
	s.notify(ctx, nil)

	return nil
}

func (s *EnrollmentService) notify(ctx context.Context, face *domain.EnrolledFace) {
	if s.notifier != nil {
		s.notifier.EnrollmentChanged(ctx, face)
	}
}

func (s *EnrollmentService) forget(ctx context.Context, image []byte) {
	if s.forgetter == nil || len(image) == 0 {
		return
	}
	if err := s.forgetter.Forget(ctx, image); err != nil {
		s.logger.WarnContext(ctx, "failed to evict cached embedding", slog.String("error", err.Error()))
	}
}

func (s *EnrollmentService) audit(ctx context.Context, eventType audit.EventType, enrollmentID string, err error) {
	event := audit.Event{
		EventType:    eventType,
		EnrollmentID: enrollmentID,
		Provider:     s.provider,
		Success:      err == nil,
		IPAddress:    audit.IPAddressFrom(ctx),
	}
	if err != nil {
		event.Error = err.Error()
	}
	_ = s.auditLogger.Log(ctx, event)
}

func validateName(name string) error {
	if name == "" {
		return domain.ErrValidationFailed.WithError(errors.New("name is required"))
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return domain.ErrValidationFailed.WithError(fmt.Errorf("name exceeds %d characters", MaxNameLength))
	}
	return nil
}
