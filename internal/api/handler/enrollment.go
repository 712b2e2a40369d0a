package handler

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

// EnrollmentService manages the enrolled reference face
type EnrollmentService interface {
	Enroll(ctx context.Context, name string, image []byte) (*domain.EnrolledFace, error)
	Current(ctx context.Context) (*domain.EnrolledFace, error)
	Remove(ctx context.Context) error
}

type EnrollmentHandler struct {
	service EnrollmentService
	logger  *slog.Logger
}

func NewEnrollmentHandler(service EnrollmentService, logger *slog.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		service: service,
		logger:  logger,
	}
}

// EnrollmentResponse describes the enrolled face. The image and embedding
// are never returned.
type EnrollmentResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ContentType  string `json:"content_type"`
	EmbeddingDim int    `json:"embedding_dim"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

func toEnrollmentResponse(face *domain.EnrolledFace) EnrollmentResponse {
	return EnrollmentResponse{
		ID:           face.ID.String(),
		Name:         face.Name,
		ContentType:  face.ContentType,
		EmbeddingDim: face.Embedding.Len(),
		CreatedAt:    face.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    face.UpdatedAt.Format(time.RFC3339),
	}
}

// Enroll PUT /v1/enrollment - replace the enrolled face
func (h *EnrollmentHandler) Enroll(c *fiber.Ctx) error {
	image, _, err := imageFromForm(c)
	if err != nil {
		return err
	}
	if image == nil {
		return domain.ErrValidationFailed.WithError(errMissingImage)
	}

	face, err := h.service.Enroll(c.UserContext(), c.FormValue("name"), image)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(toEnrollmentResponse(face))
}

// Get GET /v1/enrollment
func (h *EnrollmentHandler) Get(c *fiber.Ctx) error {
	face, err := h.service.Current(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(toEnrollmentResponse(face))
}

// Image GET /v1/enrollment/image - the stored face crop
func (h *EnrollmentHandler) Image(c *fiber.Ctx) error {
	face, err := h.service.Current(c.UserContext())
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, face.ContentType)
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Send(face.Image)
}

// Delete DELETE /v1/enrollment
func (h *EnrollmentHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.Remove(c.UserContext()); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
