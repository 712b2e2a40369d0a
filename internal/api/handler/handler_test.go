package handler

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/textproto"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/mock"

	"github.com/saturnino-fabrica-de-software/facegate/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
	"github.com/saturnino-fabrica-de-software/facegate/internal/service"
)

type MockEnrollmentService struct {
	mock.Mock
}

func (m *MockEnrollmentService) Enroll(ctx context.Context, name string, image []byte) (*domain.EnrolledFace, error) {
	args := m.Called(ctx, name, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EnrolledFace), args.Error(1)
}

func (m *MockEnrollmentService) Current(ctx context.Context) (*domain.EnrolledFace, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EnrolledFace), args.Error(1)
}

func (m *MockEnrollmentService) Remove(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockMatcher struct {
	mock.Mock
}

func (m *MockMatcher) PerformFaceMatching(ctx context.Context, frame *service.Frame) <-chan domain.Outcome {
	args := m.Called(ctx, frame)
	outcomes := args.Get(0).([]domain.Outcome)

	ch := make(chan domain.Outcome)
	go func() {
		defer close(ch)
		for _, o := range outcomes {
			select {
			case <-ctx.Done():
				return
			case ch <- o:
			}
		}
	}()
	return ch
}

func (m *MockMatcher) RecentAttempts(ctx context.Context, limit int) ([]domain.MatchAttempt, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MatchAttempt), args.Error(1)
}

// testLogger returns a logger that discards all output
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testApp() *fiber.App {
	return fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(testLogger()),
		BodyLimit:    20 * 1024 * 1024,
	})
}

// multipartBody builds a form with optional name and image fields
func multipartBody(name string, image []byte, contentType string) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if name != "" {
		_ = writer.WriteField("name", name)
	}

	if image != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="image"; filename="frame.jpg"`)
		h.Set("Content-Type", contentType)

		part, _ := writer.CreatePart(h)
		_, _ = part.Write(image)
	}

	_ = writer.Close()
	return body, writer.FormDataContentType()
}
