package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
	"github.com/saturnino-fabrica-de-software/facegate/internal/service"
)

const (
	defaultMatchTimeout = 30 * time.Second
	defaultAttemptLimit = 50
	maxAttemptLimit     = 500
)

// Matcher runs the match pipeline
type Matcher interface {
	PerformFaceMatching(ctx context.Context, frame *service.Frame) <-chan domain.Outcome
	RecentAttempts(ctx context.Context, limit int) ([]domain.MatchAttempt, error)
}

type MatchHandler struct {
	matcher Matcher
	timeout time.Duration
	logger  *slog.Logger
}

func NewMatchHandler(matcher Matcher, timeout time.Duration, logger *slog.Logger) *MatchHandler {
	if timeout <= 0 {
		timeout = defaultMatchTimeout
	}
	return &MatchHandler{
		matcher: matcher,
		timeout: timeout,
		logger:  logger,
	}
}

// OutcomeResponse is one line of the match stream
type OutcomeResponse struct {
	Status   domain.OutcomeStatus `json:"status"`
	Identity string               `json:"identity,omitempty"`
	Message  string               `json:"message,omitempty"`
	Code     string               `json:"code,omitempty"`
}

func ToOutcomeResponse(o domain.Outcome) OutcomeResponse {
	resp := OutcomeResponse{
		Status:   o.Status,
		Identity: o.Identity,
		Message:  o.Message,
	}
	var appErr *domain.AppError
	if errors.As(o.Err, &appErr) {
		resp.Code = appErr.Code
	}
	return resp
}

// timedOut is reported when the pipeline is cut off before a verdict
func timedOut(err error) domain.Outcome {
	return domain.Failure(domain.MessageUnknownError, domain.ErrInternal.WithError(err))
}

// Match POST /v1/match - match the uploaded frame against the enrolled face.
// The response is a stream of newline-delimited outcomes unless
// ?stream=false is given, in which case only the final outcome is returned.
func (h *MatchHandler) Match(c *fiber.Ctx) error {
	image, contentType, err := imageFromForm(c)
	if err != nil {
		return err
	}

	var frame *service.Frame
	if image != nil {
		frame = &service.Frame{Image: image, ContentType: contentType}
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	outcomes := h.matcher.PerformFaceMatching(ctx, frame)

	if !c.QueryBool("stream", true) {
		defer cancel()
		final := lastOutcome(ctx, outcomes)
		return c.JSON(ToOutcomeResponse(final))
	}

	c.Set(fiber.HeaderContentType, "application/x-ndjson")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()

		enc := json.NewEncoder(w)
		terminal := false
		for o := range outcomes {
			terminal = o.IsTerminal()
			if err := enc.Encode(ToOutcomeResponse(o)); err != nil {
				break
			}
			if err := w.Flush(); err != nil {
				h.logger.Debug("match stream client gone", slog.String("error", err.Error()))
				break
			}
		}

		if !terminal && ctx.Err() != nil {
			_ = enc.Encode(ToOutcomeResponse(timedOut(ctx.Err())))
			_ = w.Flush()
		}

		cancel()
		for range outcomes {
		}
	})

	return nil
}

func lastOutcome(ctx context.Context, outcomes <-chan domain.Outcome) domain.Outcome {
	var final domain.Outcome
	terminal := false
	for o := range outcomes {
		if o.IsTerminal() {
			final = o
			terminal = true
		}
	}
	if !terminal {
		return timedOut(ctx.Err())
	}
	return final
}

// AttemptsResponse lists recorded match decisions
type AttemptsResponse struct {
	Attempts []domain.MatchAttempt `json:"attempts"`
}

// Attempts GET /v1/match/attempts?limit=N
func (h *MatchHandler) Attempts(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultAttemptLimit)
	if limit <= 0 || limit > maxAttemptLimit {
		return domain.ErrValidationFailed.WithError(errors.New("limit must be between 1 and 500"))
	}

	attempts, err := h.matcher.RecentAttempts(c.UserContext(), limit)
	if err != nil {
		return err
	}

	return c.JSON(AttemptsResponse{Attempts: attempts})
}
