package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

// Recover turns a handler panic into INTERNAL_ERROR. The panic value is
// kept as the cause so the error handler logs it with the request.
func Recover(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			cause, ok := r.(error)
			if !ok {
				cause = fmt.Errorf("panic: %v", r)
			}

			attrs := []any{
				slog.Any("panic", r),
				slog.String("method", c.Method()),
				slog.String("path", c.Path()),
				slog.String("stack", string(debug.Stack())),
			}
			if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
				attrs = append(attrs, slog.String("request_id", rid))
			}
			logger.Error("handler panicked", attrs...)

			err = domain.ErrInternal.WithError(cause)
		}()

		return c.Next()
	}
}
