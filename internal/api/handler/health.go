package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"
)

const Version = "0.1.0"

const readyTimeout = 2 * time.Second

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Check is one dependency probed by /ready
type Check struct {
	Name   string
	Pinger Pinger
}

type HealthHandler struct {
	checks []Check
}

// NewHealthHandler skips checks with a nil Pinger
func NewHealthHandler(checks ...Check) *HealthHandler {
	h := &HealthHandler{}
	for _, c := range checks {
		if c.Pinger != nil {
			h.checks = append(h.checks, c)
		}
	}
	return h
}

type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks,omitempty"`
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{Status: "ok", Version: Version})
}

// Ready pings every dependency concurrently and answers 503 if any fails.
// Error text is not included in the body.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), readyTimeout)
	defer cancel()

	results := make([]error, len(h.checks))
	var g errgroup.Group
	for i, check := range h.checks {
		g.Go(func() error {
			results[i] = check.Pinger.Ping(ctx)
			return nil
		})
	}
	_ = g.Wait()

	resp := HealthResponse{Status: "ready", Version: Version}
	if len(h.checks) > 0 {
		resp.Checks = make(map[string]string, len(h.checks))
	}
	for i, check := range h.checks {
		if results[i] != nil {
			resp.Status = "unavailable"
			resp.Checks[check.Name] = "down"
			continue
		}
		resp.Checks[check.Name] = "up"
	}

	if resp.Status != "ready" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	return c.JSON(resp)
}
