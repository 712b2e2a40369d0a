package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/saturnino-fabrica-de-software/facegate/internal/api/docs"
	"github.com/saturnino-fabrica-de-software/facegate/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/facegate/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/facegate/internal/ws"
)

const matchPath = "/v1/match"

type Dependencies struct {
	Enrollment handler.EnrollmentService
	Matcher    handler.Matcher
	// Store backs the readiness probe
	Store handler.Pinger
	// Hub receives enrollment changes; the router runs it
	Hub *ws.Hub

	MatchTimeout time.Duration
	RateLimit    middleware.RateLimiterConfig
	// MatchRateLimit applies to POST /v1/match on its own bucket
	MatchRateLimit int
	BodyLimit      int
}

type Router struct {
	app         *fiber.App
	logger      *slog.Logger
	deps        *Dependencies
	rateLimiter *middleware.RateLimiter
	cancelHub   context.CancelFunc
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	cfg := fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "Facegate API",
	}
	if deps != nil && deps.BodyLimit > 0 {
		cfg.BodyLimit = deps.BodyLimit
	}

	return &Router{
		app:    fiber.New(cfg),
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	var checks []handler.Check
	if r.deps != nil {
		checks = append(checks, handler.Check{Name: "store", Pinger: r.deps.Store})
	}
	healthHandler := handler.NewHealthHandler(checks...)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	if r.deps == nil {
		return
	}

	v1 := r.app.Group("/v1")

	// The websocket is mounted before the limiter; a live session sends
	// frames continuously over one connection.
	if r.deps.Hub != nil && r.deps.Matcher != nil {
		hubCtx, hubCancel := context.WithCancel(context.Background())
		r.cancelHub = hubCancel
		go r.deps.Hub.Run(hubCtx)

		v1.Get("/match/ws", ws.UpgradeMiddleware(), ws.Handler(r.deps.Hub, r.deps.Matcher, r.logger))
	}

	limits := r.deps.RateLimit
	if r.deps.MatchRateLimit > 0 {
		window := limits.Window
		if window <= 0 {
			window = middleware.DefaultRateLimiterConfig().Window
		}
		limits.PerEndpoint = map[string]middleware.EndpointRateLimit{
			matchPath: {Requests: r.deps.MatchRateLimit, Window: window},
		}
	}
	r.rateLimiter = middleware.NewRateLimiter(limits)
	v1.Use(r.rateLimiter.Handler())

	if r.deps.Enrollment != nil {
		enrollmentHandler := handler.NewEnrollmentHandler(r.deps.Enrollment, r.logger)

		v1.Put("/enrollment", enrollmentHandler.Enroll)
		v1.Get("/enrollment", enrollmentHandler.Get)
		v1.Get("/enrollment/image", enrollmentHandler.Image)
		v1.Delete("/enrollment", enrollmentHandler.Delete)
	}

	if r.deps.Matcher != nil {
		matchHandler := handler.NewMatchHandler(r.deps.Matcher, r.deps.MatchTimeout, r.logger)

		v1.Post("/match", matchHandler.Match)
		v1.Get("/match/attempts", matchHandler.Attempts)
	}
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	if r.cancelHub != nil {
		r.cancelHub()
	}

	if r.rateLimiter != nil {
		r.rateLimiter.Stop()
	}

	return r.app.Shutdown()
}
