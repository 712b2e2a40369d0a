package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/saturnino-fabrica-de-software/facegate/internal/api"
	"github.com/saturnino-fabrica-de-software/facegate/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/facegate/internal/audit"
	"github.com/saturnino-fabrica-de-software/facegate/internal/cache"
	"github.com/saturnino-fabrica-de-software/facegate/internal/config"
	"github.com/saturnino-fabrica-de-software/facegate/internal/face"
	"github.com/saturnino-fabrica-de-software/facegate/internal/service"
	"github.com/saturnino-fabrica-de-software/facegate/internal/ws"
)

const (
	cacheJanitorInterval = 10 * time.Minute
	shutdownTimeout      = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := config.NewLogger(cfg.Environment, cfg.LogLevel)
	slog.SetDefault(logger)

	logger.Info("starting Facegate API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.String("store", cfg.Store()),
		slog.String("analyzer", cfg.Analyzer),
		slog.String("extractor", cfg.Extractor),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	auditLogger := audit.NewSlogLogger(logger)

	providers, err := face.NewProviders(ctx, cfg, auditLogger)
	if err != nil {
		return fmt.Errorf("failed to create providers: %w", err)
	}

	embeddings := cache.NewCachingExtractor(providers.Extractor, st.cache, cfg.EmbeddingCacheTTL, providers.ExtractorName, logger)
	cache.StartJanitor(ctx, st.cache, cacheJanitorInterval, logger)

	hub := ws.NewHub()

	enrollment := service.NewEnrollmentService(providers.Analyzer, embeddings, st.enrollments,
		service.WithEmbeddingCache(embeddings),
		service.WithEnrollmentNotifier(hub),
		service.WithEnrollmentAudit(auditLogger, providers.AnalyzerName),
		service.WithEnrollmentLogger(logger),
	)

	matcherOpts := []service.MatcherOption{
		service.WithThreshold(cfg.MatchThreshold),
		service.WithReferenceExtractor(embeddings),
		service.WithMatchAudit(auditLogger),
		service.WithLogger(logger),
		service.WithProviderLabel(providers.AnalyzerName + "/" + providers.ExtractorName),
	}
	if st.attempts != nil {
		matcherOpts = append(matcherOpts, service.WithAttemptStore(st.attempts))
	}
	matcher, err := service.NewMatcher(providers.Analyzer, providers.Extractor, st.enrollments, matcherOpts...)
	if err != nil {
		return fmt.Errorf("failed to create matcher: %w", err)
	}

	router := api.NewRouter(logger, &api.Dependencies{
		Enrollment:   enrollment,
		Matcher:      matcher,
		Store:        st.enrollments,
		Hub:          hub,
		MatchTimeout: cfg.MatchTimeout,
		RateLimit: middleware.RateLimiterConfig{
			Max:    cfg.RateLimitMax,
			Window: cfg.RateLimitWindow,
		},
		MatchRateLimit: cfg.MatchRateLimit,
		BodyLimit:      cfg.BodyLimit,
	})
	router.Setup()

	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("shutting down server...")
	done := make(chan error, 1)
	go func() { done <- router.Shutdown() }()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("shutdown error", slog.Any("error", err))
		}
	case <-time.After(shutdownTimeout):
		logger.Error("shutdown error", slog.Any("error", errors.New("timed out waiting for open connections")))
	}

	logger.Info("server stopped")
	return nil
}
