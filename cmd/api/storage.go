package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/facegate/internal/cache"
	"github.com/saturnino-fabrica-de-software/facegate/internal/config"
	"github.com/saturnino-fabrica-de-software/facegate/internal/database"
	"github.com/saturnino-fabrica-de-software/facegate/internal/repository"
)

type storage struct {
	enrollments repository.EnrollmentStore
	// nil when attempt history is disabled
	attempts repository.MatchAttemptStore
	cache    cache.Cache
	close    func()
}

func (s *storage) Close() {
	if s.close != nil {
		s.close()
	}
}

// openStorage selects postgres or in-memory storage. Postgres migrations
// run before the pool is opened.
func openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*storage, error) {
	if cfg.Store() == config.StoreMemory {
		logger.Warn("using in-memory storage; the enrollment is lost on restart")

		st := &storage{
			enrollments: repository.NewMemoryEnrollmentStore(),
			cache:       cache.NewMemoryCache(),
		}
		if cfg.AttemptHistory > 0 {
			st.attempts = repository.NewMemoryMatchAttemptStore(cfg.AttemptHistory)
		}
		return st, nil
	}

	if err := database.MigrateUp(ctx, cfg.DatabaseURL); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	pool, err := database.NewPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	logger.Info("connected to database")

	st := &storage{
		enrollments: repository.NewEnrollmentRepository(pool),
		cache:       cache.NewPGCache(pool),
		close:       pool.Close,
	}
	if cfg.AttemptHistory > 0 {
		st.attempts = repository.NewMatchAttemptRepository(pool)
	}
	return st, nil
}
