package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/saturnino-fabrica-de-software/facegate/internal/config"
	"github.com/saturnino-fabrica-de-software/facegate/internal/database"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	action := flag.String("action", "up", "up, down, status or force")
	steps := flag.Int("steps", 1, "number of migrations to roll back (down)")
	version := flag.Int("version", -1, "schema version to record (force)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}

	logger := config.NewLogger(cfg.Environment, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	migrator, err := database.OpenMigrator(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer func() { _ = migrator.Close() }()

	switch *action {
	case "up":
		if err := migrator.Up(); err != nil {
			return err
		}
	case "down":
		if err := migrator.Down(*steps); err != nil {
			return err
		}
	case "status":
	case "force":
		if *version < 0 {
			return errors.New("-version is required with -action=force")
		}
		if err := migrator.Force(*version); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown action %q (use up, down, status or force)", *action)
	}

	status, err := migrator.Status()
	if err != nil {
		return err
	}
	logger.Info("schema version", slog.String("action", *action), slog.String("version", status.String()))

	return nil
}
