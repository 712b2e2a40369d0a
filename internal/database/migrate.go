package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrator applies the embedded schema migrations. When it was opened
// from a DSN it also owns the *sql.DB and closes it.
type Migrator struct {
	m  *migrate.Migrate
	db *sql.DB
}

// MigrationStatus is the schema version recorded by golang-migrate.
// Version 0 means no migration was ever applied.
type MigrationStatus struct {
	Version uint
	Dirty   bool
}

func (s MigrationStatus) String() string {
	if s.Dirty {
		return fmt.Sprintf("%d (dirty)", s.Version)
	}
	return fmt.Sprintf("%d", s.Version)
}

// NewMigrator wraps an open connection; the caller keeps ownership of db
func NewMigrator(db *sql.DB, dbName string) (*Migrator, error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{DatabaseName: dbName})
	if err != nil {
		return nil, fmt.Errorf("create postgres driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("load embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, dbName, driver)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}

	return &Migrator{m: m}, nil
}

// OpenMigrator connects to dsn and returns a migrator owning the connection
func OpenMigrator(ctx context.Context, dsn string, logger *slog.Logger) (*Migrator, error) {
	dbName, err := DatabaseName(dsn)
	if err != nil {
		return nil, err
	}

	db, err := OpenSQL(ctx, dsn)
	if err != nil {
		return nil, err
	}

	mg, err := NewMigrator(db, dbName)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	mg.db = db

	if logger != nil {
		mg.m.Log = migrateLogger{logger: logger.With("component", "migrate", "database", dbName)}
	}

	return mg, nil
}

// Up applies every pending migration. An up-to-date schema is not an error.
func (m *Migrator) Up() error {
	if err := m.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Down rolls back the given number of migrations
func (m *Migrator) Down(steps int) error {
	if steps <= 0 {
		return fmt.Errorf("rollback steps must be positive, got %d", steps)
	}
	if err := m.m.Steps(-steps); err != nil {
		return fmt.Errorf("rollback %d migration(s): %w", steps, err)
	}
	return nil
}

func (m *Migrator) Status() (MigrationStatus, error) {
	version, dirty, err := m.m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return MigrationStatus{}, nil
	case err != nil:
		return MigrationStatus{}, fmt.Errorf("read schema version: %w", err)
	}
	return MigrationStatus{Version: version, Dirty: dirty}, nil
}

// Force records version as applied and clears the dirty flag without
// running any migration
func (m *Migrator) Force(version int) error {
	if err := m.m.Force(version); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	return nil
}

func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	var connErr error
	if m.db != nil {
		connErr = m.db.Close()
	}
	return errors.Join(srcErr, dbErr, connErr)
}

// MigrateUp brings the database at dsn to the latest schema
func MigrateUp(ctx context.Context, dsn string) error {
	mg, err := OpenMigrator(ctx, dsn, nil)
	if err != nil {
		return err
	}
	defer func() { _ = mg.Close() }()

	return mg.Up()
}

// migrateLogger adapts slog to migrate.Logger
type migrateLogger struct {
	logger *slog.Logger
}

func (l migrateLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l migrateLogger) Verbose() bool {
	return false
}
