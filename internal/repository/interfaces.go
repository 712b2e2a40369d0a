package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

// PgxPool is the subset of *pgxpool.Pool used by the repositories.
// pgxmock.PgxPoolIface satisfies it as well.
type PgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// EnrollmentStore holds the single enrolled reference face
type EnrollmentStore interface {
	// Get returns the enrolled face, or ok=false when nothing is enrolled
	Get(ctx context.Context) (face domain.EnrolledFace, ok bool, err error)
	// Save replaces whatever is enrolled with face
	Save(ctx context.Context, face *domain.EnrolledFace) error
	// Delete fails with domain.ErrEnrollmentNotFound when nothing is enrolled
	Delete(ctx context.Context) error
	Ping(ctx context.Context) error
}

// MatchAttemptStore persists the audit trail of match decisions
type MatchAttemptStore interface {
	Create(ctx context.Context, attempt *domain.MatchAttempt) error
	Recent(ctx context.Context, limit int) ([]domain.MatchAttempt, error)
}
