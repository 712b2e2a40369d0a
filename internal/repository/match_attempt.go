package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

type MatchAttemptRepository struct {
	pool PgxPool
}

func NewMatchAttemptRepository(pool PgxPool) *MatchAttemptRepository {
	return &MatchAttemptRepository{pool: pool}
}

func (r *MatchAttemptRepository) Create(ctx context.Context, a *domain.MatchAttempt) error {
	query := `
		INSERT INTO match_attempts (id, enrolled_face_id, result, identity, reason, score, threshold, latency_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING created_at
	`

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx, query,
		a.ID,
		a.EnrolledFaceID,
		string(a.Result),
		a.Identity,
		a.Reason,
		a.Score,
		a.Threshold,
		a.LatencyMs,
	).Scan(&a.CreatedAt)

	if err != nil {
		return fmt.Errorf("create match attempt: %w", err)
	}

	return nil
}

// Recent returns the newest attempts first
func (r *MatchAttemptRepository) Recent(ctx context.Context, limit int) ([]domain.MatchAttempt, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, enrolled_face_id, result, identity, reason, score, threshold, latency_ms, created_at
		FROM match_attempts
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list match attempts: %w", err)
	}
	defer rows.Close()

	var attempts []domain.MatchAttempt
	for rows.Next() {
		var a domain.MatchAttempt
		var result string
		if err := rows.Scan(
			&a.ID,
			&a.EnrolledFaceID,
			&result,
			&a.Identity,
			&a.Reason,
			&a.Score,
			&a.Threshold,
			&a.LatencyMs,
			&a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan match attempt: %w", err)
		}
		a.Result = domain.MatchKind(result)
		attempts = append(attempts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate match attempts: %w", err)
	}

	return attempts, nil
}

var _ MatchAttemptStore = (*MatchAttemptRepository)(nil)
