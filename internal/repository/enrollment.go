package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

// EnrollmentRepository keeps the enrollment in a single-row table.
// The slot column is constrained to 1, so at most one face can exist.
type EnrollmentRepository struct {
	pool PgxPool
}

func NewEnrollmentRepository(pool PgxPool) *EnrollmentRepository {
	return &EnrollmentRepository{pool: pool}
}

func (r *EnrollmentRepository) Get(ctx context.Context) (domain.EnrolledFace, bool, error) {
	query := `
		SELECT id, name, image, content_type, embedding, created_at, updated_at
		FROM enrolled_faces
		WHERE slot = 1
	`

	var face domain.EnrolledFace
	var embedding *pgvector.Vector

	err := r.pool.QueryRow(ctx, query).Scan(
		&face.ID,
		&face.Name,
		&face.Image,
		&face.ContentType,
		&embedding,
		&face.CreatedAt,
		&face.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return domain.EnrolledFace{}, false, nil
	}
	if err != nil {
		return domain.EnrolledFace{}, false, fmt.Errorf("get enrolled face: %w", err)
	}

	face.Embedding = fromVector(embedding)

	return face, true, nil
}

func (r *EnrollmentRepository) Save(ctx context.Context, face *domain.EnrolledFace) error {
	query := `
		INSERT INTO enrolled_faces (id, slot, name, image, content_type, embedding, created_at, updated_at)
		VALUES ($1, 1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (slot) DO UPDATE
		SET id = EXCLUDED.id,
		    name = EXCLUDED.name,
		    image = EXCLUDED.image,
		    content_type = EXCLUDED.content_type,
		    embedding = EXCLUDED.embedding,
		    created_at = NOW(),
		    updated_at = NOW()
		RETURNING created_at, updated_at
	`

	if face.ID == uuid.Nil {
		face.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx, query,
		face.ID,
		face.Name,
		face.Image,
		face.ContentType,
		toVector(face.Embedding),
	).Scan(&face.CreatedAt, &face.UpdatedAt)

	if err != nil {
		return fmt.Errorf("save enrolled face: %w", err)
	}

	return nil
}

func (r *EnrollmentRepository) Delete(ctx context.Context) error {
	query := `DELETE FROM enrolled_faces WHERE slot = 1`

	result, err := r.pool.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("delete enrolled face: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrEnrollmentNotFound
	}

	return nil
}

func (r *EnrollmentRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

var _ EnrollmentStore = (*EnrollmentRepository)(nil)
