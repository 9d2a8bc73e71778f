package repository

import (
	"context"
	"errors"

	"github.com/invigo/invigo-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FaceRepository stores enrolled face descriptors, one per user.
type FaceRepository struct {
	pool *pgxpool.Pool
}

// NewFaceRepository creates a new FaceRepository.
func NewFaceRepository(pool *pgxpool.Pool) *FaceRepository {
	return &FaceRepository{pool: pool}
}

// Upsert stores or replaces a user's descriptor. Re-enrollment overwrites.
func (r *FaceRepository) Upsert(ctx context.Context, fd *model.FaceDescriptor) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO face_descriptors (user_id, descriptor)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE
		 SET descriptor = EXCLUDED.descriptor, enrolled_at = NOW()
		 RETURNING enrolled_at`,
		fd.UserID, fd.Descriptor,
	).Scan(&fd.EnrolledAt)
}

// Get retrieves a user's enrolled descriptor.
func (r *FaceRepository) Get(ctx context.Context, userID int) (*model.FaceDescriptor, error) {
	fd := &model.FaceDescriptor{}
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, descriptor, enrolled_at
		 FROM face_descriptors WHERE user_id = $1`, userID,
	).Scan(&fd.UserID, &fd.Descriptor, &fd.EnrolledAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return fd, nil
}
