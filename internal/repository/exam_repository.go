package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/invigo/invigo-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const examColumns = `id, title, description, subject_id, questions, duration_seconds,
	window_start, window_end, max_attempts, passing_marks, is_active, created_by,
	created_at, updated_at`

// ExamRepository handles exam data access.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

func scanExam(row pgx.Row) (*model.ExamSnapshot, error) {
	e := &model.ExamSnapshot{}
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.SubjectID, &e.Questions,
		&e.DurationSeconds, &e.WindowStart, &e.WindowEnd, &e.MaxAttempts,
		&e.PassingMarks, &e.IsActive, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

// GetByID retrieves an exam by its UUID.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ExamSnapshot, error) {
	return scanExam(r.pool.QueryRow(ctx,
		`SELECT `+examColumns+` FROM exams WHERE id = $1`, id))
}

// Create inserts a new exam.
func (r *ExamRepository) Create(ctx context.Context, e *model.ExamSnapshot) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO exams (title, description, subject_id, questions, duration_seconds,
		                    window_start, window_end, max_attempts, passing_marks, is_active, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, created_at, updated_at`,
		e.Title, e.Description, e.SubjectID, e.Questions, e.DurationSeconds,
		e.WindowStart, e.WindowEnd, e.MaxAttempts, e.PassingMarks, e.IsActive, e.CreatedBy,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

// Update overwrites an exam definition.
func (r *ExamRepository) Update(ctx context.Context, e *model.ExamSnapshot) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exams
		 SET title = $2, description = $3, questions = $4, duration_seconds = $5,
		     window_start = $6, window_end = $7, max_attempts = $8, passing_marks = $9,
		     is_active = $10, updated_at = NOW()
		 WHERE id = $1`,
		e.ID, e.Title, e.Description, e.Questions, e.DurationSeconds,
		e.WindowStart, e.WindowEnd, e.MaxAttempts, e.PassingMarks, e.IsActive)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an exam. Attempts reference a frozen question copy, so
// deleting the definition never affects recorded results.
func (r *ExamRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM exams WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List retrieves exams with pagination, newest first.
func (r *ExamRepository) List(ctx context.Context, limit, offset int) ([]model.ExamSnapshot, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM exams`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+examColumns+` FROM exams ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	exams, err := collectExams(rows)
	if err != nil {
		return nil, 0, err
	}
	return exams, total, nil
}

// ListBySubject retrieves all exams attached to a subject.
func (r *ExamRepository) ListBySubject(ctx context.Context, subjectID uuid.UUID) ([]model.ExamSnapshot, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+examColumns+` FROM exams WHERE subject_id = $1 ORDER BY window_start ASC`,
		subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectExams(rows)
}

// ListAvailable retrieves active exams whose scheduling window contains now.
// This is the student lobby query.
func (r *ExamRepository) ListAvailable(ctx context.Context, now time.Time) ([]model.ExamSnapshot, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+examColumns+` FROM exams
		 WHERE is_active AND window_start <= $1 AND window_end >= $1
		 ORDER BY window_end ASC`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectExams(rows)
}

func collectExams(rows pgx.Rows) ([]model.ExamSnapshot, error) {
	var exams []model.ExamSnapshot
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, err
		}
		exams = append(exams, *e)
	}
	return exams, rows.Err()
}
