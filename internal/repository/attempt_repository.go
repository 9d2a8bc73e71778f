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

const attemptColumns = `id, user_id, exam_id, questions, answers, status, started_at, ended_at,
	violation_count, score, total_marks_obtained, time_taken_minutes, time_left_seconds,
	created_at, updated_at`

// AttemptCompletion carries the finalized fields written by the single
// conditional in_progress → completed transition.
type AttemptCompletion struct {
	Answers            model.AnswerMap
	EndTime            time.Time
	Score              float64
	TotalMarksObtained float64
	TimeTaken          int
	ViolationCount     int
}

// AttemptResult is one row of an admin results listing.
type AttemptResult struct {
	AttemptID          uuid.UUID           `json:"attempt_id"`
	UserID             int                 `json:"user_id"`
	Name               string              `json:"name"`
	Email              string              `json:"email"`
	RollNo             string              `json:"roll_no"`
	Status             model.AttemptStatus `json:"status"`
	Score              *float64            `json:"score"`
	TotalMarksObtained *float64            `json:"total_marks_obtained"`
	ViolationCount     int                 `json:"violation_count"`
	StartedAt          time.Time           `json:"started_at"`
	EndedAt            *time.Time          `json:"ended_at"`
	TimeTaken          *int                `json:"time_taken"`
}

// AttemptRepository handles attempt data access.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

func scanAttempt(row pgx.Row) (*model.Attempt, error) {
	a := &model.Attempt{}
	err := row.Scan(&a.ID, &a.UserID, &a.ExamID, &a.Questions, &a.Answers, &a.Status,
		&a.StartTime, &a.EndTime, &a.ViolationCount, &a.Score, &a.TotalMarksObtained,
		&a.TimeTaken, &a.TimeLeftSeconds, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if a.Answers == nil {
		a.Answers = model.AnswerMap{}
	}
	return a, nil
}

// Create inserts a new in_progress attempt with a frozen question snapshot.
// The partial unique index on (user_id, exam_id) WHERE status = 'in_progress'
// makes this an atomic insert-or-conflict: exactly one of any set of
// concurrent creates wins, the rest get ErrDuplicateActiveAttempt.
func (r *AttemptRepository) Create(ctx context.Context, a *model.Attempt) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO attempts (user_id, exam_id, questions, answers, status, started_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id, exam_id) WHERE status = 'in_progress' DO NOTHING
		 RETURNING id, created_at, updated_at`,
		a.UserID, a.ExamID, a.Questions, a.Answers, model.AttemptStatusInProgress, a.StartTime,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrDuplicateActiveAttempt
		}
		return err
	}
	a.Status = model.AttemptStatusInProgress
	return nil
}

// FindByID retrieves an attempt by its UUID.
func (r *AttemptRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Attempt, error) {
	return scanAttempt(r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM attempts WHERE id = $1`, id))
}

// FindActive retrieves the single in_progress attempt for (user, exam), if any.
func (r *AttemptRepository) FindActive(ctx context.Context, userID int, examID uuid.UUID) (*model.Attempt, error) {
	return scanAttempt(r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM attempts
		 WHERE user_id = $1 AND exam_id = $2 AND status = $3`,
		userID, examID, model.AttemptStatusInProgress))
}

// CountByUserAndExam counts all attempts (any status) for (user, exam).
// Used for max-attempt enforcement at creation time.
func (r *AttemptRepository) CountByUserAndExam(ctx context.Context, userID int, examID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM attempts WHERE user_id = $1 AND exam_id = $2`,
		userID, examID).Scan(&n)
	return n, err
}

// UpsertAnswer records a single answer in place. The status guard keeps
// terminal attempts immutable even under races with Submit.
func (r *AttemptRepository) UpsertAnswer(ctx context.Context, id uuid.UUID, position, selectedOption int) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE attempts
		 SET answers = jsonb_set(answers, ARRAY[$2::text], to_jsonb($3::int), true),
		     updated_at = NOW()
		 WHERE id = $1 AND status = $4`,
		id, position, selectedOption, model.AttemptStatusInProgress)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAttemptNotActive
	}
	return nil
}

// SaveCheckpoint overwrites the answers wholesale and records the countdown
// value. Never touches status or started_at.
func (r *AttemptRepository) SaveCheckpoint(ctx context.Context, id uuid.UUID, answers model.AnswerMap, timeLeftSeconds int) error {
	if answers == nil {
		answers = model.AnswerMap{}
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE attempts
		 SET answers = $2, time_left_seconds = $3, updated_at = NOW()
		 WHERE id = $1 AND status = $4`,
		id, answers, timeLeftSeconds, model.AttemptStatusInProgress)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAttemptNotActive
	}
	return nil
}

// Complete performs the single-shot in_progress → completed transition.
// The status predicate makes the update conditional: of two racing submits
// exactly one matches the row, the other gets ErrAttemptNotActive and no
// second scoring side effect. GREATEST keeps the violation count monotonic.
func (r *AttemptRepository) Complete(ctx context.Context, id uuid.UUID, fin AttemptCompletion) (*model.Attempt, error) {
	if fin.Answers == nil {
		fin.Answers = model.AnswerMap{}
	}
	a, err := scanAttempt(r.pool.QueryRow(ctx,
		`UPDATE attempts
		 SET status = $2,
		     answers = $3,
		     ended_at = $4,
		     score = $5,
		     total_marks_obtained = $6,
		     time_taken_minutes = $7,
		     violation_count = GREATEST(violation_count, $8),
		     updated_at = NOW()
		 WHERE id = $1 AND status = $9
		 RETURNING `+attemptColumns,
		id, model.AttemptStatusCompleted, fin.Answers, fin.EndTime, fin.Score,
		fin.TotalMarksObtained, fin.TimeTaken, fin.ViolationCount,
		model.AttemptStatusInProgress))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrAttemptNotActive
		}
		return nil, err
	}
	return a, nil
}

// ExpiredAttempt pairs an overdue in_progress attempt with its computed
// deadline, so the sweep can submit with the real end time rather than the
// tick it happened to run on.
type ExpiredAttempt struct {
	ID       uuid.UUID
	Deadline time.Time
}

// ListExpired retrieves in_progress attempts whose time budget ran out,
// judged against the owning exam's duration.
func (r *AttemptRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]ExpiredAttempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT a.id, a.started_at + make_interval(secs => e.duration_seconds)
		 FROM attempts a
		 JOIN exams e ON e.id = a.exam_id
		 WHERE a.status = $1
		   AND a.started_at + make_interval(secs => e.duration_seconds) < $2
		 LIMIT $3`,
		model.AttemptStatusInProgress, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expired []ExpiredAttempt
	for rows.Next() {
		var ea ExpiredAttempt
		if err := rows.Scan(&ea.ID, &ea.Deadline); err != nil {
			return nil, err
		}
		expired = append(expired, ea)
	}
	return expired, rows.Err()
}

// ListByUser retrieves all attempts for a student, newest first.
func (r *AttemptRepository) ListByUser(ctx context.Context, userID int) ([]model.Attempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+attemptColumns+` FROM attempts
		 WHERE user_id = $1
		 ORDER BY started_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []model.Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, *a)
	}
	return attempts, rows.Err()
}

// ListByExam retrieves all student results for an exam with pagination.
func (r *AttemptRepository) ListByExam(ctx context.Context, examID uuid.UUID, page, perPage int) ([]AttemptResult, int64, error) {
	offset := (page - 1) * perPage

	var total int64
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM attempts WHERE exam_id = $1`, examID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT a.id, a.user_id, u.name, u.email, u.roll_no,
		        a.status, a.score, a.total_marks_obtained, a.violation_count,
		        a.started_at, a.ended_at, a.time_taken_minutes
		 FROM attempts a
		 JOIN users u ON a.user_id = u.id
		 WHERE a.exam_id = $1
		 ORDER BY u.name ASC, a.started_at DESC
		 LIMIT $2 OFFSET $3`,
		examID, perPage, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []AttemptResult
	for rows.Next() {
		var res AttemptResult
		if err := rows.Scan(&res.AttemptID, &res.UserID, &res.Name, &res.Email, &res.RollNo,
			&res.Status, &res.Score, &res.TotalMarksObtained, &res.ViolationCount,
			&res.StartedAt, &res.EndedAt, &res.TimeTaken); err != nil {
			return nil, 0, err
		}
		results = append(results, res)
	}
	return results, total, rows.Err()
}
