package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/invigo/invigo-backend/internal/model"
	"github.com/invigo/invigo-backend/internal/repository"
	"github.com/invigo/invigo-backend/internal/scoring"
	"github.com/rs/zerolog"
)

// Domain errors for the attempt lifecycle.
var (
	// ErrExamUnavailable: the exam is inactive or outside its scheduling
	// window. Non-retryable until the window changes.
	ErrExamUnavailable = errors.New("exam is not available")
	// ErrAttemptLimitExceeded: max attempts reached. Terminal for this exam.
	ErrAttemptLimitExceeded = errors.New("maximum number of attempts reached")
	// ErrAttemptNotFound: no attempt with that ID.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrAttemptNotActive: a mutation was requested on a terminal attempt.
	ErrAttemptNotActive = errors.New("attempt is not in progress")
	// ErrAlreadySubmitted: Submit was called on an already-submitted
	// attempt. Benign under client retries, since the first submission's
	// result is untouched.
	ErrAlreadySubmitted = errors.New("attempt already submitted")
	// ErrInvalidAnswerPosition: question index out of range, which means
	// client/server desync. State is never mutated.
	ErrInvalidAnswerPosition = errors.New("question position out of range")
)

// AttemptStore is the persistence contract for attempts. Create must be an
// atomic insert-or-conflict over a uniqueness guarantee on
// (userID, examID, status=in_progress), and Complete a conditional update
// on status, so that concurrent starts and concurrent submits each resolve
// to exactly one winner.
type AttemptStore interface {
	Create(ctx context.Context, a *model.Attempt) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Attempt, error)
	FindActive(ctx context.Context, userID int, examID uuid.UUID) (*model.Attempt, error)
	CountByUserAndExam(ctx context.Context, userID int, examID uuid.UUID) (int, error)
	UpsertAnswer(ctx context.Context, id uuid.UUID, position, selectedOption int) error
	SaveCheckpoint(ctx context.Context, id uuid.UUID, answers model.AnswerMap, timeLeftSeconds int) error
	Complete(ctx context.Context, id uuid.UUID, fin repository.AttemptCompletion) (*model.Attempt, error)
	ListByUser(ctx context.Context, userID int) ([]model.Attempt, error)
	ListByExam(ctx context.Context, examID uuid.UUID, page, perPage int) ([]repository.AttemptResult, int64, error)
}

// ExamCatalog provides exam snapshots to the lifecycle. Implementations must
// return a coherent definition; the lifecycle freezes the question set into
// the attempt at start time, so later catalog edits cannot leak into scoring.
type ExamCatalog interface {
	GetSnapshot(ctx context.Context, examID uuid.UUID) (*model.ExamSnapshot, error)
}

// AttemptService orchestrates the attempt lifecycle: eligibility, answer
// recording, checkpointing, and single-shot scored submission.
type AttemptService struct {
	store   AttemptStore
	catalog ExamCatalog
	log     zerolog.Logger
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(store AttemptStore, catalog ExamCatalog, log zerolog.Logger) *AttemptService {
	return &AttemptService{
		store:   store,
		catalog: catalog,
		log:     log.With().Str("component", "attempt_service").Logger(),
	}
}

// StartAttempt creates (or resumes) an attempt for (userID, examID) at the
// given time.
//
// An existing in_progress attempt is returned as-is: starting is idempotent
// and two devices can never hold two live attempts. The attempt cap counts
// attempts of any status and is enforced at creation only. The question set
// is copied into the new attempt so the exam definition can change freely
// afterwards.
func (s *AttemptService) StartAttempt(ctx context.Context, userID int, examID uuid.UUID, now time.Time) (*model.Attempt, error) {
	snap, err := s.catalog.GetSnapshot(ctx, examID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExamUnavailable
		}
		return nil, fmt.Errorf("get exam snapshot: %w", err)
	}

	if !snap.IsActive || !snap.WindowOpen(now) {
		return nil, ErrExamUnavailable
	}

	// Resume path: a live attempt takes precedence over everything else.
	existing, err := s.store.FindActive(ctx, userID, examID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("find active attempt: %w", err)
	}

	count, err := s.store.CountByUserAndExam(ctx, userID, examID)
	if err != nil {
		return nil, fmt.Errorf("count attempts: %w", err)
	}
	if count >= snap.MaxAttempts {
		return nil, ErrAttemptLimitExceeded
	}

	questions := make([]model.Question, len(snap.Questions))
	copy(questions, snap.Questions)

	attempt := &model.Attempt{
		UserID:    userID,
		ExamID:    examID,
		Questions: questions,
		Answers:   model.AnswerMap{},
		Status:    model.AttemptStatusInProgress,
		StartTime: now,
	}

	if err := s.store.Create(ctx, attempt); err != nil {
		if errors.Is(err, repository.ErrDuplicateActiveAttempt) {
			// Lost a concurrent start race; the winner's attempt is ours too.
			existing, fetchErr := s.store.FindActive(ctx, userID, examID)
			if fetchErr != nil {
				return nil, fmt.Errorf("concurrent start detected, but fetch failed: %w", fetchErr)
			}
			return existing, nil
		}
		return nil, fmt.Errorf("create attempt: %w", err)
	}

	s.log.Info().
		Int("user_id", userID).
		Str("exam_id", examID.String()).
		Str("attempt_id", attempt.ID.String()).
		Msg("Attempt started")

	return attempt, nil
}

// RecordAnswer upserts a single provisional answer. Re-recording the same
// position overwrites; no scoring happens here.
func (s *AttemptService) RecordAnswer(ctx context.Context, attemptID uuid.UUID, position, selectedOption int) error {
	attempt, err := s.store.FindByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAttemptNotFound
		}
		return fmt.Errorf("find attempt: %w", err)
	}
	if attempt.Status != model.AttemptStatusInProgress {
		return ErrAttemptNotActive
	}
	if position < 0 || position >= len(attempt.Questions) {
		return ErrInvalidAnswerPosition
	}

	if err := s.store.UpsertAnswer(ctx, attemptID, position, selectedOption); err != nil {
		if errors.Is(err, repository.ErrAttemptNotActive) {
			// The attempt completed between the read and the write.
			return ErrAttemptNotActive
		}
		return fmt.Errorf("upsert answer: %w", err)
	}
	return nil
}

// Checkpoint persists in-progress state wholesale, best-effort. Transient
// store errors are logged and swallowed: losing a checkpoint must never
// fail the exam session. A terminal attempt still reports ErrAttemptNotActive
// so the client stops checkpointing.
func (s *AttemptService) Checkpoint(ctx context.Context, attemptID uuid.UUID, answers model.AnswerMap, timeLeftSeconds int) error {
	err := s.store.SaveCheckpoint(ctx, attemptID, answers, timeLeftSeconds)
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrAttemptNotActive) {
		return ErrAttemptNotActive
	}
	s.log.Warn().Err(err).
		Str("attempt_id", attemptID.String()).
		Msg("Checkpoint failed, will retry on next interval")
	return nil
}

// Submit finalizes an attempt exactly once.
//
// The answers argument replaces the checkpointed set when non-nil; a nil set
// (timeout auto-submit from a dead client) scores whatever was checkpointed.
// clientEnd, when supplied, is clamped into [startTime, now]; client clocks
// are advisory only. The score is computed against the attempt's frozen
// question snapshot and written through a conditional status update, so of
// two racing submits exactly one completes and the other observes
// ErrAlreadySubmitted with the stored result untouched.
func (s *AttemptService) Submit(ctx context.Context, attemptID uuid.UUID, answers model.AnswerMap, now time.Time, clientEnd *time.Time, violationCount int) (*model.Attempt, error) {
	attempt, err := s.store.FindByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("find attempt: %w", err)
	}
	if attempt.Status != model.AttemptStatusInProgress {
		return nil, ErrAlreadySubmitted
	}

	endTime := now
	if clientEnd != nil && !clientEnd.Before(attempt.StartTime) && clientEnd.Before(now) {
		endTime = *clientEnd
	}
	if endTime.Before(attempt.StartTime) {
		endTime = attempt.StartTime
	}

	final := answers
	if final == nil {
		final = attempt.Answers
	}

	result := scoring.Score(final, attempt.Questions)
	timeTaken := int(math.Round(endTime.Sub(attempt.StartTime).Minutes()))

	if violationCount < attempt.ViolationCount {
		violationCount = attempt.ViolationCount
	}

	completed, err := s.store.Complete(ctx, attemptID, repository.AttemptCompletion{
		Answers:            final.Clone(),
		EndTime:            endTime,
		Score:              result.Percentage,
		TotalMarksObtained: result.TotalMarksObtained,
		TimeTaken:          timeTaken,
		ViolationCount:     violationCount,
	})
	if err != nil {
		if errors.Is(err, repository.ErrAttemptNotActive) {
			return nil, ErrAlreadySubmitted
		}
		return nil, fmt.Errorf("complete attempt: %w", err)
	}

	s.log.Info().
		Str("attempt_id", attemptID.String()).
		Float64("score", result.Percentage).
		Float64("marks", result.TotalMarksObtained).
		Int("violations", violationCount).
		Msg("Attempt submitted and graded")

	return completed, nil
}

// GetAttempt retrieves an attempt by ID.
func (s *AttemptService) GetAttempt(ctx context.Context, attemptID uuid.UUID) (*model.Attempt, error) {
	attempt, err := s.store.FindByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("find attempt: %w", err)
	}
	return attempt, nil
}

// ListUserAttempts retrieves all attempts for a student, newest first.
func (s *AttemptService) ListUserAttempts(ctx context.Context, userID int) ([]model.Attempt, error) {
	return s.store.ListByUser(ctx, userID)
}

// GetExamResults retrieves completed-attempt results for an exam, paginated,
// newest first. Admin reporting surface.
func (s *AttemptService) GetExamResults(ctx context.Context, examID uuid.UUID, page, perPage int) ([]repository.AttemptResult, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return s.store.ListByExam(ctx, examID, page, perPage)
}

// VerifyActiveAttempt checks that the attempt exists, belongs to the user,
// and is still in progress. Used to gate paper download and the live stream.
func (s *AttemptService) VerifyActiveAttempt(ctx context.Context, attemptID uuid.UUID, userID int) (*model.Attempt, error) {
	attempt, err := s.GetAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.UserID != userID {
		return nil, ErrAttemptNotFound
	}
	if attempt.Status != model.AttemptStatusInProgress {
		return nil, ErrAttemptNotActive
	}
	return attempt, nil
}
