package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/invigo/invigo-backend/internal/config"
	"github.com/invigo/invigo-backend/internal/model"
	"github.com/invigo/invigo-backend/internal/repository"
	"github.com/invigo/invigo-backend/internal/response"
)

// ErrInvalidExamDefinition wraps structural validation failures of an exam
// definition (empty question list, bad answer indexes, inverted window).
var ErrInvalidExamDefinition = errors.New("invalid exam definition")

// ExamService implements the exam catalog: admin CRUD over definitions plus
// a Redis read-through cache for the hot paths (StartAttempt and paper
// download hit GetSnapshot, not PostgreSQL).
type ExamService struct {
	examRepo *repository.ExamRepository
	rdb      *redis.Client
	log      zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(examRepo *repository.ExamRepository, rdb *redis.Client, log zerolog.Logger) *ExamService {
	return &ExamService{
		examRepo: examRepo,
		rdb:      rdb,
		log:      log.With().Str("component", "exam_service").Logger(),
	}
}

// GetSnapshot returns the exam definition, from Redis when warm, falling
// back to PostgreSQL and re-warming on a miss. Cache failures degrade to the
// database rather than failing the request.
func (s *ExamService) GetSnapshot(ctx context.Context, examID uuid.UUID) (*model.ExamSnapshot, error) {
	key := config.CacheKey.ExamSnapshotKey(examID.String())

	data, err := s.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var snap model.ExamSnapshot
		if jsonErr := json.Unmarshal(data, &snap); jsonErr == nil {
			return &snap, nil
		}
		// Corrupt entry, drop it and fall through to the database.
		s.rdb.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Snapshot cache read failed")
	}

	snap, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return nil, err
	}

	if err := s.warmCache(ctx, snap); err != nil {
		s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Snapshot cache warm failed")
	}
	return snap, nil
}

// GetPaper returns the student-facing view of an exam, cached separately so
// the correct answers never sit in a payload that is sent to clients.
func (s *ExamService) GetPaper(ctx context.Context, examID uuid.UUID) (*model.ExamPaper, error) {
	key := config.CacheKey.ExamPaperKey(examID.String())

	data, err := s.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var paper model.ExamPaper
		if jsonErr := json.Unmarshal(data, &paper); jsonErr == nil {
			return &paper, nil
		}
		s.rdb.Del(ctx, key)
	}

	snap, err := s.GetSnapshot(ctx, examID)
	if err != nil {
		return nil, err
	}
	return snap.Paper(), nil
}

// warmCache stores the full snapshot and the stripped paper in one pipeline
// so readers never observe one without the other.
func (s *ExamService) warmCache(ctx context.Context, snap *model.ExamSnapshot) error {
	snapJSON, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	paperJSON, err := json.Marshal(snap.Paper())
	if err != nil {
		return fmt.Errorf("marshal paper: %w", err)
	}

	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.ExamSnapshotKey(snap.ID.String()), snapJSON, 0)
	pipe.Set(ctx, config.CacheKey.ExamPaperKey(snap.ID.String()), paperJSON, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache to redis: %w", err)
	}

	s.log.Debug().
		Str("exam_id", snap.ID.String()).
		Int("questions", len(snap.Questions)).
		Msg("Exam cache warmed")
	return nil
}

// invalidateCache drops both cached views of an exam.
func (s *ExamService) invalidateCache(ctx context.Context, examID uuid.UUID) {
	pipe := s.rdb.Pipeline()
	pipe.Del(ctx, config.CacheKey.ExamSnapshotKey(examID.String()))
	pipe.Del(ctx, config.CacheKey.ExamPaperKey(examID.String()))
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Cache invalidation failed")
	}
}

// PrewarmAllCaches loads every active exam into Redis on application startup
// so the first wave of students never stampedes PostgreSQL.
func (s *ExamService) PrewarmAllCaches(ctx context.Context) error {
	exams, err := s.examRepo.ListAvailable(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("list available exams: %w", err)
	}

	if len(exams) == 0 {
		s.log.Info().Msg("No active exams to prewarm")
		return nil
	}

	warmed := 0
	for i := range exams {
		if err := s.warmCache(ctx, &exams[i]); err != nil {
			s.log.Warn().
				Err(err).
				Str("exam_id", exams[i].ID.String()).
				Msg("Failed to warm exam, skipping")
			continue
		}
		warmed++
	}

	s.log.Info().
		Int("warmed", warmed).
		Int("total", len(exams)).
		Msg("Prewarming complete")
	return nil
}

// Create validates and inserts a new exam definition.
func (s *ExamService) Create(ctx context.Context, req *model.CreateExamRequest, createdBy int) (*model.ExamSnapshot, error) {
	maxAttempts := req.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = 1
	}

	snap := &model.ExamSnapshot{
		ID:              uuid.New(),
		Title:           req.Title,
		Description:     req.Description,
		SubjectID:       req.SubjectID,
		Questions:       questionsFromInput(req.Questions),
		DurationSeconds: req.DurationSeconds,
		WindowStart:     req.WindowStart,
		WindowEnd:       req.WindowEnd,
		MaxAttempts:     maxAttempts,
		PassingMarks:    req.PassingMarks,
		IsActive:        true,
		CreatedBy:       createdBy,
	}

	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidExamDefinition, err)
	}

	if err := s.examRepo.Create(ctx, snap); err != nil {
		return nil, fmt.Errorf("create exam: %w", err)
	}

	s.log.Info().
		Str("exam_id", snap.ID.String()).
		Int("created_by", createdBy).
		Msg("Exam created")
	return snap, nil
}

// Update applies a partial update to an exam definition and invalidates its
// cache. In-flight attempts are untouched, their question set was frozen at
// start.
func (s *ExamService) Update(ctx context.Context, examID uuid.UUID, req *model.UpdateExamRequest) (*model.ExamSnapshot, error) {
	snap, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return nil, err
	}

	if req.Title != "" {
		snap.Title = req.Title
	}
	if req.Description != nil {
		snap.Description = *req.Description
	}
	if req.Questions != nil {
		snap.Questions = questionsFromInput(req.Questions)
	}
	if req.DurationSeconds != 0 {
		snap.DurationSeconds = req.DurationSeconds
	}
	if req.WindowStart != nil {
		snap.WindowStart = *req.WindowStart
	}
	if req.WindowEnd != nil {
		snap.WindowEnd = *req.WindowEnd
	}
	if req.MaxAttempts != 0 {
		snap.MaxAttempts = req.MaxAttempts
	}
	if req.PassingMarks != nil {
		snap.PassingMarks = *req.PassingMarks
	}
	if req.IsActive != nil {
		snap.IsActive = *req.IsActive
	}

	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidExamDefinition, err)
	}

	if err := s.examRepo.Update(ctx, snap); err != nil {
		return nil, fmt.Errorf("update exam: %w", err)
	}
	s.invalidateCache(ctx, examID)

	return snap, nil
}

// Delete removes an exam definition and its cached views.
func (s *ExamService) Delete(ctx context.Context, examID uuid.UUID) error {
	if err := s.examRepo.Delete(ctx, examID); err != nil {
		return err
	}
	s.invalidateCache(ctx, examID)
	return nil
}

// GetByID retrieves an exam definition straight from PostgreSQL, for admin
// views where staleness is not acceptable.
func (s *ExamService) GetByID(ctx context.Context, examID uuid.UUID) (*model.ExamSnapshot, error) {
	return s.examRepo.GetByID(ctx, examID)
}

// List retrieves exam definitions for admins, paginated.
func (s *ExamService) List(ctx context.Context, page, perPage int) ([]model.ExamSnapshot, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	exams, total, err := s.examRepo.List(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	if exams == nil {
		exams = []model.ExamSnapshot{}
	}

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	}
	return exams, pagination, nil
}

// ListAvailable retrieves exams a student can sit right now: active and
// inside their scheduling window. Correct answers are stripped by the
// handler before rendering.
func (s *ExamService) ListAvailable(ctx context.Context, now time.Time) ([]model.ExamSnapshot, error) {
	exams, err := s.examRepo.ListAvailable(ctx, now)
	if err != nil {
		return nil, err
	}
	if exams == nil {
		exams = []model.ExamSnapshot{}
	}
	return exams, nil
}

// ListBySubject retrieves the exams attached to one subject.
func (s *ExamService) ListBySubject(ctx context.Context, subjectID uuid.UUID) ([]model.ExamSnapshot, error) {
	return s.examRepo.ListBySubject(ctx, subjectID)
}

func questionsFromInput(inputs []model.QuestionInput) []model.Question {
	questions := make([]model.Question, len(inputs))
	for i, in := range inputs {
		questions[i] = model.Question{
			Text:          in.Text,
			Options:       in.Options,
			CorrectAnswer: in.CorrectAnswer,
			Marks:         in.Marks,
		}
	}
	return questions
}
