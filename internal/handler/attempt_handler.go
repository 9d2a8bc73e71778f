package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/invigo/invigo-backend/internal/middleware"
	"github.com/invigo/invigo-backend/internal/model"
	"github.com/invigo/invigo-backend/internal/response"
	"github.com/invigo/invigo-backend/internal/service"
	"github.com/invigo/invigo-backend/internal/validator"
)

// AttemptHandler handles the student-facing attempt lifecycle endpoints.
type AttemptHandler struct {
	attemptService *service.AttemptService
	examService    *service.ExamService
}

// NewAttemptHandler creates a new AttemptHandler.
func NewAttemptHandler(attemptService *service.AttemptService, examService *service.ExamService) *AttemptHandler {
	return &AttemptHandler{
		attemptService: attemptService,
		examService:    examService,
	}
}

// failAttemptError translates attempt lifecycle errors into API responses.
func failAttemptError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExamUnavailable):
		response.Fail(c, http.StatusForbidden, response.ErrExamUnavailable)
	case errors.Is(err, service.ErrAttemptLimitExceeded):
		response.Fail(c, http.StatusForbidden, response.ErrAttemptLimitExceeded)
	case errors.Is(err, service.ErrAttemptNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrAttemptNotActive):
		response.Fail(c, http.StatusConflict, response.ErrAttemptNotActive)
	case errors.Is(err, service.ErrAlreadySubmitted):
		response.Fail(c, http.StatusConflict, response.ErrAlreadySubmitted)
	case errors.Is(err, service.ErrInvalidAnswerPosition):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidAnswerPosition)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// GetLobby godoc
// GET /api/v1/student/exams
// Returns the exams currently open for attempts, without questions.
func (h *AttemptHandler) GetLobby(c *gin.Context) {
	exams, err := h.examService.ListAvailable(c.Request.Context(), time.Now())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	lobby := make([]gin.H, 0, len(exams))
	for _, e := range exams {
		lobby = append(lobby, gin.H{
			"id":               e.ID,
			"title":            e.Title,
			"description":      e.Description,
			"subject_id":       e.SubjectID,
			"duration_seconds": e.DurationSeconds,
			"window_start":     e.WindowStart,
			"window_end":       e.WindowEnd,
			"max_attempts":     e.MaxAttempts,
			"question_count":   len(e.Questions),
			"total_marks":      e.TotalMarks(),
		})
	}

	response.Success(c, http.StatusOK, gin.H{"exams": lobby})
}

// StartAttempt godoc
// POST /api/v1/student/exams/:exam_id/attempts
// Creates an attempt, or resumes the live one. The response carries the
// paper plus any checkpointed answers so a reconnecting client can restore
// its state.
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	attempt, err := h.attemptService.StartAttempt(c.Request.Context(), claims.UserID, examID, time.Now())
	if err != nil {
		failAttemptError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"attempt": attempt,
		"paper":   paperFromQuestions(attempt.Questions),
	})
}

// GetPaper godoc
// GET /api/v1/student/attempts/:attempt_id/paper
// Returns the frozen question set of a live attempt, stripped of answers.
func (h *AttemptHandler) GetPaper(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	attempt, err := h.attemptService.VerifyActiveAttempt(c.Request.Context(), attemptID, claims.UserID)
	if err != nil {
		failAttemptError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"paper":             paperFromQuestions(attempt.Questions),
		"answers":           attempt.Answers,
		"time_left_seconds": attempt.TimeLeftSeconds,
	})
}

// RecordAnswer godoc
// POST /api/v1/student/attempts/:attempt_id/answers
// Records a single provisional answer.
func (h *AttemptHandler) RecordAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.RecordAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if _, err := h.attemptService.VerifyActiveAttempt(c.Request.Context(), attemptID, claims.UserID); err != nil {
		failAttemptError(c, err)
		return
	}

	if err := h.attemptService.RecordAnswer(c.Request.Context(), attemptID, req.Position, req.SelectedOption); err != nil {
		failAttemptError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "saved"})
}

// Checkpoint godoc
// PUT /api/v1/student/attempts/:attempt_id/checkpoint
// Persists the full in-progress state. Best-effort: a transient failure
// still returns 200 so the client keeps its interval timer running.
func (h *AttemptHandler) Checkpoint(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.CheckpointRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if _, err := h.attemptService.VerifyActiveAttempt(c.Request.Context(), attemptID, claims.UserID); err != nil {
		failAttemptError(c, err)
		return
	}

	if err := h.attemptService.Checkpoint(c.Request.Context(), attemptID, req.Answers, req.TimeLeftSeconds); err != nil {
		failAttemptError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "checkpointed"})
}

// Submit godoc
// POST /api/v1/student/attempts/:attempt_id/submit
// Finalizes and grades the attempt. Safe to retry: a duplicate submission
// returns ALREADY_SUBMITTED and the stored result is untouched.
func (h *AttemptHandler) Submit(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SubmitAttemptRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	owned, err := h.attemptService.GetAttempt(c.Request.Context(), attemptID)
	if err != nil {
		failAttemptError(c, err)
		return
	}
	if owned.UserID != claims.UserID {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	attempt, err := h.attemptService.Submit(c.Request.Context(), attemptID, req.Answers, time.Now(), req.EndTime, req.ViolationCount)
	if err != nil {
		failAttemptError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"attempt": attempt,
		"result": gin.H{
			"score":                attempt.Score,
			"total_marks_obtained": attempt.TotalMarksObtained,
			"time_taken_minutes":   attempt.TimeTaken,
			"violation_count":      attempt.ViolationCount,
		},
	})
}

// ListMyAttempts godoc
// GET /api/v1/student/attempts
// Returns all of the student's attempts, newest first.
func (h *AttemptHandler) ListMyAttempts(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attempts, err := h.attemptService.ListUserAttempts(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if attempts == nil {
		attempts = []model.Attempt{}
	}

	response.Success(c, http.StatusOK, gin.H{"attempts": attempts})
}

// GetAttempt godoc
// GET /api/v1/student/attempts/:attempt_id
// Returns one attempt for review. Correct answers are disclosed only once
// the attempt is completed and the exam window has closed.
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	attempt, err := h.attemptService.GetAttempt(c.Request.Context(), attemptID)
	if err != nil {
		failAttemptError(c, err)
		return
	}
	if attempt.UserID != claims.UserID {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	payload := gin.H{"attempt": attempt}

	if attempt.Status == model.AttemptStatusCompleted {
		snap, err := h.examService.GetSnapshot(c.Request.Context(), attempt.ExamID)
		if err == nil {
			payload["passed"] = attempt.Passed(snap.PassingMarks)
			payload["passing_marks"] = snap.PassingMarks
			if time.Now().After(snap.WindowEnd) {
				// Window closed, safe to reveal the key for review.
				payload["questions"] = attempt.Questions
			}
		}
	}

	response.Success(c, http.StatusOK, payload)
}

func paperFromQuestions(questions []model.Question) []model.PaperQuestion {
	paper := make([]model.PaperQuestion, len(questions))
	for i, q := range questions {
		paper[i] = model.PaperQuestion{Text: q.Text, Options: q.Options}
	}
	return paper
}
