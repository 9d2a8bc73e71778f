package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Question is a single multiple-choice question. Questions are addressed by
// position within the exam, not by a per-question identifier, so the slice
// order is significant.
type Question struct {
	Text          string   `json:"question_text"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
	Marks         float64  `json:"marks"`
}

// ExamSnapshot is an exam definition as seen by the attempt lifecycle. It is
// immutable for the duration of an attempt: StartAttempt copies Questions into
// the attempt row, so later edits to the exam never alter in-flight or
// already-scored attempts.
type ExamSnapshot struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	SubjectID       *uuid.UUID `json:"subject_id,omitempty"`
	Questions       []Question `json:"questions"`
	DurationSeconds int        `json:"duration_seconds"`
	WindowStart     time.Time  `json:"window_start"`
	WindowEnd       time.Time  `json:"window_end"`
	MaxAttempts     int        `json:"max_attempts"`
	// PassingMarks is an absolute mark count, compared against
	// TotalMarksObtained at classification time.
	PassingMarks float64   `json:"passing_marks"`
	IsActive     bool      `json:"is_active"`
	CreatedBy    int       `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Validate checks the structural invariants of an exam definition.
func (e *ExamSnapshot) Validate() error {
	if e.DurationSeconds <= 0 {
		return errors.New("duration must be positive")
	}
	if !e.WindowStart.Before(e.WindowEnd) {
		return errors.New("window start must be before window end")
	}
	if e.MaxAttempts <= 0 {
		return errors.New("max attempts must be positive")
	}
	if len(e.Questions) == 0 {
		return errors.New("exam has no questions")
	}
	for i, q := range e.Questions {
		if len(q.Options) < 2 {
			return fmt.Errorf("question %d: needs at least 2 options", i)
		}
		if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
			return fmt.Errorf("question %d: correct answer index %d out of range", i, q.CorrectAnswer)
		}
	}
	return nil
}

// WindowOpen reports whether attempt creation is permitted at the given time.
func (e *ExamSnapshot) WindowOpen(now time.Time) bool {
	return !now.Before(e.WindowStart) && !now.After(e.WindowEnd)
}

// TotalMarks sums the marks of all questions. Unweighted questions count as 1.
func (e *ExamSnapshot) TotalMarks() float64 {
	var total float64
	for _, q := range e.Questions {
		marks := q.Marks
		if marks <= 0 {
			marks = 1
		}
		total += marks
	}
	return total
}

// PaperQuestion is a question stripped of its correct answer and marks,
// safe to send to students.
type PaperQuestion struct {
	Text    string   `json:"question_text"`
	Options []string `json:"options"`
}

// ExamPaper is the student-facing view of an exam.
type ExamPaper struct {
	ExamID          uuid.UUID       `json:"exam_id"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	DurationSeconds int             `json:"duration_seconds"`
	Questions       []PaperQuestion `json:"questions"`
}

// Paper builds the student-facing view, dropping correct answers.
func (e *ExamSnapshot) Paper() *ExamPaper {
	questions := make([]PaperQuestion, len(e.Questions))
	for i, q := range e.Questions {
		questions[i] = PaperQuestion{Text: q.Text, Options: q.Options}
	}
	return &ExamPaper{
		ExamID:          e.ID,
		Title:           e.Title,
		Description:     e.Description,
		DurationSeconds: e.DurationSeconds,
		Questions:       questions,
	}
}

// QuestionInput is the payload for a question inside exam create/update requests.
type QuestionInput struct {
	Text          string   `json:"question_text" binding:"required,min=1,max=2000"`
	Options       []string `json:"options" binding:"required,min=2,dive,required"`
	CorrectAnswer int      `json:"correct_answer" binding:"min=0"`
	Marks         float64  `json:"marks" binding:"omitempty,min=0"`
}

// CreateExamRequest is the payload for creating a new exam.
type CreateExamRequest struct {
	Title           string          `json:"title" binding:"required,min=3,max=255"`
	Description     string          `json:"description" binding:"omitempty,max=2000"`
	SubjectID       *uuid.UUID      `json:"subject_id" binding:"omitempty"`
	Questions       []QuestionInput `json:"questions" binding:"required,min=1,dive"`
	DurationSeconds int             `json:"duration_seconds" binding:"required,min=60,max=28800"`
	WindowStart     time.Time       `json:"window_start" binding:"required"`
	WindowEnd       time.Time       `json:"window_end" binding:"required,gtfield=WindowStart"`
	MaxAttempts     int             `json:"max_attempts" binding:"omitempty,min=1,max=10"`
	PassingMarks    float64         `json:"passing_marks" binding:"min=0"`
}

// UpdateExamRequest is the payload for updating an existing exam.
type UpdateExamRequest struct {
	Title           string          `json:"title" binding:"omitempty,min=3,max=255"`
	Description     *string         `json:"description" binding:"omitempty,max=2000"`
	Questions       []QuestionInput `json:"questions" binding:"omitempty,min=1,dive"`
	DurationSeconds int             `json:"duration_seconds" binding:"omitempty,min=60,max=28800"`
	WindowStart     *time.Time      `json:"window_start" binding:"omitempty"`
	WindowEnd       *time.Time      `json:"window_end" binding:"omitempty"`
	MaxAttempts     int             `json:"max_attempts" binding:"omitempty,min=1,max=10"`
	PassingMarks    *float64        `json:"passing_marks" binding:"omitempty,min=0"`
	IsActive        *bool           `json:"is_active" binding:"omitempty"`
}
