package model

import (
	"time"

	"github.com/google/uuid"
)

// AttemptStatus enumerates attempt states. Completed and abandoned are
// terminal; an attempt transitions out of in_progress exactly once.
type AttemptStatus string

const (
	AttemptStatusInProgress AttemptStatus = "in_progress"
	AttemptStatusCompleted  AttemptStatus = "completed"
	AttemptStatusAbandoned  AttemptStatus = "abandoned"
)

// Terminal reports whether the status permits no further mutation.
func (s AttemptStatus) Terminal() bool {
	return s == AttemptStatusCompleted || s == AttemptStatusAbandoned
}

// AnswerMap maps question position to selected option index. Positions not
// present mean unanswered. encoding/json renders the int keys as strings,
// which is what the jsonb column stores.
type AnswerMap map[int]int

// Clone returns an independent copy of the map. A nil receiver yields an
// empty, non-nil map.
func (m AnswerMap) Clone() AnswerMap {
	out := make(AnswerMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Attempt is one student's attempt at an exam. Questions is the frozen copy
// of the exam question set taken at start time; scoring always runs against
// it, never against the live exam definition.
type Attempt struct {
	ID             uuid.UUID     `json:"id"`
	UserID         int           `json:"user_id"`
	ExamID         uuid.UUID     `json:"exam_id"`
	Questions      []Question    `json:"-"`
	Answers        AnswerMap     `json:"answers"`
	Status         AttemptStatus `json:"status"`
	StartTime      time.Time     `json:"start_time"`
	EndTime        *time.Time    `json:"end_time,omitempty"`
	ViolationCount int           `json:"violation_count"`
	// Score is the percentage, TotalMarksObtained the absolute marks. Both
	// are nil until submission.
	Score              *float64 `json:"score,omitempty"`
	TotalMarksObtained *float64 `json:"total_marks_obtained,omitempty"`
	// TimeTaken is whole minutes, rounded, set at submission.
	TimeTaken *int `json:"time_taken,omitempty"`
	// TimeLeftSeconds is the last checkpointed countdown value, used for
	// resume-after-disconnect. Advisory only.
	TimeLeftSeconds *int      `json:"time_left_seconds,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Deadline returns the wall-clock moment the attempt's time budget expires.
func (a *Attempt) Deadline(durationSeconds int) time.Time {
	return a.StartTime.Add(time.Duration(durationSeconds) * time.Second)
}

// Passed reports whether the attempt cleared the passing mark. Only
// meaningful after submission.
func (a *Attempt) Passed(passingMarks float64) bool {
	return a.TotalMarksObtained != nil && *a.TotalMarksObtained >= passingMarks
}

// RecordAnswerRequest is the payload for recording a single answer.
type RecordAnswerRequest struct {
	Position       int `json:"position" binding:"min=0"`
	SelectedOption int `json:"selected_option" binding:"min=0"`
}

// CheckpointRequest is the periodic best-effort save of in-progress state.
type CheckpointRequest struct {
	Answers         AnswerMap `json:"answers" binding:"required"`
	TimeLeftSeconds int       `json:"time_left_seconds" binding:"min=0"`
}

// SubmitAttemptRequest is the payload for final submission. Answers may be
// nil, in which case the last checkpointed answers are scored. EndTime is
// the client's clock and is clamped server-side.
type SubmitAttemptRequest struct {
	Answers        AnswerMap  `json:"answers"`
	EndTime        *time.Time `json:"end_time"`
	ViolationCount int        `json:"violation_count" binding:"min=0"`
}
