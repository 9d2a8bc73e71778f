package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer     Action = "answer"
	ActionCheckpoint Action = "checkpoint"
	ActionViolation  Action = "violation"
	ActionSubmit     Action = "submit"
	ActionPing       Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// AnswerRequest is sent by the client to record a single answer.
type AnswerRequest struct {
	Action         Action `json:"action"`
	Position       int    `json:"position"`
	SelectedOption int    `json:"selected_option"`
}

// CheckpointRequest is sent periodically with the full in-progress state.
type CheckpointRequest struct {
	Action          Action      `json:"action"`
	Answers         map[int]int `json:"answers"`
	TimeLeftSeconds int         `json:"time_left_seconds"`
}

// ViolationRequest is sent by the client when the proctoring monitor fires.
type ViolationRequest struct {
	Action Action `json:"action"`
	Kind   string `json:"kind"`
}

// SubmitRequest is sent by the client to finish and grade the attempt.
type SubmitRequest struct {
	Action         Action      `json:"action"`
	Answers        map[int]int `json:"answers"`
	EndTime        string      `json:"end_time"` // RFC 3339, advisory
	ViolationCount int         `json:"violation_count"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError      Event = "error"
	EventSuccess    Event = "success"
	EventGraded     Event = "graded"
	EventWarning    Event = "warning"
	EventAutoSubmit Event = "auto_submit"
	EventPong       Event = "pong"
)

type AckResponse struct {
	Event  Event  `json:"event"`
	Status string `json:"status"`
}

// WarningResponse tells the client how many violations remain before the
// attempt is force-submitted.
type WarningResponse struct {
	Event     Event `json:"event"`
	Count     int   `json:"count"`
	Remaining int   `json:"remaining"`
}

// GradedResponse is the terminal event carrying the final result.
type GradedResponse struct {
	Event              Event   `json:"event"`
	Status             string  `json:"status"`
	Score              float64 `json:"score"`
	TotalMarksObtained float64 `json:"total_marks_obtained"`
	ViolationCount     int     `json:"violation_count"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
