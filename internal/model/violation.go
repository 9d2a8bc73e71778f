package model

import (
	"time"

	"github.com/google/uuid"
)

// ViolationKind enumerates the proctoring signals that count as violations.
// Every kind increments the attempt's violation counter by exactly 1.
type ViolationKind string

const (
	ViolationVisibilityLost   ViolationKind = "visibility_lost"
	ViolationFullscreenExited ViolationKind = "fullscreen_exited"
	ViolationBlockedShortcut  ViolationKind = "blocked_shortcut"
	ViolationContextMenu      ViolationKind = "context_menu"
)

// ViolationEvent is one recorded proctoring violation. Events are persisted
// asynchronously; the authoritative per-attempt count lives on the attempt row.
type ViolationEvent struct {
	ID         int64         `json:"id"`
	AttemptID  uuid.UUID     `json:"attempt_id"`
	UserID     int           `json:"user_id"`
	Kind       ViolationKind `json:"kind"`
	RecordedAt time.Time     `json:"recorded_at"`
}
