package repository

import "errors"

// Sentinel errors shared by all repositories. Services match these with
// errors.Is and translate them into their own domain errors.
var (
	// ErrNotFound signals that the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict signals a uniqueness violation (duplicate email, etc).
	ErrConflict = errors.New("already exists")
	// ErrDuplicateActiveAttempt signals that an in_progress attempt already
	// exists for the (user, exam) pair. Raised by the partial unique index,
	// so concurrent creates resolve to exactly one row.
	ErrDuplicateActiveAttempt = errors.New("active attempt already exists")
	// ErrAttemptNotActive signals a conditional update that matched no row
	// because the attempt is no longer in_progress.
	ErrAttemptNotActive = errors.New("attempt is not in progress")
)
