// Package proctor implements the client-resident violation monitor for a
// single exam session. The server trusts the submitted violation count only
// upward (it never decreases a persisted count); this state machine is the
// contract the exam client follows to produce it.
package proctor

import (
	"sync"
	"time"

	"github.com/invigo/invigo-backend/internal/model"
)

// State is the monitor's position in its one-way lifecycle.
type State int

const (
	// Clean: no violations recorded yet.
	Clean State = iota
	// Warned: 1 or 2 violations; the client shows a warning each time.
	Warned
	// AutoSubmitting: the violation limit was reached and submission has
	// been scheduled. There is no way out of this state.
	AutoSubmitting
)

func (s State) String() string {
	switch s {
	case Clean:
		return "clean"
	case Warned:
		return "warned"
	case AutoSubmitting:
		return "auto_submitting"
	default:
		return "unknown"
	}
}

// SubmitFunc is invoked once, after the grace delay, when the violation
// limit is reached. It receives the final violation count.
type SubmitFunc func(violationCount int)

// Monitor tracks proctoring violations for one active exam session.
//
// The monitor starts disarmed: signals that fire during initial page load and
// the fullscreen-entry race are ignored until Arm is called (once the first
// question has rendered). Every violation kind increments the count by
// exactly 1. On reaching the limit the monitor transitions to AutoSubmitting,
// schedules the submit callback after the grace delay, and ignores all
// further reports. The transition is deliberately irreversible.
type Monitor struct {
	mu         sync.Mutex
	armed      bool
	count      int
	state      State
	limit      int
	graceDelay time.Duration
	submit     SubmitFunc
	timer      *time.Timer
}

// NewMonitor creates a Monitor. limit must be at least 1; the conventional
// portal value is 3. submit may be nil for observation-only use.
func NewMonitor(limit int, graceDelay time.Duration, submit SubmitFunc) *Monitor {
	if limit < 1 {
		limit = 1
	}
	return &Monitor{
		limit:      limit,
		graceDelay: graceDelay,
		submit:     submit,
		state:      Clean,
	}
}

// Arm enables violation counting. Call after the first question has rendered.
func (m *Monitor) Arm() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.armed = true
}

// Armed reports whether the monitor is counting violations.
func (m *Monitor) Armed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.armed
}

// Report records one violation of the given kind. Returns the count and
// state after the report. Reports are ignored while disarmed and once the
// monitor is AutoSubmitting.
func (m *Monitor) Report(kind model.ViolationKind) (int, State) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.armed || m.state == AutoSubmitting {
		return m.count, m.state
	}

	m.count++
	if m.count >= m.limit {
		m.state = AutoSubmitting
		count := m.count
		// Grace delay lets the final warning render before submission.
		m.timer = time.AfterFunc(m.graceDelay, func() {
			if m.submit != nil {
				m.submit(count)
			}
		})
	} else {
		m.state = Warned
	}
	return m.count, m.state
}

// Count returns the current violation count.
func (m *Monitor) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}

// State returns the current state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Remaining returns how many further violations the session survives before
// auto-submission. Used for the warning copy shown to the student.
func (m *Monitor) Remaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == AutoSubmitting {
		return 0
	}
	return m.limit - m.count
}
