package proctor

import (
	"sync"
	"testing"
	"time"

	"github.com/invigo/invigo-backend/internal/model"
)

func TestMonitorIgnoresReportsUntilArmed(t *testing.T) {
	m := NewMonitor(3, 0, nil)

	// Load-time signals (fullscreen-entry race) must not count.
	count, state := m.Report(model.ViolationFullscreenExited)
	if count != 0 || state != Clean {
		t.Fatalf("disarmed report counted: count=%d state=%v", count, state)
	}

	m.Arm()
	count, state = m.Report(model.ViolationFullscreenExited)
	if count != 1 || state != Warned {
		t.Fatalf("armed report not counted: count=%d state=%v", count, state)
	}
}

func TestMonitorEveryKindIncrementsByOne(t *testing.T) {
	kinds := []model.ViolationKind{
		model.ViolationVisibilityLost,
		model.ViolationFullscreenExited,
		model.ViolationBlockedShortcut,
		model.ViolationContextMenu,
	}

	m := NewMonitor(len(kinds)+1, 0, nil)
	m.Arm()

	for i, kind := range kinds {
		count, _ := m.Report(kind)
		if count != i+1 {
			t.Fatalf("after %s: count = %d, want %d", kind, count, i+1)
		}
	}
}

func TestMonitorAutoSubmitsOnThirdViolation(t *testing.T) {
	submitted := make(chan int, 1)
	m := NewMonitor(3, time.Millisecond, func(count int) {
		submitted <- count
	})
	m.Arm()

	m.Report(model.ViolationVisibilityLost)
	m.Report(model.ViolationBlockedShortcut)
	count, state := m.Report(model.ViolationContextMenu)
	if count != 3 || state != AutoSubmitting {
		t.Fatalf("third violation: count=%d state=%v, want 3/AutoSubmitting", count, state)
	}

	select {
	case got := <-submitted:
		if got != 3 {
			t.Fatalf("submit called with count %d, want 3", got)
		}
	case <-time.After(time.Second):
		t.Fatal("submit was not invoked after grace delay")
	}
}

func TestMonitorAutoSubmittingIsOneWay(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	m := NewMonitor(3, 0, func(int) {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	m.Arm()

	for i := 0; i < 10; i++ {
		m.Report(model.ViolationVisibilityLost)
	}

	if got := m.Count(); got != 3 {
		t.Errorf("count after extra reports = %d, want 3 (frozen)", got)
	}
	if got := m.State(); got != AutoSubmitting {
		t.Errorf("state = %v, want AutoSubmitting", got)
	}
	if got := m.Remaining(); got != 0 {
		t.Errorf("remaining = %d, want 0", got)
	}

	// Give the single timer a chance to fire; there must be exactly one.
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("submit invoked %d times, want exactly 1", calls)
	}
}

func TestMonitorRemaining(t *testing.T) {
	m := NewMonitor(3, 0, nil)
	m.Arm()

	if got := m.Remaining(); got != 3 {
		t.Fatalf("initial remaining = %d, want 3", got)
	}
	m.Report(model.ViolationVisibilityLost)
	if got := m.Remaining(); got != 2 {
		t.Fatalf("after one violation remaining = %d, want 2", got)
	}
}
