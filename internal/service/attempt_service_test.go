package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/invigo/invigo-backend/internal/model"
	"github.com/invigo/invigo-backend/internal/repository"
)

// fakeStore is an in-memory AttemptStore that reproduces the database's two
// atomic guarantees: at most one in_progress attempt per (user, exam) on
// Create, and a conditional status transition on Complete.
type fakeStore struct {
	mu            sync.Mutex
	attempts      map[uuid.UUID]*model.Attempt
	checkpointErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{attempts: make(map[uuid.UUID]*model.Attempt)}
}

func cloneAttempt(a *model.Attempt) *model.Attempt {
	out := *a
	out.Answers = a.Answers.Clone()
	out.Questions = append([]model.Question(nil), a.Questions...)
	return &out
}

func (f *fakeStore) Create(ctx context.Context, a *model.Attempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.attempts {
		if existing.UserID == a.UserID && existing.ExamID == a.ExamID &&
			existing.Status == model.AttemptStatusInProgress {
			return repository.ErrDuplicateActiveAttempt
		}
	}
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	f.attempts[a.ID] = cloneAttempt(a)
	return nil
}

func (f *fakeStore) FindByID(ctx context.Context, id uuid.UUID) (*model.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attempts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneAttempt(a), nil
}

func (f *fakeStore) FindActive(ctx context.Context, userID int, examID uuid.UUID) (*model.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.attempts {
		if a.UserID == userID && a.ExamID == examID && a.Status == model.AttemptStatusInProgress {
			return cloneAttempt(a), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) CountByUserAndExam(ctx context.Context, userID int, examID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, a := range f.attempts {
		if a.UserID == userID && a.ExamID == examID {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) UpsertAnswer(ctx context.Context, id uuid.UUID, position, selectedOption int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attempts[id]
	if !ok {
		return repository.ErrNotFound
	}
	if a.Status != model.AttemptStatusInProgress {
		return repository.ErrAttemptNotActive
	}
	if a.Answers == nil {
		a.Answers = model.AnswerMap{}
	}
	a.Answers[position] = selectedOption
	return nil
}

func (f *fakeStore) SaveCheckpoint(ctx context.Context, id uuid.UUID, answers model.AnswerMap, timeLeftSeconds int) error {
	if f.checkpointErr != nil {
		return f.checkpointErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attempts[id]
	if !ok {
		return repository.ErrNotFound
	}
	if a.Status != model.AttemptStatusInProgress {
		return repository.ErrAttemptNotActive
	}
	a.Answers = answers.Clone()
	a.TimeLeftSeconds = &timeLeftSeconds
	return nil
}

func (f *fakeStore) Complete(ctx context.Context, id uuid.UUID, fin repository.AttemptCompletion) (*model.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attempts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if a.Status != model.AttemptStatusInProgress {
		return nil, repository.ErrAttemptNotActive
	}
	a.Status = model.AttemptStatusCompleted
	a.Answers = fin.Answers.Clone()
	end := fin.EndTime
	a.EndTime = &end
	score := fin.Score
	marks := fin.TotalMarksObtained
	taken := fin.TimeTaken
	a.Score = &score
	a.TotalMarksObtained = &marks
	a.TimeTaken = &taken
	if fin.ViolationCount > a.ViolationCount {
		a.ViolationCount = fin.ViolationCount
	}
	a.UpdatedAt = time.Now()
	return cloneAttempt(a), nil
}

func (f *fakeStore) ListByUser(ctx context.Context, userID int) ([]model.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Attempt
	for _, a := range f.attempts {
		if a.UserID == userID {
			out = append(out, *cloneAttempt(a))
		}
	}
	return out, nil
}

func (f *fakeStore) ListByExam(ctx context.Context, examID uuid.UUID, page, perPage int) ([]repository.AttemptResult, int64, error) {
	return nil, 0, nil
}

type fakeCatalog struct {
	mu    sync.Mutex
	snaps map[uuid.UUID]*model.ExamSnapshot
}

func (f *fakeCatalog) GetSnapshot(ctx context.Context, examID uuid.UUID) (*model.ExamSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap, ok := f.snaps[examID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *snap
	cp.Questions = append([]model.Question(nil), snap.Questions...)
	return &cp, nil
}

func testSnapshot(maxAttempts int) *model.ExamSnapshot {
	now := time.Now()
	return &model.ExamSnapshot{
		ID:    uuid.New(),
		Title: "Operating Systems Midterm",
		Questions: []model.Question{
			{Text: "Q1", Options: []string{"a", "b", "c"}, CorrectAnswer: 0, Marks: 1},
			{Text: "Q2", Options: []string{"a", "b", "c"}, CorrectAnswer: 1, Marks: 1},
			{Text: "Q3", Options: []string{"a", "b", "c"}, CorrectAnswer: 2, Marks: 1},
		},
		DurationSeconds: 1800,
		WindowStart:     now.Add(-time.Hour),
		WindowEnd:       now.Add(time.Hour),
		MaxAttempts:     maxAttempts,
		PassingMarks:    2,
		IsActive:        true,
	}
}

func newTestService(snaps ...*model.ExamSnapshot) (*AttemptService, *fakeStore, *fakeCatalog) {
	store := newFakeStore()
	catalog := &fakeCatalog{snaps: make(map[uuid.UUID]*model.ExamSnapshot)}
	for _, s := range snaps {
		catalog.snaps[s.ID] = s
	}
	svc := NewAttemptService(store, catalog, zerolog.Nop())
	return svc, store, catalog
}

func TestStartAttemptFreezesQuestions(t *testing.T) {
	snap := testSnapshot(3)
	svc, _, catalog := newTestService(snap)
	ctx := context.Background()

	attempt, err := svc.StartAttempt(ctx, 1, snap.ID, time.Now())
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}
	if attempt.Status != model.AttemptStatusInProgress {
		t.Fatalf("status = %s, want in_progress", attempt.Status)
	}
	if len(attempt.Questions) != 3 {
		t.Fatalf("frozen questions = %d, want 3", len(attempt.Questions))
	}

	// Editing the exam after start must not leak into the attempt.
	catalog.mu.Lock()
	catalog.snaps[snap.ID].Questions[0].CorrectAnswer = 2
	catalog.mu.Unlock()

	got, err := svc.Submit(ctx, attempt.ID, model.AnswerMap{0: 0, 1: 1, 2: 2}, time.Now(), nil, 0)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if *got.TotalMarksObtained != 3 {
		t.Errorf("marks = %v, want 3 (scored against frozen snapshot)", *got.TotalMarksObtained)
	}
	if *got.Score != 100 {
		t.Errorf("score = %v, want 100", *got.Score)
	}
}

func TestStartAttemptResumesActive(t *testing.T) {
	snap := testSnapshot(1)
	svc, _, _ := newTestService(snap)
	ctx := context.Background()

	first, err := svc.StartAttempt(ctx, 1, snap.ID, time.Now())
	if err != nil {
		t.Fatalf("first StartAttempt: %v", err)
	}
	// Even at the attempt cap, a live attempt resumes instead of erroring.
	second, err := svc.StartAttempt(ctx, 1, snap.ID, time.Now())
	if err != nil {
		t.Fatalf("second StartAttempt: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("resumed attempt ID = %s, want %s", second.ID, first.ID)
	}
}

func TestStartAttemptEnforcesCap(t *testing.T) {
	snap := testSnapshot(2)
	svc, _, _ := newTestService(snap)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		attempt, err := svc.StartAttempt(ctx, 1, snap.ID, time.Now())
		if err != nil {
			t.Fatalf("StartAttempt %d: %v", i+1, err)
		}
		if _, err := svc.Submit(ctx, attempt.ID, nil, time.Now(), nil, 0); err != nil {
			t.Fatalf("Submit %d: %v", i+1, err)
		}
	}

	_, err := svc.StartAttempt(ctx, 1, snap.ID, time.Now())
	if !errors.Is(err, ErrAttemptLimitExceeded) {
		t.Errorf("third start err = %v, want ErrAttemptLimitExceeded", err)
	}

	// A different student is unaffected.
	if _, err := svc.StartAttempt(ctx, 2, snap.ID, time.Now()); err != nil {
		t.Errorf("other user StartAttempt: %v", err)
	}
}

func TestStartAttemptUnavailableExam(t *testing.T) {
	now := time.Now()

	inactive := testSnapshot(1)
	inactive.IsActive = false

	closed := testSnapshot(1)
	closed.WindowStart = now.Add(-2 * time.Hour)
	closed.WindowEnd = now.Add(-time.Hour)

	notYet := testSnapshot(1)
	notYet.WindowStart = now.Add(time.Hour)
	notYet.WindowEnd = now.Add(2 * time.Hour)

	svc, _, _ := newTestService(inactive, closed, notYet)
	ctx := context.Background()

	tests := []struct {
		name   string
		examID uuid.UUID
	}{
		{"inactive", inactive.ID},
		{"window closed", closed.ID},
		{"window not open yet", notYet.ID},
		{"unknown exam", uuid.New()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.StartAttempt(ctx, 1, tt.examID, now)
			if !errors.Is(err, ErrExamUnavailable) {
				t.Errorf("err = %v, want ErrExamUnavailable", err)
			}
		})
	}
}

func TestStartAttemptConcurrent(t *testing.T) {
	snap := testSnapshot(5)
	svc, store, _ := newTestService(snap)
	ctx := context.Background()

	const racers = 16
	ids := make([]uuid.UUID, racers)
	errs := make([]error, racers)

	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			attempt, err := svc.StartAttempt(ctx, 1, snap.ID, time.Now())
			if err != nil {
				errs[i] = err
				return
			}
			ids[i] = attempt.ID
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("racer %d: %v", i, err)
		}
	}
	for i := 1; i < racers; i++ {
		if ids[i] != ids[0] {
			t.Fatalf("racer %d got attempt %s, racer 0 got %s", i, ids[i], ids[0])
		}
	}

	count, _ := store.CountByUserAndExam(ctx, 1, snap.ID)
	if count != 1 {
		t.Errorf("stored attempts = %d, want 1", count)
	}
}

func TestRecordAnswer(t *testing.T) {
	snap := testSnapshot(1)
	svc, _, _ := newTestService(snap)
	ctx := context.Background()

	attempt, err := svc.StartAttempt(ctx, 1, snap.ID, time.Now())
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}

	if err := svc.RecordAnswer(ctx, attempt.ID, 0, 1); err != nil {
		t.Fatalf("RecordAnswer: %v", err)
	}
	// Re-recording the same position overwrites.
	if err := svc.RecordAnswer(ctx, attempt.ID, 0, 2); err != nil {
		t.Fatalf("RecordAnswer overwrite: %v", err)
	}

	got, err := svc.GetAttempt(ctx, attempt.ID)
	if err != nil {
		t.Fatalf("GetAttempt: %v", err)
	}
	if got.Answers[0] != 2 {
		t.Errorf("answer at 0 = %d, want 2", got.Answers[0])
	}

	if err := svc.RecordAnswer(ctx, attempt.ID, 3, 0); !errors.Is(err, ErrInvalidAnswerPosition) {
		t.Errorf("out-of-range err = %v, want ErrInvalidAnswerPosition", err)
	}
	if err := svc.RecordAnswer(ctx, attempt.ID, -1, 0); !errors.Is(err, ErrInvalidAnswerPosition) {
		t.Errorf("negative position err = %v, want ErrInvalidAnswerPosition", err)
	}
	if err := svc.RecordAnswer(ctx, uuid.New(), 0, 0); !errors.Is(err, ErrAttemptNotFound) {
		t.Errorf("unknown attempt err = %v, want ErrAttemptNotFound", err)
	}

	if _, err := svc.Submit(ctx, attempt.ID, nil, time.Now(), nil, 0); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := svc.RecordAnswer(ctx, attempt.ID, 0, 1); !errors.Is(err, ErrAttemptNotActive) {
		t.Errorf("post-submit err = %v, want ErrAttemptNotActive", err)
	}
}

func TestCheckpoint(t *testing.T) {
	snap := testSnapshot(1)
	svc, store, _ := newTestService(snap)
	ctx := context.Background()

	attempt, err := svc.StartAttempt(ctx, 1, snap.ID, time.Now())
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}

	if err := svc.Checkpoint(ctx, attempt.ID, model.AnswerMap{0: 0, 2: 1}, 900); err != nil {
		t.Fatalf("Checkpoint: %v", err)
	}
	got, _ := svc.GetAttempt(ctx, attempt.ID)
	if got.Answers[2] != 1 {
		t.Errorf("checkpointed answer at 2 = %d, want 1", got.Answers[2])
	}
	if got.TimeLeftSeconds == nil || *got.TimeLeftSeconds != 900 {
		t.Errorf("time left = %v, want 900", got.TimeLeftSeconds)
	}

	// Transient store failures are swallowed; the session keeps going.
	store.checkpointErr = errors.New("connection reset")
	if err := svc.Checkpoint(ctx, attempt.ID, model.AnswerMap{0: 1}, 800); err != nil {
		t.Errorf("transient failure err = %v, want nil", err)
	}
	store.checkpointErr = nil

	if _, err := svc.Submit(ctx, attempt.ID, nil, time.Now(), nil, 0); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := svc.Checkpoint(ctx, attempt.ID, model.AnswerMap{}, 0); !errors.Is(err, ErrAttemptNotActive) {
		t.Errorf("post-submit err = %v, want ErrAttemptNotActive", err)
	}
}

func TestSubmitIdempotent(t *testing.T) {
	snap := testSnapshot(1)
	svc, _, _ := newTestService(snap)
	ctx := context.Background()

	attempt, err := svc.StartAttempt(ctx, 1, snap.ID, time.Now())
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}

	first, err := svc.Submit(ctx, attempt.ID, model.AnswerMap{0: 0, 1: 1}, time.Now(), nil, 0)
	if err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	if *first.TotalMarksObtained != 2 {
		t.Fatalf("marks = %v, want 2", *first.TotalMarksObtained)
	}

	// A retry with different answers must not rescore.
	_, err = svc.Submit(ctx, attempt.ID, model.AnswerMap{0: 2, 1: 2, 2: 0}, time.Now(), nil, 0)
	if !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("second Submit err = %v, want ErrAlreadySubmitted", err)
	}

	got, _ := svc.GetAttempt(ctx, attempt.ID)
	if *got.TotalMarksObtained != 2 {
		t.Errorf("stored marks = %v, want 2 (first submission wins)", *got.TotalMarksObtained)
	}
	if got.Answers[0] != 0 {
		t.Errorf("stored answer at 0 = %d, want 0", got.Answers[0])
	}
}

func TestSubmitConcurrent(t *testing.T) {
	snap := testSnapshot(1)
	svc, _, _ := newTestService(snap)
	ctx := context.Background()

	attempt, err := svc.StartAttempt(ctx, 1, snap.ID, time.Now())
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}

	const racers = 8
	errs := make([]error, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Submit(ctx, attempt.ID, model.AnswerMap{0: 0}, time.Now(), nil, 0)
		}(i)
	}
	wg.Wait()

	wins := 0
	for i, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrAlreadySubmitted):
		default:
			t.Fatalf("racer %d: unexpected err %v", i, err)
		}
	}
	if wins != 1 {
		t.Errorf("winning submits = %d, want exactly 1", wins)
	}
}

func TestSubmitTimeoutUsesCheckpoint(t *testing.T) {
	snap := testSnapshot(1)
	svc, _, _ := newTestService(snap)
	ctx := context.Background()

	start := time.Now().Add(-31 * time.Minute)
	attempt, err := svc.StartAttempt(ctx, 1, snap.ID, start)
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}
	if err := svc.Checkpoint(ctx, attempt.ID, model.AnswerMap{0: 0, 1: 1}, 60); err != nil {
		t.Fatalf("Checkpoint: %v", err)
	}

	// The client is gone: answers are nil and no end time is supplied, so
	// the server clock decides.
	now := time.Now()
	got, err := svc.Submit(ctx, attempt.ID, nil, now, nil, 0)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if *got.TotalMarksObtained != 2 {
		t.Errorf("marks = %v, want 2 (scored from checkpoint)", *got.TotalMarksObtained)
	}
	if !got.EndTime.Equal(now) {
		t.Errorf("end time = %v, want %v", got.EndTime, now)
	}
	if *got.TimeTaken != 31 {
		t.Errorf("time taken = %d minutes, want 31", *got.TimeTaken)
	}
}

func TestSubmitOverdueUsesDeadlineEndTime(t *testing.T) {
	snap := testSnapshot(1)
	svc, _, _ := newTestService(snap)
	ctx := context.Background()

	start := time.Now().Add(-31 * time.Minute)
	attempt, err := svc.StartAttempt(ctx, 1, snap.ID, start)
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}
	if err := svc.Checkpoint(ctx, attempt.ID, model.AnswerMap{0: 0}, 0); err != nil {
		t.Fatalf("Checkpoint: %v", err)
	}

	// The deadline sweep passes the computed deadline, so the recorded end
	// time is start+duration even when the tick runs late.
	deadline := start.Add(time.Duration(snap.DurationSeconds) * time.Second)
	got, err := svc.Submit(ctx, attempt.ID, nil, time.Now(), &deadline, 0)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !got.EndTime.Equal(deadline) {
		t.Errorf("end time = %v, want deadline %v", got.EndTime, deadline)
	}
	if *got.TimeTaken != 30 {
		t.Errorf("time taken = %d minutes, want 30", *got.TimeTaken)
	}
	if *got.TotalMarksObtained != 1 {
		t.Errorf("marks = %v, want 1 (scored from checkpoint)", *got.TotalMarksObtained)
	}
}

func TestSubmitClampsEndTime(t *testing.T) {
	snap := testSnapshot(3)
	svc, _, _ := newTestService(snap)
	ctx := context.Background()

	start := time.Now().Add(-10 * time.Minute)
	now := time.Now()

	tests := []struct {
		name      string
		clientEnd time.Time
		want      func(end time.Time) bool
	}{
		{
			"before start clamps to now",
			start.Add(-time.Hour),
			func(end time.Time) bool { return end.Equal(now) },
		},
		{
			"future clock clamps to now",
			now.Add(time.Hour),
			func(end time.Time) bool { return end.Equal(now) },
		},
		{
			"honest clock is honored",
			start.Add(9 * time.Minute),
			func(end time.Time) bool { return end.Equal(start.Add(9 * time.Minute)) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempt, err := svc.StartAttempt(ctx, 1, snap.ID, start)
			if err != nil {
				t.Fatalf("StartAttempt: %v", err)
			}
			clientEnd := tt.clientEnd
			got, err := svc.Submit(ctx, attempt.ID, nil, now, &clientEnd, 0)
			if err != nil {
				t.Fatalf("Submit: %v", err)
			}
			if got.EndTime == nil || !tt.want(*got.EndTime) {
				t.Errorf("end time = %v (start %v, now %v)", got.EndTime, start, now)
			}
			if got.EndTime.Before(got.StartTime) {
				t.Errorf("end time %v precedes start time %v", got.EndTime, got.StartTime)
			}
		})
	}
}

func TestSubmitViolationCountMonotonic(t *testing.T) {
	snap := testSnapshot(1)
	svc, store, _ := newTestService(snap)
	ctx := context.Background()

	attempt, err := svc.StartAttempt(ctx, 1, snap.ID, time.Now())
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}

	// Violations already persisted server-side exceed the client's claim.
	store.mu.Lock()
	store.attempts[attempt.ID].ViolationCount = 2
	store.mu.Unlock()

	got, err := svc.Submit(ctx, attempt.ID, nil, time.Now(), nil, 1)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got.ViolationCount != 2 {
		t.Errorf("violation count = %d, want 2 (never decreases)", got.ViolationCount)
	}
}

func TestSubmitAfterViolationLimit(t *testing.T) {
	snap := testSnapshot(1)
	svc, _, _ := newTestService(snap)
	ctx := context.Background()

	attempt, err := svc.StartAttempt(ctx, 1, snap.ID, time.Now())
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}
	if err := svc.RecordAnswer(ctx, attempt.ID, 0, 0); err != nil {
		t.Fatalf("RecordAnswer: %v", err)
	}

	// Forced submission after the third violation carries the final count.
	got, err := svc.Submit(ctx, attempt.ID, nil, time.Now(), nil, 3)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got.ViolationCount != 3 {
		t.Errorf("violation count = %d, want 3", got.ViolationCount)
	}
	if got.Status != model.AttemptStatusCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
	if *got.TotalMarksObtained != 1 {
		t.Errorf("marks = %v, want 1 (recorded answers scored normally)", *got.TotalMarksObtained)
	}
}

func TestVerifyActiveAttempt(t *testing.T) {
	snap := testSnapshot(1)
	svc, _, _ := newTestService(snap)
	ctx := context.Background()

	attempt, err := svc.StartAttempt(ctx, 1, snap.ID, time.Now())
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}

	if _, err := svc.VerifyActiveAttempt(ctx, attempt.ID, 1); err != nil {
		t.Errorf("owner verify: %v", err)
	}
	if _, err := svc.VerifyActiveAttempt(ctx, attempt.ID, 2); !errors.Is(err, ErrAttemptNotFound) {
		t.Errorf("other user err = %v, want ErrAttemptNotFound", err)
	}

	if _, err := svc.Submit(ctx, attempt.ID, nil, time.Now(), nil, 0); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := svc.VerifyActiveAttempt(ctx, attempt.ID, 1); !errors.Is(err, ErrAttemptNotActive) {
		t.Errorf("terminal err = %v, want ErrAttemptNotActive", err)
	}
}
