package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/examportal/examportal-backend/internal/model"
	"github.com/examportal/examportal-backend/internal/service"
	"github.com/google/uuid"
)

func TestStartSetsDeadlineFromDuration(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	user := e.createParticipant(t, "alice")
	admin := e.createAdmin(t, "boss")
	exam, _ := e.createExam(t, admin.ID, 45, 1)
	perm := e.assign(t, user.ID, exam.ID, baseTime.Add(-time.Hour), baseTime.Add(time.Hour))

	attempt, err := e.attemptSvc.Start(ctx, user.ID, exam.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if attempt.PermissionID != perm.ID {
		t.Fatalf("expected attempt bound to the active window")
	}
	if !attempt.StartedAt.Equal(baseTime) {
		t.Fatalf("expected startedAt %v, got %v", baseTime, attempt.StartedAt)
	}
	wantDeadline := baseTime.Add(45 * time.Minute)
	if !attempt.Deadline.Equal(wantDeadline) {
		t.Fatalf("expected deadline %v, got %v", wantDeadline, attempt.Deadline)
	}
	if attempt.Status != model.AttemptStatusInProgress {
		t.Fatalf("expected IN_PROGRESS, got %s", attempt.Status)
	}
}

// The deadline follows the duration alone. A window closing before
// startedAt+duration does not shorten the running attempt.
func TestStartDeadlineNotCappedByWindowEnd(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	user := e.createParticipant(t, "alice")
	admin := e.createAdmin(t, "boss")
	exam, _ := e.createExam(t, admin.ID, 60, 1)
	e.assign(t, user.ID, exam.ID, baseTime.Add(-time.Hour), baseTime.Add(10*time.Minute))

	attempt, err := e.attemptSvc.Start(ctx, user.ID, exam.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !attempt.Deadline.Equal(baseTime.Add(time.Hour)) {
		t.Fatalf("deadline should be startedAt+duration, got %v", attempt.Deadline)
	}
}

func TestStartRequiresActiveWindow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	user := e.createParticipant(t, "alice")
	admin := e.createAdmin(t, "boss")
	exam, _ := e.createExam(t, admin.ID, 30, 1)
	e.assign(t, user.ID, exam.ID, baseTime.Add(time.Hour), baseTime.Add(2*time.Hour))

	if _, err := e.attemptSvc.Start(ctx, user.ID, exam.ID); !errors.Is(err, service.ErrAccessDenied) {
		t.Fatalf("pending window: expected ErrAccessDenied, got %v", err)
	}

	e.clk.Set(baseTime.Add(3 * time.Hour))
	if _, err := e.attemptSvc.Start(ctx, user.ID, exam.ID); !errors.Is(err, service.ErrAccessDenied) {
		t.Fatalf("expired window: expected ErrAccessDenied, got %v", err)
	}
}

func TestStartRefusesSecondAttempt(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	user := e.createParticipant(t, "alice")
	admin := e.createAdmin(t, "boss")
	exam, _ := e.createExam(t, admin.ID, 30, 1)
	e.assign(t, user.ID, exam.ID, baseTime.Add(-time.Hour), baseTime.Add(time.Hour))

	if _, err := e.attemptSvc.Start(ctx, user.ID, exam.ID); err != nil {
		t.Fatalf("first start: %v", err)
	}
	if _, err := e.attemptSvc.Start(ctx, user.ID, exam.ID); !errors.Is(err, service.ErrAccessDenied) {
		t.Fatalf("second start: expected ErrAccessDenied, got %v", err)
	}
}

func TestConcurrentStartsOnlyOneSucceeds(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	user := e.createParticipant(t, "alice")
	admin := e.createAdmin(t, "boss")
	exam, _ := e.createExam(t, admin.ID, 30, 1)
	e.assign(t, user.ID, exam.ID, baseTime.Add(-time.Hour), baseTime.Add(time.Hour))

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.attemptSvc.Start(ctx, user.ID, exam.ID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, service.ErrAccessDenied):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one successful start, got %d", succeeded)
	}
}

func TestRecordAnswerBeforeAndAtDeadline(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	user := e.createParticipant(t, "alice")
	admin := e.createAdmin(t, "boss")
	exam, questions := e.createExam(t, admin.ID, 30, 1)
	e.assign(t, user.ID, exam.ID, baseTime.Add(-time.Hour), baseTime.Add(2*time.Hour))

	attempt, err := e.attemptSvc.Start(ctx, user.ID, exam.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	// Strictly before the deadline: allowed, latest write wins.
	if err := e.attemptSvc.RecordAnswer(ctx, attempt.ID, questions[0].ID, "B"); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := e.attemptSvc.RecordAnswer(ctx, attempt.ID, questions[0].ID, "A"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	state, err := e.attemptSvc.State(ctx, attempt.ID)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if state.Answers[questions[0].ID.String()] != "A" {
		t.Fatalf("expected latest answer A, got %q", state.Answers[questions[0].ID.String()])
	}

	// Exactly at the deadline: refused.
	e.clk.Set(attempt.Deadline)
	if err := e.attemptSvc.RecordAnswer(ctx, attempt.ID, questions[0].ID, "C"); !errors.Is(err, service.ErrSessionClosed) {
		t.Fatalf("at deadline: expected ErrSessionClosed, got %v", err)
	}
}

func TestRecordAnswerAfterFinalization(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	user := e.createParticipant(t, "alice")
	admin := e.createAdmin(t, "boss")
	exam, questions := e.createExam(t, admin.ID, 30, 1)
	e.assign(t, user.ID, exam.ID, baseTime.Add(-time.Hour), baseTime.Add(time.Hour))

	attempt, _ := e.attemptSvc.Start(ctx, user.ID, exam.ID)
	if _, err := e.attemptSvc.Submit(ctx, attempt.ID, model.SubmitTriggerManual); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := e.attemptSvc.RecordAnswer(ctx, attempt.ID, questions[0].ID, "A"); !errors.Is(err, service.ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
}

func TestSubmitScoresAndFinalizes(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	user := e.createParticipant(t, "alice")
	admin := e.createAdmin(t, "boss")
	exam, questions := e.createExam(t, admin.ID, 30, 1, 2, 3)
	perm := e.assign(t, user.ID, exam.ID, baseTime.Add(-time.Hour), baseTime.Add(time.Hour))

	attempt, err := e.attemptSvc.Start(ctx, user.ID, exam.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	// Correct, incorrect, unanswered.
	if err := e.attemptSvc.RecordAnswer(ctx, attempt.ID, questions[0].ID, "A"); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := e.attemptSvc.RecordAnswer(ctx, attempt.ID, questions[1].ID, "D"); err != nil {
		t.Fatalf("record: %v", err)
	}

	submittedAt := baseTime.Add(10 * time.Minute)
	e.clk.Set(submittedAt)

	result, err := e.attemptSvc.Submit(ctx, attempt.ID, model.SubmitTriggerManual)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if result.RawScore != 1 || result.TotalMarks != 6 {
		t.Fatalf("expected 1/6, got %d/%d", result.RawScore, result.TotalMarks)
	}
	if result.Trigger != model.SubmitTriggerManual {
		t.Fatalf("expected MANUAL trigger, got %s", result.Trigger)
	}
	if !result.SubmittedAt.Equal(submittedAt) {
		t.Fatalf("expected submittedAt %v, got %v", submittedAt, result.SubmittedAt)
	}

	// Attempt is discarded, window completed, answer cache cleared.
	if _, err := e.attempts.GetByID(ctx, attempt.ID); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("expected attempt discarded, got %v", err)
	}
	updated, _ := e.permissions.GetByID(ctx, perm.ID)
	if !updated.Completed {
		t.Fatalf("expected permission marked completed")
	}
	if n, _ := e.rdb.Exists(ctx, "attempt:"+attempt.ID.String()+":answers").Result(); n != 0 {
		t.Fatalf("expected answer hash deleted")
	}
}

func TestSubmitIsIdempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	user := e.createParticipant(t, "alice")
	admin := e.createAdmin(t, "boss")
	exam, questions := e.createExam(t, admin.ID, 30, 2)
	e.assign(t, user.ID, exam.ID, baseTime.Add(-time.Hour), baseTime.Add(time.Hour))

	attempt, _ := e.attemptSvc.Start(ctx, user.ID, exam.ID)
	if err := e.attemptSvc.RecordAnswer(ctx, attempt.ID, questions[0].ID, "A"); err != nil {
		t.Fatalf("record: %v", err)
	}

	first, err := e.attemptSvc.Submit(ctx, attempt.ID, model.SubmitTriggerManual)
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}

	// Repeated submits, even much later, return the stored result unchanged.
	e.clk.Advance(2 * time.Hour)
	second, err := e.attemptSvc.Submit(ctx, attempt.ID, model.SubmitTriggerTimeout)
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}

	if second.ID != first.ID {
		t.Fatalf("expected the same result, got %s and %s", first.ID, second.ID)
	}
	if second.RawScore != 2 || second.Trigger != model.SubmitTriggerManual {
		t.Fatalf("stored result mutated: %+v", second)
	}
}

func TestSubmitUnknownAttempt(t *testing.T) {
	e := newEnv(t)

	if _, err := e.attemptSvc.Submit(context.Background(), uuid.New(), model.SubmitTriggerManual); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTimeoutTriggerRequiresDeadline(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	user := e.createParticipant(t, "alice")
	admin := e.createAdmin(t, "boss")
	exam, _ := e.createExam(t, admin.ID, 30, 1)
	e.assign(t, user.ID, exam.ID, baseTime.Add(-time.Hour), baseTime.Add(2*time.Hour))

	attempt, _ := e.attemptSvc.Start(ctx, user.ID, exam.ID)

	// Before the deadline a timeout submission is refused.
	if _, err := e.attemptSvc.Submit(ctx, attempt.ID, model.SubmitTriggerTimeout); !errors.Is(err, service.ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}

	// At the deadline it finalizes as TIMED_OUT.
	e.clk.Set(attempt.Deadline)
	result, err := e.attemptSvc.Submit(ctx, attempt.ID, model.SubmitTriggerTimeout)
	if err != nil {
		t.Fatalf("timeout submit: %v", err)
	}
	if result.Trigger != model.SubmitTriggerTimeout {
		t.Fatalf("expected TIMEOUT trigger, got %s", result.Trigger)
	}
}

func TestManualSubmitAllowedAfterDeadline(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	user := e.createParticipant(t, "alice")
	admin := e.createAdmin(t, "boss")
	exam, questions := e.createExam(t, admin.ID, 30, 1)
	e.assign(t, user.ID, exam.ID, baseTime.Add(-time.Hour), baseTime.Add(2*time.Hour))

	attempt, _ := e.attemptSvc.Start(ctx, user.ID, exam.ID)
	if err := e.attemptSvc.RecordAnswer(ctx, attempt.ID, questions[0].ID, "A"); err != nil {
		t.Fatalf("record: %v", err)
	}

	// A laggy manual submit arriving past the deadline still lands, scored
	// from the answers recorded before the cutoff.
	e.clk.Set(attempt.Deadline.Add(30 * time.Second))
	result, err := e.attemptSvc.Submit(ctx, attempt.ID, model.SubmitTriggerManual)
	if err != nil {
		t.Fatalf("late manual submit: %v", err)
	}
	if result.RawScore != 1 {
		t.Fatalf("expected pre-deadline answers to count, got %d", result.RawScore)
	}
}

func TestStateRemainingSecondsClampedAtZero(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	user := e.createParticipant(t, "alice")
	admin := e.createAdmin(t, "boss")
	exam, _ := e.createExam(t, admin.ID, 30, 1)
	e.assign(t, user.ID, exam.ID, baseTime.Add(-time.Hour), baseTime.Add(2*time.Hour))

	attempt, _ := e.attemptSvc.Start(ctx, user.ID, exam.ID)

	e.clk.Set(baseTime.Add(10 * time.Minute))
	state, err := e.attemptSvc.State(ctx, attempt.ID)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if want := (20 * time.Minute).Seconds(); state.RemainingSeconds != want {
		t.Fatalf("expected %v remaining, got %v", want, state.RemainingSeconds)
	}

	e.clk.Set(attempt.Deadline.Add(time.Minute))
	state, err = e.attemptSvc.State(ctx, attempt.ID)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if state.RemainingSeconds != 0 {
		t.Fatalf("expected remaining clamped at 0, got %v", state.RemainingSeconds)
	}
}

func TestRestartAfterCompletionInNewWindow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	user := e.createParticipant(t, "alice")
	admin := e.createAdmin(t, "boss")
	exam, _ := e.createExam(t, admin.ID, 30, 1)
	e.assign(t, user.ID, exam.ID, baseTime.Add(-time.Hour), baseTime.Add(time.Hour))

	attempt, _ := e.attemptSvc.Start(ctx, user.ID, exam.ID)
	if _, err := e.attemptSvc.Submit(ctx, attempt.ID, model.SubmitTriggerManual); err != nil {
		t.Fatalf("submit: %v", err)
	}

	// A fresh window for the same pair permits a fresh attempt.
	e.assign(t, user.ID, exam.ID, baseTime.Add(2*time.Hour), baseTime.Add(4*time.Hour))
	e.clk.Set(baseTime.Add(3 * time.Hour))

	second, err := e.attemptSvc.Start(ctx, user.ID, exam.ID)
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if second.ID == attempt.ID {
		t.Fatalf("expected a new attempt")
	}
}
