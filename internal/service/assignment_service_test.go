package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/examportal/examportal-backend/internal/config"
	"github.com/examportal/examportal-backend/internal/model"
	"github.com/examportal/examportal-backend/internal/service"
	"github.com/google/uuid"
)

func TestAssignRejectsInvertedWindow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	user := e.createParticipant(t, "alice")
	admin := e.createAdmin(t, "boss")
	exam, _ := e.createExam(t, admin.ID, 30, 1)

	cases := []struct {
		name       string
		start, end time.Time
	}{
		{"start after end", baseTime.Add(time.Hour), baseTime},
		{"empty window", baseTime, baseTime},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := e.assignments.Create(ctx, user.ID, exam.ID, tc.start, tc.end); !errors.Is(err, service.ErrInvalidWindow) {
				t.Fatalf("expected ErrInvalidWindow, got %v", err)
			}
		})
	}
}

func TestAssignUnknownUserOrExam(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	admin := e.createAdmin(t, "boss")
	exam, _ := e.createExam(t, admin.ID, 30, 1)
	user := e.createParticipant(t, "alice")

	if _, err := e.assignments.Create(ctx, 9999, exam.ID, baseTime, baseTime.Add(time.Hour)); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("unknown user: expected ErrNotFound, got %v", err)
	}
	if _, err := e.assignments.Create(ctx, user.ID, uuid.New(), baseTime, baseTime.Add(time.Hour)); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("unknown exam: expected ErrNotFound, got %v", err)
	}
}

func TestAssignRejectsOverlappingWindows(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	user := e.createParticipant(t, "alice")
	admin := e.createAdmin(t, "boss")
	exam, _ := e.createExam(t, admin.ID, 30, 1)

	if _, err := e.assignments.Create(ctx, user.ID, exam.ID, baseTime, baseTime.Add(2*time.Hour)); err != nil {
		t.Fatalf("first window: %v", err)
	}

	overlapping := []struct {
		name       string
		start, end time.Time
	}{
		{"contained", baseTime.Add(30 * time.Minute), baseTime.Add(time.Hour)},
		{"straddles start", baseTime.Add(-time.Hour), baseTime.Add(time.Hour)},
		{"straddles end", baseTime.Add(time.Hour), baseTime.Add(3 * time.Hour)},
		{"covers", baseTime.Add(-time.Hour), baseTime.Add(4 * time.Hour)},
		{"identical", baseTime, baseTime.Add(2 * time.Hour)},
	}
	for _, tc := range overlapping {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := e.assignments.Create(ctx, user.ID, exam.ID, tc.start, tc.end); !errors.Is(err, service.ErrOverlapConflict) {
				t.Fatalf("expected ErrOverlapConflict, got %v", err)
			}
		})
	}
}

// Half-open windows: [a, b) and [b, c) share the boundary instant only on
// paper, so back-to-back scheduling is allowed.
func TestAssignAdjacentWindowsAllowed(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	user := e.createParticipant(t, "alice")
	admin := e.createAdmin(t, "boss")
	exam, _ := e.createExam(t, admin.ID, 30, 1)

	mid := baseTime.Add(time.Hour)
	if _, err := e.assignments.Create(ctx, user.ID, exam.ID, baseTime, mid); err != nil {
		t.Fatalf("first window: %v", err)
	}
	if _, err := e.assignments.Create(ctx, user.ID, exam.ID, mid, mid.Add(time.Hour)); err != nil {
		t.Fatalf("adjacent window: %v", err)
	}
}

func TestAssignAcrossPairsNeverConflicts(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	alice := e.createParticipant(t, "alice")
	bob := e.createParticipant(t, "bob")
	admin := e.createAdmin(t, "boss")
	exam, _ := e.createExam(t, admin.ID, 30, 1)
	other, _ := e.createExam(t, admin.ID, 30, 1)

	start, end := baseTime, baseTime.Add(time.Hour)
	if _, err := e.assignments.Create(ctx, alice.ID, exam.ID, start, end); err != nil {
		t.Fatalf("first pair: %v", err)
	}
	if _, err := e.assignments.Create(ctx, bob.ID, exam.ID, start, end); err != nil {
		t.Fatalf("same exam, other user: %v", err)
	}
	if _, err := e.assignments.Create(ctx, alice.ID, other.ID, start, end); err != nil {
		t.Fatalf("same user, other exam: %v", err)
	}
}

func TestAssignIgnoresCompletedWindows(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	user := e.createParticipant(t, "alice")
	admin := e.createAdmin(t, "boss")
	exam, _ := e.createExam(t, admin.ID, 30, 1)
	e.assign(t, user.ID, exam.ID, baseTime.Add(-time.Hour), baseTime.Add(time.Hour))

	attempt, err := e.attemptSvc.Start(ctx, user.ID, exam.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := e.attemptSvc.Submit(ctx, attempt.ID, model.SubmitTriggerManual); err != nil {
		t.Fatalf("submit: %v", err)
	}

	// The completed window no longer blocks a new one over the same span.
	if _, err := e.assignments.Create(ctx, user.ID, exam.ID, baseTime.Add(-time.Hour), baseTime.Add(time.Hour)); err != nil {
		t.Fatalf("reassign over completed window: %v", err)
	}
}

func TestRescheduleExcludesSelfFromOverlapCheck(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	user := e.createParticipant(t, "alice")
	admin := e.createAdmin(t, "boss")
	exam, _ := e.createExam(t, admin.ID, 30, 1)

	perm, err := e.assignments.Create(ctx, user.ID, exam.ID, baseTime, baseTime.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Shrinking within its own span must not conflict with itself.
	updated, err := e.assignments.Update(ctx, perm.ID, baseTime.Add(30*time.Minute), baseTime.Add(time.Hour))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.StartAt.Equal(baseTime.Add(30 * time.Minute)) {
		t.Fatalf("unexpected start: %v", updated.StartAt)
	}
}

func TestRescheduleRejectsOverlapWithSibling(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	user := e.createParticipant(t, "alice")
	admin := e.createAdmin(t, "boss")
	exam, _ := e.createExam(t, admin.ID, 30, 1)

	if _, err := e.assignments.Create(ctx, user.ID, exam.ID, baseTime, baseTime.Add(time.Hour)); err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := e.assignments.Create(ctx, user.ID, exam.ID, baseTime.Add(2*time.Hour), baseTime.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("second: %v", err)
	}

	if _, err := e.assignments.Update(ctx, second.ID, baseTime.Add(30*time.Minute), baseTime.Add(90*time.Minute)); !errors.Is(err, service.ErrOverlapConflict) {
		t.Fatalf("expected ErrOverlapConflict, got %v", err)
	}
}

func TestRescheduleAndDeleteRefusedWhileAttempted(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	user := e.createParticipant(t, "alice")
	admin := e.createAdmin(t, "boss")
	exam, _ := e.createExam(t, admin.ID, 30, 1)

	perm, err := e.assignments.Create(ctx, user.ID, exam.ID, baseTime.Add(-time.Hour), baseTime.Add(time.Hour))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := e.attemptSvc.Start(ctx, user.ID, exam.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, err := e.assignments.Update(ctx, perm.ID, baseTime, baseTime.Add(2*time.Hour)); !errors.Is(err, service.ErrAlreadyInProgress) {
		t.Fatalf("update: expected ErrAlreadyInProgress, got %v", err)
	}
	if err := e.assignments.Delete(ctx, perm.ID); !errors.Is(err, service.ErrAlreadyInProgress) {
		t.Fatalf("delete: expected ErrAlreadyInProgress, got %v", err)
	}
}

func TestDeleteRemovesWindow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	user := e.createParticipant(t, "alice")
	admin := e.createAdmin(t, "boss")
	exam, _ := e.createExam(t, admin.ID, 30, 1)

	perm, err := e.assignments.Create(ctx, user.ID, exam.ID, baseTime, baseTime.Add(time.Hour))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := e.assignments.Delete(ctx, perm.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := e.permissions.GetByID(ctx, perm.ID); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("expected window gone, got %v", err)
	}

	if err := e.assignments.Delete(ctx, perm.ID); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("double delete: expected ErrNotFound, got %v", err)
	}
}

func TestAssignEnqueuesNotification(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	user := e.createParticipant(t, "alice")
	admin := e.createAdmin(t, "boss")
	exam, _ := e.createExam(t, admin.ID, 30, 1)

	if _, err := e.assignments.Create(ctx, user.ID, exam.ID, baseTime, baseTime.Add(time.Hour)); err != nil {
		t.Fatalf("create: %v", err)
	}

	raw, err := e.rdb.LRange(ctx, config.WorkerKey.NotifyQueue, 0, -1).Result()
	if err != nil {
		t.Fatalf("read queue: %v", err)
	}
	if len(raw) != 1 {
		t.Fatalf("expected one queued event, got %d", len(raw))
	}

	var ev service.Event
	if err := json.Unmarshal([]byte(raw[0]), &ev); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if ev.Type != service.EventAssignmentCreated {
		t.Fatalf("expected %s, got %s", service.EventAssignmentCreated, ev.Type)
	}
	if ev.Fields["email"] != user.Email || ev.Fields["exam_title"] != exam.Title {
		t.Fatalf("unexpected event fields: %v", ev.Fields)
	}
}

func TestListEnrichesWithNames(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	user := e.createParticipant(t, "alice")
	admin := e.createAdmin(t, "boss")
	exam, _ := e.createExam(t, admin.ID, 30, 1)

	if _, err := e.assignments.Create(ctx, user.ID, exam.ID, baseTime, baseTime.Add(time.Hour)); err != nil {
		t.Fatalf("create: %v", err)
	}

	views, err := e.assignments.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected one view, got %d", len(views))
	}
	if views[0].Username != user.Username || views[0].ExamTitle != exam.Title {
		t.Fatalf("missing enrichment: %+v", views[0])
	}
}
