package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/examportal/examportal-backend/internal/clock"
	"github.com/examportal/examportal-backend/internal/model"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// AssignmentView is a window enriched with user and exam details for admin
// listings.
type AssignmentView struct {
	model.Permission
	Username  string `json:"username"`
	ExamTitle string `json:"exam_title"`
}

// AssignmentService creates, reschedules, and removes assignment windows,
// holding the no-overlap invariant: at most one non-completed window per
// (user, exam) pair may cover any instant.
type AssignmentService struct {
	users       UserStore
	exams       ExamStore
	permissions PermissionStore
	attempts    AttemptStore
	rdb         *redis.Client
	clk         clock.Clock
	log         zerolog.Logger
}

// NewAssignmentService creates a new AssignmentService.
func NewAssignmentService(
	users UserStore,
	exams ExamStore,
	permissions PermissionStore,
	attempts AttemptStore,
	rdb *redis.Client,
	clk clock.Clock,
	log zerolog.Logger,
) *AssignmentService {
	return &AssignmentService{
		users:       users,
		exams:       exams,
		permissions: permissions,
		attempts:    attempts,
		rdb:         rdb,
		clk:         clk,
		log:         log.With().Str("component", "assignment_service").Logger(),
	}
}

// Create assigns an exam to a user within [start, end). Fails with
// ErrInvalidWindow when start >= end and ErrOverlapConflict when the
// half-open interval intersects an existing non-completed window for the
// same pair.
func (s *AssignmentService) Create(ctx context.Context, userID int, examID uuid.UUID, start, end time.Time) (*model.Permission, error) {
	if !start.Before(end) {
		return nil, ErrInvalidWindow
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return nil, err
	}

	if err := s.checkOverlap(ctx, userID, examID, start, end, uuid.Nil); err != nil {
		return nil, err
	}

	perm := &model.Permission{
		ID:      uuid.New(),
		UserID:  userID,
		ExamID:  examID,
		StartAt: start.UTC(),
		EndAt:   end.UTC(),
	}
	if err := s.permissions.Create(ctx, perm); err != nil {
		return nil, fmt.Errorf("create permission: %w", err)
	}

	emitEvent(ctx, s.rdb, s.log, Event{
		Type:       EventAssignmentCreated,
		OccurredAt: s.clk.Now(),
		UserID:     userID,
		ExamID:     examID.String(),
		Fields: map[string]string{
			"username":   user.Username,
			"email":      user.Email,
			"exam_title": exam.Title,
			"start_at":   perm.StartAt.Format(time.RFC3339),
			"end_at":     perm.EndAt.Format(time.RFC3339),
		},
	})

	s.log.Info().
		Int("user_id", userID).
		Str("exam_id", examID.String()).
		Time("start_at", perm.StartAt).
		Time("end_at", perm.EndAt).
		Msg("Assignment created")

	return perm, nil
}

// Update reschedules a window. The window being edited is excluded from the
// overlap check; rejected with ErrAlreadyInProgress while an attempt
// references it.
func (s *AssignmentService) Update(ctx context.Context, permissionID uuid.UUID, start, end time.Time) (*model.Permission, error) {
	if !start.Before(end) {
		return nil, ErrInvalidWindow
	}

	perm, err := s.permissions.GetByID(ctx, permissionID)
	if err != nil {
		return nil, err
	}

	if err := s.refusedWhileAttempted(ctx, permissionID); err != nil {
		return nil, err
	}

	if err := s.checkOverlap(ctx, perm.UserID, perm.ExamID, start, end, permissionID); err != nil {
		return nil, err
	}

	perm.StartAt = start.UTC()
	perm.EndAt = end.UTC()
	if err := s.permissions.Update(ctx, perm); err != nil {
		return nil, fmt.Errorf("update permission: %w", err)
	}
	return perm, nil
}

// Delete removes a window unconditionally unless an attempt references it.
func (s *AssignmentService) Delete(ctx context.Context, permissionID uuid.UUID) error {
	if _, err := s.permissions.GetByID(ctx, permissionID); err != nil {
		return err
	}
	if err := s.refusedWhileAttempted(ctx, permissionID); err != nil {
		return err
	}
	return s.permissions.Delete(ctx, permissionID)
}

// List returns every window enriched with username and exam title.
func (s *AssignmentService) List(ctx context.Context) ([]AssignmentView, error) {
	perms, err := s.permissions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}

	views := make([]AssignmentView, 0, len(perms))
	for i := range perms {
		view := AssignmentView{Permission: perms[i]}
		if user, err := s.users.GetByID(ctx, perms[i].UserID); err == nil {
			view.Username = user.Username
		}
		if exam, err := s.exams.GetByID(ctx, perms[i].ExamID); err == nil {
			view.ExamTitle = exam.Title
		}
		views = append(views, view)
	}
	return views, nil
}

// checkOverlap rejects [start, end) when it intersects any non-completed
// window of the pair, excluding the window with id exclude.
func (s *AssignmentService) checkOverlap(ctx context.Context, userID int, examID uuid.UUID, start, end time.Time, exclude uuid.UUID) error {
	existing, err := s.permissions.ListByUserExam(ctx, userID, examID)
	if err != nil {
		return fmt.Errorf("list permissions: %w", err)
	}
	for i := range existing {
		p := &existing[i]
		if p.ID == exclude || p.Completed {
			continue
		}
		if p.Overlaps(start, end) {
			return ErrOverlapConflict
		}
	}
	return nil
}

func (s *AssignmentService) refusedWhileAttempted(ctx context.Context, permissionID uuid.UUID) error {
	_, err := s.attempts.GetByPermission(ctx, permissionID)
	if err == nil {
		return ErrAlreadyInProgress
	}
	if !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("check attempt: %w", err)
	}
	return nil
}
