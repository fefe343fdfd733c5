package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/examportal/examportal-backend/internal/clock"
	"github.com/examportal/examportal-backend/internal/model"
	"github.com/google/uuid"
)

// AccessStatus classifies a (user, exam) pair relative to its assignment
// windows and the current instant.
type AccessStatus string

const (
	AccessNoAssignment AccessStatus = "NO_ASSIGNMENT"
	AccessPending      AccessStatus = "PENDING"
	AccessActive       AccessStatus = "ACTIVE"
	AccessExpired      AccessStatus = "EXPIRED"
	AccessCompleted    AccessStatus = "COMPLETED"
)

// AccessDecision is the outcome of classifying a pair. Window is nil for
// NoAssignment and Completed.
type AccessDecision struct {
	Status AccessStatus      `json:"status"`
	Window *model.Permission `json:"window,omitempty"`
}

// DashboardEntry is one exam on a participant's dashboard.
type DashboardEntry struct {
	Exam          model.Exam        `json:"exam"`
	QuestionCount int               `json:"question_count"`
	Status        AccessStatus      `json:"status"`
	Window        *model.Permission `json:"window,omitempty"`
	Result        *model.Result     `json:"result,omitempty"`
}

// AccessService evaluates assignment windows. Classification is a pure
// query over persisted windows: it never mutates state, so reads may be
// slightly stale without affecting the authoritative transition checks,
// which re-validate under the attempt lock.
type AccessService struct {
	users       UserStore
	exams       ExamStore
	questions   QuestionStore
	permissions PermissionStore
	results     ResultStore
	clk         clock.Clock
}

// NewAccessService creates a new AccessService.
func NewAccessService(
	users UserStore,
	exams ExamStore,
	questions QuestionStore,
	permissions PermissionStore,
	results ResultStore,
	clk clock.Clock,
) *AccessService {
	return &AccessService{
		users:       users,
		exams:       exams,
		questions:   questions,
		permissions: permissions,
		results:     results,
		clk:         clk,
	}
}

// Classify resolves the pair's windows into a single unambiguous status:
// a non-completed window containing now wins; otherwise the earliest
// upcoming window reports Pending; otherwise the most recently ended
// window reports Expired; if every window is completed, Completed.
// Unknown user or exam ids classify as NoAssignment.
func (s *AccessService) Classify(ctx context.Context, userID int, examID uuid.UUID) (AccessDecision, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return AccessDecision{Status: AccessNoAssignment}, nil
		}
		return AccessDecision{}, fmt.Errorf("get user: %w", err)
	}
	if _, err := s.exams.GetByID(ctx, examID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return AccessDecision{Status: AccessNoAssignment}, nil
		}
		return AccessDecision{}, fmt.Errorf("get exam: %w", err)
	}

	windows, err := s.permissions.ListByUserExam(ctx, userID, examID)
	if err != nil {
		return AccessDecision{}, fmt.Errorf("list windows: %w", err)
	}
	if len(windows) == 0 {
		return AccessDecision{Status: AccessNoAssignment}, nil
	}

	now := s.clk.Now()

	var pending, expired *model.Permission
	for i := range windows {
		w := &windows[i]
		if w.Completed {
			continue
		}
		switch {
		case w.Contains(now):
			return AccessDecision{Status: AccessActive, Window: w}, nil
		case now.Before(w.StartAt):
			if pending == nil || w.StartAt.Before(pending.StartAt) {
				pending = w
			}
		default: // now >= w.EndAt
			if expired == nil || w.EndAt.After(expired.EndAt) {
				expired = w
			}
		}
	}

	if pending != nil {
		return AccessDecision{Status: AccessPending, Window: pending}, nil
	}
	if expired != nil {
		return AccessDecision{Status: AccessExpired, Window: expired}, nil
	}
	return AccessDecision{Status: AccessCompleted}, nil
}

// Dashboard builds the participant's exam list: each distinct assigned exam
// with its classification, window, question count, and the result when the
// assignment is completed.
func (s *AccessService) Dashboard(ctx context.Context, userID int) ([]DashboardEntry, error) {
	windows, err := s.permissions.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list windows: %w", err)
	}

	seen := make(map[uuid.UUID]bool, len(windows))
	entries := make([]DashboardEntry, 0, len(windows))

	for i := range windows {
		w := windows[i]
		if seen[w.ExamID] {
			continue
		}
		seen[w.ExamID] = true

		exam, err := s.exams.GetByID(ctx, w.ExamID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue // exam was deleted
			}
			return nil, fmt.Errorf("get exam: %w", err)
		}

		decision, err := s.Classify(ctx, userID, w.ExamID)
		if err != nil {
			return nil, err
		}

		questions, err := s.questions.ListByExam(ctx, w.ExamID)
		if err != nil {
			return nil, fmt.Errorf("list questions: %w", err)
		}

		entry := DashboardEntry{
			Exam:          *exam,
			QuestionCount: len(questions),
			Status:        decision.Status,
			Window:        decision.Window,
		}

		if decision.Status == AccessCompleted {
			for j := range windows {
				if windows[j].ExamID != w.ExamID {
					continue
				}
				if res, err := s.results.GetByPermission(ctx, windows[j].ID); err == nil {
					entry.Result = res
					break
				}
			}
		}

		entries = append(entries, entry)
	}

	return entries, nil
}
