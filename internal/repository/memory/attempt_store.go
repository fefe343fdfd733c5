package memory

import (
	"context"
	"sync"

	"github.com/examportal/examportal-backend/internal/model"
	"github.com/examportal/examportal-backend/internal/service"
	"github.com/google/uuid"
)

// AttemptStore is an in-memory service.AttemptStore. Finalize writes the
// result, completes the window, and discards the attempt under a single
// lock, matching the pgx repository's transaction.
type AttemptStore struct {
	mu       sync.Mutex
	attempts map[uuid.UUID]model.Attempt
	perms    *PermissionStore
	results  *ResultStore
}

// NewAttemptStore creates an AttemptStore wired to the permission and result
// stores it finalizes into.
func NewAttemptStore(perms *PermissionStore, results *ResultStore) *AttemptStore {
	return &AttemptStore{
		attempts: make(map[uuid.UUID]model.Attempt),
		perms:    perms,
		results:  results,
	}
}

func (s *AttemptStore) Create(_ context.Context, a *model.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.attempts {
		if existing.UserID == a.UserID && existing.ExamID == a.ExamID {
			return service.ErrAttemptExists
		}
	}
	s.attempts[a.ID] = *a
	return nil
}

func (s *AttemptStore) GetByID(_ context.Context, id uuid.UUID) (*model.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[id]
	if !ok {
		return nil, service.ErrNotFound
	}
	return &a, nil
}

func (s *AttemptStore) GetByUserExam(_ context.Context, userID int, examID uuid.UUID) (*model.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.attempts {
		if a.UserID == userID && a.ExamID == examID {
			a := a
			return &a, nil
		}
	}
	return nil, service.ErrNotFound
}

func (s *AttemptStore) GetByPermission(_ context.Context, permissionID uuid.UUID) (*model.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.attempts {
		if a.PermissionID == permissionID {
			a := a
			return &a, nil
		}
	}
	return nil, service.ErrNotFound
}

func (s *AttemptStore) UpdateAnswers(_ context.Context, id uuid.UUID, answers map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[id]
	if !ok {
		return service.ErrNotFound
	}
	a.Answers = answers
	s.attempts[id] = a
	return nil
}

func (s *AttemptStore) Finalize(_ context.Context, attemptID uuid.UUID, status model.AttemptStatus, res *model.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.attempts[attemptID]; !ok {
		return service.ErrNotFound
	}
	if err := s.results.insert(res); err != nil {
		return err
	}
	if err := s.perms.markCompleted(res.PermissionID); err != nil {
		s.results.remove(res.ID)
		return err
	}
	delete(s.attempts, attemptID)
	return nil
}
