package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/examportal/examportal-backend/internal/model"
	"github.com/examportal/examportal-backend/internal/service"
	"github.com/google/uuid"
)

// ResultStore is an in-memory service.ResultStore. Rows are inserted only
// through AttemptStore.Finalize.
type ResultStore struct {
	mu      sync.RWMutex
	results map[uuid.UUID]model.Result
}

// NewResultStore creates an empty ResultStore.
func NewResultStore() *ResultStore {
	return &ResultStore{results: make(map[uuid.UUID]model.Result)}
}

func (s *ResultStore) GetByID(_ context.Context, id uuid.UUID) (*model.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, ok := s.results[id]
	if !ok {
		return nil, service.ErrNotFound
	}
	return &res, nil
}

func (s *ResultStore) GetByAttempt(_ context.Context, attemptID uuid.UUID) (*model.Result, error) {
	return s.find(func(r model.Result) bool { return r.AttemptID == attemptID })
}

func (s *ResultStore) GetByPermission(_ context.Context, permissionID uuid.UUID) (*model.Result, error) {
	return s.find(func(r model.Result) bool { return r.PermissionID == permissionID })
}

func (s *ResultStore) List(_ context.Context) ([]model.Result, error) {
	return s.filter(func(model.Result) bool { return true }), nil
}

func (s *ResultStore) ListByExam(_ context.Context, examID uuid.UUID) ([]model.Result, error) {
	return s.filter(func(r model.Result) bool { return r.ExamID == examID }), nil
}

func (s *ResultStore) DeleteByUser(_ context.Context, userID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, r := range s.results {
		if r.UserID == userID {
			delete(s.results, id)
		}
	}
	return nil
}

func (s *ResultStore) insert(res *model.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[res.ID] = *res
	return nil
}

func (s *ResultStore) remove(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.results, id)
}

func (s *ResultStore) find(match func(model.Result) bool) (*model.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.results {
		if match(r) {
			r := r
			return &r, nil
		}
	}
	return nil, service.ErrNotFound
}

func (s *ResultStore) filter(keep func(model.Result) bool) []model.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var results []model.Result
	for _, r := range s.results {
		if keep(r) {
			results = append(results, r)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].SubmittedAt.After(results[j].SubmittedAt) })
	return results
}
