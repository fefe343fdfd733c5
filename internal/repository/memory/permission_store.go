package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/examportal/examportal-backend/internal/model"
	"github.com/examportal/examportal-backend/internal/service"
	"github.com/google/uuid"
)

// PermissionStore is an in-memory service.PermissionStore.
type PermissionStore struct {
	mu    sync.RWMutex
	perms map[uuid.UUID]model.Permission
}

// NewPermissionStore creates an empty PermissionStore.
func NewPermissionStore() *PermissionStore {
	return &PermissionStore{perms: make(map[uuid.UUID]model.Permission)}
}

func (s *PermissionStore) Create(_ context.Context, p *model.Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	s.perms[p.ID] = *p
	return nil
}

func (s *PermissionStore) GetByID(_ context.Context, id uuid.UUID) (*model.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.perms[id]
	if !ok {
		return nil, service.ErrNotFound
	}
	return &p, nil
}

func (s *PermissionStore) ListByUserExam(_ context.Context, userID int, examID uuid.UUID) ([]model.Permission, error) {
	return s.filter(func(p model.Permission) bool {
		return p.UserID == userID && p.ExamID == examID
	}), nil
}

func (s *PermissionStore) ListByUser(_ context.Context, userID int) ([]model.Permission, error) {
	return s.filter(func(p model.Permission) bool { return p.UserID == userID }), nil
}

func (s *PermissionStore) List(_ context.Context) ([]model.Permission, error) {
	return s.filter(func(model.Permission) bool { return true }), nil
}

func (s *PermissionStore) Update(_ context.Context, p *model.Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.perms[p.ID]; !ok {
		return service.ErrNotFound
	}
	p.UpdatedAt = time.Now().UTC()
	s.perms[p.ID] = *p
	return nil
}

func (s *PermissionStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.perms[id]; !ok {
		return service.ErrNotFound
	}
	delete(s.perms, id)
	return nil
}

func (s *PermissionStore) DeleteByUser(_ context.Context, userID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.perms {
		if p.UserID == userID {
			delete(s.perms, id)
		}
	}
	return nil
}

// markCompleted is used by AttemptStore.Finalize to flip the window inside
// the same critical section as the result insert.
func (s *PermissionStore) markCompleted(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.perms[id]
	if !ok {
		return service.ErrNotFound
	}
	p.Completed = true
	p.UpdatedAt = time.Now().UTC()
	s.perms[id] = p
	return nil
}

func (s *PermissionStore) filter(keep func(model.Permission) bool) []model.Permission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var perms []model.Permission
	for _, p := range s.perms {
		if keep(p) {
			perms = append(perms, p)
		}
	}
	sort.Slice(perms, func(i, j int) bool { return perms[i].StartAt.Before(perms[j].StartAt) })
	return perms
}
