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

// ExamStore is an in-memory service.ExamStore.
type ExamStore struct {
	mu    sync.RWMutex
	exams map[uuid.UUID]model.Exam
}

// NewExamStore creates an empty ExamStore.
func NewExamStore() *ExamStore {
	return &ExamStore{exams: make(map[uuid.UUID]model.Exam)}
}

func (s *ExamStore) Create(_ context.Context, e *model.Exam) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	s.exams[e.ID] = *e
	return nil
}

func (s *ExamStore) GetByID(_ context.Context, id uuid.UUID) (*model.Exam, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.exams[id]
	if !ok {
		return nil, service.ErrNotFound
	}
	return &e, nil
}

func (s *ExamStore) ListByCreator(_ context.Context, creatorID int) ([]model.Exam, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var exams []model.Exam
	for _, e := range s.exams {
		if e.CreatedBy == creatorID {
			exams = append(exams, e)
		}
	}
	sort.Slice(exams, func(i, j int) bool { return exams[i].CreatedAt.After(exams[j].CreatedAt) })
	return exams, nil
}

func (s *ExamStore) Update(_ context.Context, e *model.Exam) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.exams[e.ID]; !ok {
		return service.ErrNotFound
	}
	e.UpdatedAt = time.Now().UTC()
	s.exams[e.ID] = *e
	return nil
}

func (s *ExamStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.exams[id]; !ok {
		return service.ErrNotFound
	}
	delete(s.exams, id)
	return nil
}
