package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/examportal/examportal-backend/internal/model"
	"github.com/examportal/examportal-backend/internal/service"
	"github.com/google/uuid"
)

// QuestionStore is an in-memory service.QuestionStore. Insertion order is
// tracked explicitly so ListByExam matches the repository's ordering.
type QuestionStore struct {
	mu        sync.RWMutex
	seq       int
	order     map[uuid.UUID]int
	questions map[uuid.UUID]model.Question
}

// NewQuestionStore creates an empty QuestionStore.
func NewQuestionStore() *QuestionStore {
	return &QuestionStore{
		order:     make(map[uuid.UUID]int),
		questions: make(map[uuid.UUID]model.Question),
	}
}

func (s *QuestionStore) Create(_ context.Context, q *model.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.order[q.ID] = s.seq
	s.questions[q.ID] = *q
	return nil
}

func (s *QuestionStore) GetByID(_ context.Context, id uuid.UUID) (*model.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[id]
	if !ok {
		return nil, service.ErrNotFound
	}
	return &q, nil
}

func (s *QuestionStore) ListByExam(_ context.Context, examID uuid.UUID) ([]model.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var questions []model.Question
	for _, q := range s.questions {
		if q.ExamID == examID {
			questions = append(questions, q)
		}
	}
	sort.Slice(questions, func(i, j int) bool {
		return s.order[questions[i].ID] < s.order[questions[j].ID]
	})
	return questions, nil
}

func (s *QuestionStore) Update(_ context.Context, q *model.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[q.ID]; !ok {
		return service.ErrNotFound
	}
	s.questions[q.ID] = *q
	return nil
}

func (s *QuestionStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[id]; !ok {
		return service.ErrNotFound
	}
	delete(s.questions, id)
	delete(s.order, id)
	return nil
}
