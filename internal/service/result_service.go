package service

import (
	"context"
	"fmt"

	"github.com/examportal/examportal-backend/internal/model"
	"github.com/google/uuid"
)

// ResultView is a result enriched with user and exam details for admin
// listings.
type ResultView struct {
	model.Result
	Username  string `json:"username"`
	ExamTitle string `json:"exam_title"`
}

// ResultService reads finalized results.
type ResultService struct {
	results ResultStore
	users   UserStore
	exams   ExamStore
}

// NewResultService creates a new ResultService.
func NewResultService(results ResultStore, users UserStore, exams ExamStore) *ResultService {
	return &ResultService{results: results, users: users, exams: exams}
}

// List returns every result enriched with username and exam title.
func (s *ResultService) List(ctx context.Context) ([]ResultView, error) {
	results, err := s.results.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	return s.enrich(ctx, results), nil
}

// ListByExam returns all results for one exam.
func (s *ResultService) ListByExam(ctx context.Context, examID uuid.UUID) ([]ResultView, error) {
	results, err := s.results.ListByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	return s.enrich(ctx, results), nil
}

func (s *ResultService) enrich(ctx context.Context, results []model.Result) []ResultView {
	views := make([]ResultView, 0, len(results))
	for i := range results {
		view := ResultView{Result: results[i]}
		if user, err := s.users.GetByID(ctx, results[i].UserID); err == nil {
			view.Username = user.Username
		}
		if exam, err := s.exams.GetByID(ctx, results[i].ExamID); err == nil {
			view.ExamTitle = exam.Title
		}
		views = append(views, view)
	}
	return views
}
