package service

import (
	"context"
	"fmt"

	"github.com/examportal/examportal-backend/internal/model"
	"github.com/google/uuid"
)

// QuestionService manages exam questions, enforcing exam ownership through
// the exam service.
type QuestionService struct {
	questions QuestionStore
	exams     *ExamService
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(questions QuestionStore, exams *ExamService) *QuestionService {
	return &QuestionService{questions: questions, exams: exams}
}

// Add appends a question to an owned exam.
func (s *QuestionService) Add(ctx context.Context, examID uuid.UUID, creatorID int, req model.AddQuestionRequest) (*model.Question, error) {
	if _, err := s.exams.GetOwned(ctx, examID, creatorID); err != nil {
		return nil, err
	}

	q := &model.Question{
		ID:            uuid.New(),
		ExamID:        examID,
		QuestionText:  req.QuestionText,
		OptionA:       req.OptionA,
		OptionB:       req.OptionB,
		OptionC:       req.OptionC,
		OptionD:       req.OptionD,
		CorrectOption: req.CorrectOption,
		Marks:         req.Marks,
	}
	if err := s.questions.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}
	s.exams.invalidatePaper(ctx, examID)
	return q, nil
}

// ListByExam returns all questions of an owned exam, answer key included.
func (s *QuestionService) ListByExam(ctx context.Context, examID uuid.UUID, creatorID int) ([]model.Question, error) {
	if _, err := s.exams.GetOwned(ctx, examID, creatorID); err != nil {
		return nil, err
	}
	questions, err := s.questions.ListByExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	if questions == nil {
		questions = []model.Question{}
	}
	return questions, nil
}

// Update edits a question of an owned exam.
func (s *QuestionService) Update(ctx context.Context, questionID uuid.UUID, creatorID int, req model.UpdateQuestionRequest) (*model.Question, error) {
	q, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.exams.GetOwned(ctx, q.ExamID, creatorID); err != nil {
		return nil, err
	}

	if req.QuestionText != "" {
		q.QuestionText = req.QuestionText
	}
	if req.OptionA != "" {
		q.OptionA = req.OptionA
	}
	if req.OptionB != "" {
		q.OptionB = req.OptionB
	}
	if req.OptionC != "" {
		q.OptionC = req.OptionC
	}
	if req.OptionD != "" {
		q.OptionD = req.OptionD
	}
	if req.CorrectOption != "" {
		q.CorrectOption = req.CorrectOption
	}
	if req.Marks != 0 {
		q.Marks = req.Marks
	}

	if err := s.questions.Update(ctx, q); err != nil {
		return nil, fmt.Errorf("update question: %w", err)
	}
	s.exams.invalidatePaper(ctx, q.ExamID)
	return q, nil
}

// Delete removes a question from an owned exam.
func (s *QuestionService) Delete(ctx context.Context, questionID uuid.UUID, creatorID int) error {
	q, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		return err
	}
	if _, err := s.exams.GetOwned(ctx, q.ExamID, creatorID); err != nil {
		return err
	}
	if err := s.questions.Delete(ctx, questionID); err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	s.exams.invalidatePaper(ctx, q.ExamID)
	return nil
}
