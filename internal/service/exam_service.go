package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/examportal/examportal-backend/internal/config"
	"github.com/examportal/examportal-backend/internal/model"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ExamService handles exam authoring and the Redis-cached taker paper.
// Exams are editable only by their creator; the paper never carries
// correct options.
type ExamService struct {
	exams     ExamStore
	questions QuestionStore
	rdb       *redis.Client
	log       zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(exams ExamStore, questions QuestionStore, rdb *redis.Client, log zerolog.Logger) *ExamService {
	return &ExamService{
		exams:     exams,
		questions: questions,
		rdb:       rdb,
		log:       log.With().Str("component", "exam_service").Logger(),
	}
}

// Create inserts a new exam owned by creatorID.
func (s *ExamService) Create(ctx context.Context, creatorID int, req model.CreateExamRequest) (*model.Exam, error) {
	exam := &model.Exam{
		ID:              uuid.New(),
		Title:           req.Title,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		CreatedBy:       creatorID,
	}
	if err := s.exams.Create(ctx, exam); err != nil {
		return nil, fmt.Errorf("create exam: %w", err)
	}
	return exam, nil
}

// GetOwned retrieves an exam, enforcing ownership.
func (s *ExamService) GetOwned(ctx context.Context, examID uuid.UUID, creatorID int) (*model.Exam, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return nil, err
	}
	if exam.CreatedBy != creatorID {
		return nil, ErrNotOwner
	}
	return exam, nil
}

// ListByCreator retrieves all exams owned by an admin.
func (s *ExamService) ListByCreator(ctx context.Context, creatorID int) ([]model.Exam, error) {
	exams, err := s.exams.ListByCreator(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	if exams == nil {
		exams = []model.Exam{}
	}
	return exams, nil
}

// Update modifies title, description, or duration of an owned exam.
func (s *ExamService) Update(ctx context.Context, examID uuid.UUID, creatorID int, req model.UpdateExamRequest) (*model.Exam, error) {
	exam, err := s.GetOwned(ctx, examID, creatorID)
	if err != nil {
		return nil, err
	}

	if req.Title != "" {
		exam.Title = req.Title
	}
	if req.Description != "" {
		exam.Description = req.Description
	}
	if req.DurationMinutes != 0 {
		exam.DurationMinutes = req.DurationMinutes
	}

	if err := s.exams.Update(ctx, exam); err != nil {
		return nil, fmt.Errorf("update exam: %w", err)
	}
	s.invalidatePaper(ctx, examID)
	return exam, nil
}

// Delete removes an owned exam.
func (s *ExamService) Delete(ctx context.Context, examID uuid.UUID, creatorID int) error {
	if _, err := s.GetOwned(ctx, examID, creatorID); err != nil {
		return err
	}
	if err := s.exams.Delete(ctx, examID); err != nil {
		return fmt.Errorf("delete exam: %w", err)
	}
	s.invalidatePaper(ctx, examID)
	return nil
}

// Paper returns the taker-facing payload for an exam, serving from the
// Redis cache when warm. Correct options never leave this method.
func (s *ExamService) Paper(ctx context.Context, examID uuid.UUID) (*model.ExamPaper, error) {
	key := config.CacheKey.ExamPaperKey(examID)

	if data, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
		var paper model.ExamPaper
		if err := json.Unmarshal(data, &paper); err == nil {
			return &paper, nil
		}
		// Corrupt cache entry: fall through and rebuild.
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Paper cache read failed")
	}

	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return nil, err
	}
	questions, err := s.questions.ListByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	paper := &model.ExamPaper{
		ExamID:          exam.ID,
		Title:           exam.Title,
		DurationMinutes: exam.DurationMinutes,
		Questions:       make([]model.QuestionForTaker, len(questions)),
	}
	for i, q := range questions {
		paper.Questions[i] = model.QuestionForTaker{
			ID:           q.ID,
			QuestionText: q.QuestionText,
			OptionA:      q.OptionA,
			OptionB:      q.OptionB,
			OptionC:      q.OptionC,
			OptionD:      q.OptionD,
			Marks:        q.Marks,
		}
	}

	if raw, err := json.Marshal(paper); err == nil {
		if err := s.rdb.Set(ctx, key, raw, 0).Err(); err != nil {
			s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Paper cache write failed")
		}
	}

	return paper, nil
}

// invalidatePaper drops the cached paper after authoring changes.
func (s *ExamService) invalidatePaper(ctx context.Context, examID uuid.UUID) {
	if err := s.rdb.Del(ctx, config.CacheKey.ExamPaperKey(examID)).Err(); err != nil {
		s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Paper cache invalidation failed")
	}
}
