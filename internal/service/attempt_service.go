package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/examportal/examportal-backend/internal/clock"
	"github.com/examportal/examportal-backend/internal/config"
	"github.com/examportal/examportal-backend/internal/model"
	"github.com/examportal/examportal-backend/internal/scoring"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// AttemptService is the exam-session state machine: it starts attempts
// inside active windows, tracks in-flight answers, enforces the deadline,
// and finalizes attempts into immutable results. Time-based transitions
// are evaluated lazily on each call through the injected clock; there is
// no timer goroutine in here.
type AttemptService struct {
	permissions PermissionStore
	attempts    AttemptStore
	results     ResultStore
	exams       ExamStore
	questions   QuestionStore
	access      *AccessService
	rdb         *redis.Client
	clk         clock.Clock
	log         zerolog.Logger
	locks       *pairLock
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(
	permissions PermissionStore,
	attempts AttemptStore,
	results ResultStore,
	exams ExamStore,
	questions QuestionStore,
	access *AccessService,
	rdb *redis.Client,
	clk clock.Clock,
	log zerolog.Logger,
) *AttemptService {
	return &AttemptService{
		permissions: permissions,
		attempts:    attempts,
		results:     results,
		exams:       exams,
		questions:   questions,
		access:      access,
		rdb:         rdb,
		clk:         clk,
		log:         log.With().Str("component", "attempt_service").Logger(),
		locks:       newPairLock(),
	}
}

// Start begins an attempt for the pair. It requires the access evaluator to
// report Active and refuses a second start while an attempt is in progress;
// both failure modes surface as ErrAccessDenied. The returned attempt
// carries the deadline (startedAt + exam duration).
func (s *AttemptService) Start(ctx context.Context, userID int, examID uuid.UUID) (*model.Attempt, error) {
	unlock := s.locks.Lock(userID, examID)
	defer unlock()

	decision, err := s.access.Classify(ctx, userID, examID)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}
	if decision.Status != AccessActive {
		return nil, ErrAccessDenied
	}

	if _, err := s.attempts.GetByUserExam(ctx, userID, examID); err == nil {
		return nil, ErrAccessDenied
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("check existing attempt: %w", err)
	}

	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}

	now := s.clk.Now()
	attempt := &model.Attempt{
		ID:           uuid.New(),
		PermissionID: decision.Window.ID,
		UserID:       userID,
		ExamID:       examID,
		StartedAt:    now,
		Deadline:     now.Add(exam.Duration()),
		Status:       model.AttemptStatusInProgress,
	}

	if err := s.attempts.Create(ctx, attempt); err != nil {
		if errors.Is(err, ErrAttemptExists) {
			// Concurrent start from another process lost the race.
			return nil, ErrAccessDenied
		}
		return nil, fmt.Errorf("create attempt: %w", err)
	}

	s.log.Info().
		Int("user_id", userID).
		Str("exam_id", examID.String()).
		Str("attempt_id", attempt.ID.String()).
		Time("deadline", attempt.Deadline).
		Msg("Attempt started")

	return attempt, nil
}

// RecordAnswer upserts one answer in the attempt's in-flight answer map.
// Allowed only while the attempt is in progress and strictly before the
// deadline; anything else is ErrSessionClosed, forcing the caller onto the
// submit path instead of smuggling post-deadline answers in.
func (s *AttemptService) RecordAnswer(ctx context.Context, attemptID, questionID uuid.UUID, option string) error {
	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Finalized attempts are discarded, so a missing row means the
			// session is over (or never existed).
			return ErrSessionClosed
		}
		return fmt.Errorf("get attempt: %w", err)
	}

	if attempt.Status != model.AttemptStatusInProgress {
		return ErrSessionClosed
	}
	if !s.clk.Now().Before(attempt.Deadline) {
		return ErrSessionClosed
	}

	key := config.CacheKey.AttemptAnswersKey(attemptID)
	if err := s.rdb.HSet(ctx, key, questionID.String(), option).Err(); err != nil {
		return fmt.Errorf("autosave answer: %w", err)
	}

	// Queue for durable persistence; the autosave worker drains this.
	payload, _ := json.Marshal(map[string]string{
		"attempt_id":  attemptID.String(),
		"question_id": questionID.String(),
		"option":      option,
	})
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistAnswersQueue, payload).Err(); err != nil {
		s.log.Warn().Err(err).Str("attempt_id", attemptID.String()).Msg("Answer persistence enqueue failed")
	}

	return nil
}

// Submit finalizes an attempt: scores the answer map, stores the result,
// marks the originating permission completed, and discards the attempt.
// It is idempotent: submitting an already-finalized attempt returns the
// stored result. A Timeout trigger is honored only once the deadline has
// been reached.
func (s *AttemptService) Submit(ctx context.Context, attemptID uuid.UUID, trigger model.SubmitTrigger) (*model.Result, error) {
	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return s.existingResult(ctx, attemptID)
		}
		return nil, fmt.Errorf("get attempt: %w", err)
	}

	unlock := s.locks.Lock(attempt.UserID, attempt.ExamID)
	defer unlock()

	// Re-validate under the lock: a racing submit may have finalized first.
	attempt, err = s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return s.existingResult(ctx, attemptID)
		}
		return nil, fmt.Errorf("get attempt: %w", err)
	}

	now := s.clk.Now()
	if trigger == model.SubmitTriggerTimeout && now.Before(attempt.Deadline) {
		return nil, ErrSessionClosed
	}

	answersKey := config.CacheKey.AttemptAnswersKey(attemptID)
	answers, err := s.rdb.HGetAll(ctx, answersKey).Result()
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}
	if answers == nil {
		answers = map[string]string{}
	}

	questions, err := s.questions.ListByExam(ctx, attempt.ExamID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	summary := scoring.Score(questions, answers)

	status := model.AttemptStatusSubmitted
	if trigger == model.SubmitTriggerTimeout {
		status = model.AttemptStatusTimedOut
	}

	result := &model.Result{
		ID:           uuid.New(),
		AttemptID:    attempt.ID,
		PermissionID: attempt.PermissionID,
		UserID:       attempt.UserID,
		ExamID:       attempt.ExamID,
		RawScore:     summary.RawScore,
		TotalMarks:   summary.TotalMarks,
		Percentage:   summary.Percentage,
		Answers:      answers,
		Trigger:      trigger,
		SubmittedAt:  now,
	}

	// Atomic: result insert + permission completed + attempt discard. On
	// failure the attempt stays InProgress so a retry is safe.
	if err := s.attempts.Finalize(ctx, attempt.ID, status, result); err != nil {
		return nil, fmt.Errorf("finalize attempt: %w", err)
	}

	if err := s.rdb.Del(ctx, answersKey).Err(); err != nil {
		s.log.Warn().Err(err).Str("attempt_id", attemptID.String()).Msg("Answer cache cleanup failed")
	}

	emitEvent(ctx, s.rdb, s.log, Event{
		Type:       EventExamCompleted,
		OccurredAt: now,
		UserID:     attempt.UserID,
		ExamID:     attempt.ExamID.String(),
		Fields: map[string]string{
			"raw_score":   fmt.Sprintf("%d", summary.RawScore),
			"total_marks": fmt.Sprintf("%d", summary.TotalMarks),
			"percentage":  fmt.Sprintf("%.2f", summary.Percentage),
		},
	})

	s.log.Info().
		Str("attempt_id", attempt.ID.String()).
		Str("trigger", string(trigger)).
		Int("raw_score", summary.RawScore).
		Int("total_marks", summary.TotalMarks).
		Msg("Attempt finalized")

	return result, nil
}

// State reports the in-flight view of an attempt: autosaved answers and
// remaining seconds, clamped at zero once the deadline has passed.
func (s *AttemptService) State(ctx context.Context, attemptID uuid.UUID) (*model.AttemptState, error) {
	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		return nil, err
	}

	answers, err := s.rdb.HGetAll(ctx, config.CacheKey.AttemptAnswersKey(attemptID)).Result()
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}
	if answers == nil {
		answers = map[string]string{}
	}

	remaining := attempt.Deadline.Sub(s.clk.Now()).Seconds()
	if remaining < 0 {
		remaining = 0
	}

	return &model.AttemptState{
		AttemptID:        attempt.ID,
		ExamID:           attempt.ExamID,
		Status:           attempt.Status,
		Answers:          answers,
		RemainingSeconds: remaining,
	}, nil
}

// Get retrieves an attempt by id.
func (s *AttemptService) Get(ctx context.Context, attemptID uuid.UUID) (*model.Attempt, error) {
	return s.attempts.GetByID(ctx, attemptID)
}

// existingResult resolves the idempotent-submit path: the attempt row is
// gone, so the stored result is the answer. A truly unknown attempt id
// yields ErrNotFound.
func (s *AttemptService) existingResult(ctx context.Context, attemptID uuid.UUID) (*model.Result, error) {
	res, err := s.results.GetByAttempt(ctx, attemptID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get result: %w", err)
	}
	return res, nil
}
