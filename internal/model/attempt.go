package model

import (
	"time"

	"github.com/google/uuid"
)

// AttemptStatus enumerates attempt states.
type AttemptStatus string

const (
	AttemptStatusInProgress AttemptStatus = "IN_PROGRESS"
	AttemptStatusSubmitted  AttemptStatus = "SUBMITTED"
	AttemptStatusTimedOut   AttemptStatus = "TIMED_OUT"
)

// SubmitTrigger identifies what caused a submission.
type SubmitTrigger string

const (
	SubmitTriggerManual  SubmitTrigger = "MANUAL"
	SubmitTriggerTimeout SubmitTrigger = "TIMEOUT"
)

// Attempt is one in-progress exam-taking session. An attempt is ephemeral:
// it terminates into exactly one Result and is discarded on finalization.
// The in-flight answer map lives in Redis; the row persisted here is what
// is needed to resume after a crash.
type Attempt struct {
	ID           uuid.UUID         `json:"id"`
	PermissionID uuid.UUID         `json:"permission_id"`
	UserID       int               `json:"user_id"`
	ExamID       uuid.UUID         `json:"exam_id"`
	StartedAt    time.Time         `json:"started_at"`
	Deadline     time.Time         `json:"deadline"`
	Status       AttemptStatus     `json:"status"`
	Answers      map[string]string `json:"answers,omitempty"`
}

// RecordAnswerRequest is the payload for recording a single answer.
type RecordAnswerRequest struct {
	QuestionID uuid.UUID `json:"question_id" binding:"required"`
	Option     string    `json:"option" binding:"required,oneof=A B C D"`
}

// SubmitRequest is the payload for submitting an attempt.
type SubmitRequest struct {
	Trigger SubmitTrigger `json:"trigger" binding:"omitempty,oneof=MANUAL TIMEOUT"`
}

// AttemptState is the in-flight view of an attempt: the answers autosaved so
// far and the seconds left before the deadline (clamped at zero).
type AttemptState struct {
	AttemptID        uuid.UUID         `json:"attempt_id"`
	ExamID           uuid.UUID         `json:"exam_id"`
	Status           AttemptStatus     `json:"status"`
	Answers          map[string]string `json:"answers"`
	RemainingSeconds float64           `json:"remaining_seconds"`
}
