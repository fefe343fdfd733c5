package model

import (
	"time"

	"github.com/google/uuid"
)

// Result is the finalized, immutable scored outcome of an attempt. Exactly
// one Result exists per completed attempt; AttemptID keeps repeated submits
// idempotent after the attempt row is discarded.
type Result struct {
	ID           uuid.UUID         `json:"id"`
	AttemptID    uuid.UUID         `json:"attempt_id"`
	PermissionID uuid.UUID         `json:"permission_id"`
	UserID       int               `json:"user_id"`
	ExamID       uuid.UUID         `json:"exam_id"`
	RawScore     int               `json:"raw_score"`
	TotalMarks   int               `json:"total_marks"`
	Percentage   float64           `json:"percentage"`
	Answers      map[string]string `json:"answers"`
	Trigger      SubmitTrigger     `json:"trigger"`
	SubmittedAt  time.Time         `json:"submitted_at"`
}
