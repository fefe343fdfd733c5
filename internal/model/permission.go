package model

import (
	"time"

	"github.com/google/uuid"
)

// Permission is an assignment window: the interval during which a user may
// start the referenced exam. Windows are half-open [StartAt, EndAt); for a
// given (user, exam) pair at most one non-completed window may contain any
// instant.
type Permission struct {
	ID        uuid.UUID `json:"id"`
	UserID    int       `json:"user_id"`
	ExamID    uuid.UUID `json:"exam_id"`
	StartAt   time.Time `json:"start_at"`
	EndAt     time.Time `json:"end_at"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Contains reports whether the instant falls inside the half-open window.
func (p *Permission) Contains(now time.Time) bool {
	return !now.Before(p.StartAt) && now.Before(p.EndAt)
}

// Overlaps reports whether the half-open interval [start, end) intersects
// this window.
func (p *Permission) Overlaps(start, end time.Time) bool {
	return start.Before(p.EndAt) && p.StartAt.Before(end)
}

// CreatePermissionRequest is the payload for assigning an exam to a user.
type CreatePermissionRequest struct {
	UserID  int       `json:"user_id" binding:"required"`
	ExamID  uuid.UUID `json:"exam_id" binding:"required"`
	StartAt time.Time `json:"start_at" binding:"required"`
	EndAt   time.Time `json:"end_at" binding:"required"`
}

// UpdatePermissionRequest is the payload for rescheduling a window.
type UpdatePermissionRequest struct {
	StartAt time.Time `json:"start_at" binding:"required"`
	EndAt   time.Time `json:"end_at" binding:"required"`
}
