package model

import (
	"time"

	"github.com/google/uuid"
)

// Exam represents a timed multiple-choice examination. An exam is owned by
// the admin who created it; duration is always positive.
type Exam struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	DurationMinutes int       `json:"duration_minutes"`
	CreatedBy       int       `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Duration returns the exam duration as a time.Duration.
func (e *Exam) Duration() time.Duration {
	return time.Duration(e.DurationMinutes) * time.Minute
}

// CreateExamRequest is the payload for creating a new exam.
type CreateExamRequest struct {
	Title           string `json:"title" binding:"required,min=3,max=255"`
	Description     string `json:"description" binding:"omitempty,max=2000"`
	DurationMinutes int    `json:"duration_minutes" binding:"required,min=5,max=300"`
}

// UpdateExamRequest is the payload for updating an existing exam.
type UpdateExamRequest struct {
	Title           string `json:"title" binding:"omitempty,min=3,max=255"`
	Description     string `json:"description" binding:"omitempty,max=2000"`
	DurationMinutes int    `json:"duration_minutes" binding:"omitempty,min=5,max=300"`
}

// ExamPaper is the taker-facing payload: questions without correct options.
// Cached in Redis so exam starts never leak the answer key.
type ExamPaper struct {
	ExamID          uuid.UUID          `json:"exam_id"`
	Title           string             `json:"title"`
	DurationMinutes int                `json:"duration_minutes"`
	Questions       []QuestionForTaker `json:"questions"`
}

// QuestionForTaker is a question without the correct option.
type QuestionForTaker struct {
	ID           uuid.UUID `json:"id"`
	QuestionText string    `json:"question_text"`
	OptionA      string    `json:"option_a"`
	OptionB      string    `json:"option_b"`
	OptionC      string    `json:"option_c"`
	OptionD      string    `json:"option_d"`
	Marks        int       `json:"marks"`
}
