package model

import "github.com/google/uuid"

// Question represents a single four-option multiple-choice question.
// The correct option is one of A, B, C, D; marks is at least 1.
type Question struct {
	ID            uuid.UUID `json:"id"`
	ExamID        uuid.UUID `json:"exam_id"`
	QuestionText  string    `json:"question_text"`
	OptionA       string    `json:"option_a"`
	OptionB       string    `json:"option_b"`
	OptionC       string    `json:"option_c"`
	OptionD       string    `json:"option_d"`
	CorrectOption string    `json:"correct_option"`
	Marks         int       `json:"marks"`
}

// AddQuestionRequest is the payload for adding a question to an exam.
type AddQuestionRequest struct {
	QuestionText  string `json:"question_text" binding:"required,min=1,max=2000"`
	OptionA       string `json:"option_a" binding:"required,max=500"`
	OptionB       string `json:"option_b" binding:"required,max=500"`
	OptionC       string `json:"option_c" binding:"required,max=500"`
	OptionD       string `json:"option_d" binding:"required,max=500"`
	CorrectOption string `json:"correct_option" binding:"required,oneof=A B C D"`
	Marks         int    `json:"marks" binding:"required,min=1"`
}

// UpdateQuestionRequest is the payload for editing a question.
type UpdateQuestionRequest struct {
	QuestionText  string `json:"question_text" binding:"omitempty,min=1,max=2000"`
	OptionA       string `json:"option_a" binding:"omitempty,max=500"`
	OptionB       string `json:"option_b" binding:"omitempty,max=500"`
	OptionC       string `json:"option_c" binding:"omitempty,max=500"`
	OptionD       string `json:"option_d" binding:"omitempty,max=500"`
	CorrectOption string `json:"correct_option" binding:"omitempty,oneof=A B C D"`
	Marks         int    `json:"marks" binding:"omitempty,min=1"`
}
