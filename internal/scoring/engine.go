// Package scoring computes deterministic scores for submitted answer maps.
package scoring

import "github.com/examportal/examportal-backend/internal/model"

// Summary is the outcome of scoring one answer map against an exam.
type Summary struct {
	RawScore   int     `json:"raw_score"`
	TotalMarks int     `json:"total_marks"`
	Percentage float64 `json:"percentage"`
}

// Score grades an answer map (question id -> chosen option) against the
// exam's questions. It is a pure function: unanswered questions count as
// incorrect, unknown question ids in the answer map are ignored, and the
// percentage is zero when the exam carries no marks at all.
func Score(questions []model.Question, answers map[string]string) Summary {
	var s Summary
	for _, q := range questions {
		s.TotalMarks += q.Marks
		if chosen, ok := answers[q.ID.String()]; ok && chosen == q.CorrectOption {
			s.RawScore += q.Marks
		}
	}
	if s.TotalMarks > 0 {
		s.Percentage = float64(s.RawScore) / float64(s.TotalMarks) * 100
	}
	return s
}
