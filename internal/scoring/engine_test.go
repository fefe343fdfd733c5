package scoring_test

import (
	"math"
	"testing"

	"github.com/examportal/examportal-backend/internal/model"
	"github.com/examportal/examportal-backend/internal/scoring"
	"github.com/google/uuid"
)

func question(correct string, marks int) model.Question {
	return model.Question{
		ID:            uuid.New(),
		QuestionText:  "q",
		OptionA:       "a",
		OptionB:       "b",
		OptionC:       "c",
		OptionD:       "d",
		CorrectOption: correct,
		Marks:         marks,
	}
}

func TestScorePartialCredit(t *testing.T) {
	q1 := question("A", 1)
	q2 := question("B", 2)
	q3 := question("C", 3)

	answers := map[string]string{
		q1.ID.String(): "A", // correct, 1 mark
		q2.ID.String(): "C", // wrong
		q3.ID.String(): "C", // correct, 3 marks
	}

	got := scoring.Score([]model.Question{q1, q2, q3}, answers)
	if got.RawScore != 4 {
		t.Fatalf("raw score = %d, want 4", got.RawScore)
	}
	if got.TotalMarks != 6 {
		t.Fatalf("total marks = %d, want 6", got.TotalMarks)
	}
	if math.Abs(got.Percentage-66.6666) > 0.01 {
		t.Fatalf("percentage = %f, want ~66.67", got.Percentage)
	}
}

func TestScoreUnansweredCountsAsIncorrect(t *testing.T) {
	q1 := question("A", 2)
	q2 := question("B", 2)

	got := scoring.Score([]model.Question{q1, q2}, map[string]string{
		q1.ID.String(): "A",
	})
	if got.RawScore != 2 || got.TotalMarks != 4 {
		t.Fatalf("got %+v, want raw=2 total=4", got)
	}
}

func TestScoreIgnoresUnknownQuestionIDs(t *testing.T) {
	q1 := question("D", 1)

	got := scoring.Score([]model.Question{q1}, map[string]string{
		q1.ID.String():   "D",
		uuid.NewString(): "A", // not part of the exam
	})
	if got.RawScore != 1 || got.TotalMarks != 1 {
		t.Fatalf("got %+v, want raw=1 total=1", got)
	}
}

func TestScoreZeroQuestionExam(t *testing.T) {
	got := scoring.Score(nil, map[string]string{"anything": "A"})
	if got.RawScore != 0 || got.TotalMarks != 0 || got.Percentage != 0 {
		t.Fatalf("got %+v, want all zero", got)
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	qs := []model.Question{question("A", 1), question("B", 5), question("C", 2)}
	answers := map[string]string{
		qs[0].ID.String(): "A",
		qs[1].ID.String(): "B",
	}

	first := scoring.Score(qs, answers)
	for i := 0; i < 10; i++ {
		if got := scoring.Score(qs, answers); got != first {
			t.Fatalf("run %d: got %+v, want %+v", i, got, first)
		}
	}
}
