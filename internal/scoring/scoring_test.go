package scoring

import (
	"math"
	"testing"

	"github.com/invigo/invigo-backend/internal/model"
)

func threeQuestions() []model.Question {
	return []model.Question{
		{Text: "q0", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: 1, Marks: 1},
		{Text: "q1", Options: []string{"a", "b"}, CorrectAnswer: 0, Marks: 1},
		{Text: "q2", Options: []string{"a", "b", "c"}, CorrectAnswer: 2, Marks: 1},
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestScore(t *testing.T) {
	tests := []struct {
		name         string
		answers      model.AnswerMap
		questions    []model.Question
		wantObtained float64
		wantTotal    float64
		wantPercent  float64
		wantCorrect  int
		wantAnswered int
	}{
		{
			name:         "all correct",
			answers:      model.AnswerMap{0: 1, 1: 0, 2: 2},
			questions:    threeQuestions(),
			wantObtained: 3, wantTotal: 3, wantPercent: 100, wantCorrect: 3, wantAnswered: 3,
		},
		{
			// one correct, one wrong, one unanswered:
			// 1 of 3 marks, ~33.3%, below a passing mark of 2.
			name:         "partial with unanswered",
			answers:      model.AnswerMap{0: 1, 1: 1},
			questions:    threeQuestions(),
			wantObtained: 1, wantTotal: 3, wantPercent: 100.0 / 3.0, wantCorrect: 1, wantAnswered: 2,
		},
		{
			name:         "empty answers never error",
			answers:      model.AnswerMap{},
			questions:    threeQuestions(),
			wantObtained: 0, wantTotal: 3, wantPercent: 0, wantCorrect: 0, wantAnswered: 0,
		},
		{
			name:         "nil answers never error",
			answers:      nil,
			questions:    threeQuestions(),
			wantObtained: 0, wantTotal: 3, wantPercent: 0, wantCorrect: 0, wantAnswered: 0,
		},
		{
			name:         "out of range selection scores zero",
			answers:      model.AnswerMap{0: 99, 1: -1, 2: 2},
			questions:    threeQuestions(),
			wantObtained: 1, wantTotal: 3, wantPercent: 100.0 / 3.0, wantCorrect: 1, wantAnswered: 3,
		},
		{
			name:         "position beyond question set is ignored",
			answers:      model.AnswerMap{0: 1, 7: 0},
			questions:    threeQuestions(),
			wantObtained: 1, wantTotal: 3, wantPercent: 100.0 / 3.0, wantCorrect: 1, wantAnswered: 1,
		},
		{
			name: "weighted marks",
			answers: model.AnswerMap{
				0: 1, // worth 5
				1: 1, // wrong
				2: 2, // worth 2
			},
			questions: []model.Question{
				{Options: []string{"a", "b"}, CorrectAnswer: 1, Marks: 5},
				{Options: []string{"a", "b"}, CorrectAnswer: 0, Marks: 3},
				{Options: []string{"a", "b", "c"}, CorrectAnswer: 2, Marks: 2},
			},
			wantObtained: 7, wantTotal: 10, wantPercent: 70, wantCorrect: 2, wantAnswered: 3,
		},
		{
			name: "unweighted questions default to one mark",
			answers: model.AnswerMap{
				0: 0,
			},
			questions: []model.Question{
				{Options: []string{"a", "b"}, CorrectAnswer: 0, Marks: 0},
				{Options: []string{"a", "b"}, CorrectAnswer: 0, Marks: 0},
			},
			wantObtained: 1, wantTotal: 2, wantPercent: 50, wantCorrect: 1, wantAnswered: 1,
		},
		{
			name:         "no questions",
			answers:      model.AnswerMap{0: 0},
			questions:    nil,
			wantObtained: 0, wantTotal: 0, wantPercent: 0, wantCorrect: 0, wantAnswered: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.answers, tt.questions)
			if !almostEqual(got.TotalMarksObtained, tt.wantObtained) {
				t.Errorf("TotalMarksObtained = %v, want %v", got.TotalMarksObtained, tt.wantObtained)
			}
			if !almostEqual(got.TotalMarks, tt.wantTotal) {
				t.Errorf("TotalMarks = %v, want %v", got.TotalMarks, tt.wantTotal)
			}
			if !almostEqual(got.Percentage, tt.wantPercent) {
				t.Errorf("Percentage = %v, want %v", got.Percentage, tt.wantPercent)
			}
			if got.CorrectCount != tt.wantCorrect {
				t.Errorf("CorrectCount = %d, want %d", got.CorrectCount, tt.wantCorrect)
			}
			if got.AnsweredCount != tt.wantAnswered {
				t.Errorf("AnsweredCount = %d, want %d", got.AnsweredCount, tt.wantAnswered)
			}
		})
	}
}

func TestScoreDeterminism(t *testing.T) {
	answers := model.AnswerMap{0: 1, 1: 1, 2: 99}
	questions := threeQuestions()

	first := Score(answers, questions)
	for i := 0; i < 100; i++ {
		if got := Score(answers, questions); got != first {
			t.Fatalf("iteration %d: Score() = %+v, want %+v", i, got, first)
		}
	}
}
