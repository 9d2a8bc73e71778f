package handler

import (
	"reflect"
	"testing"

	"github.com/invigo/invigo-backend/internal/model"
	"github.com/invigo/invigo-backend/internal/scoring"
)

func TestAnswersFromHash(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		want   model.AnswerMap
	}{
		{
			name:   "positions and options parse",
			fields: map[string]string{"0": "2", "3": "1"},
			want:   model.AnswerMap{0: 2, 3: 1},
		},
		{
			name:   "junk fields are skipped",
			fields: map[string]string{"0": "1", "abc": "2", "1": "xyz"},
			want:   model.AnswerMap{0: 1},
		},
		{
			name:   "empty hash",
			fields: map[string]string{},
			want:   nil,
		},
		{
			name:   "all junk",
			fields: map[string]string{"a": "b"},
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := answersFromHash(tt.fields)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("answersFromHash(%v) = %v, want %v", tt.fields, got, tt.want)
			}
		})
	}
}

func TestOverlayAnswers(t *testing.T) {
	tests := []struct {
		name          string
		base, overlay model.AnswerMap
		want          model.AnswerMap
	}{
		{
			name:    "live answer wins over checkpointed",
			base:    model.AnswerMap{0: 0, 1: 1},
			overlay: model.AnswerMap{1: 2},
			want:    model.AnswerMap{0: 0, 1: 2},
		},
		{
			name:    "live answer fills a gap",
			base:    model.AnswerMap{0: 0},
			overlay: model.AnswerMap{2: 1},
			want:    model.AnswerMap{0: 0, 2: 1},
		},
		{
			name:    "empty overlay keeps base",
			base:    model.AnswerMap{0: 0},
			overlay: nil,
			want:    model.AnswerMap{0: 0},
		},
		{
			name:    "both empty",
			base:    nil,
			overlay: nil,
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := overlayAnswers(tt.base, tt.overlay)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("overlayAnswers(%v, %v) = %v, want %v", tt.base, tt.overlay, got, tt.want)
			}
		})
	}
}

// A forced submit must grade answers that were acked into the live buffer
// but not yet drained into the attempt row by the persistence worker.
func TestForcedSubmitScoresLiveBufferedAnswer(t *testing.T) {
	questions := []model.Question{
		{Text: "q0", Options: []string{"a", "b"}, CorrectAnswer: 0, Marks: 1},
		{Text: "q1", Options: []string{"a", "b"}, CorrectAnswer: 1, Marks: 1},
	}

	checkpointed := model.AnswerMap{0: 0}
	live := answersFromHash(map[string]string{"1": "1"})

	withoutBuffer := scoring.Score(checkpointed, questions)
	if withoutBuffer.TotalMarksObtained != 1 {
		t.Fatalf("checkpoint-only marks = %v, want 1", withoutBuffer.TotalMarksObtained)
	}

	merged := overlayAnswers(checkpointed, live)
	result := scoring.Score(merged, questions)
	if result.TotalMarksObtained != 2 {
		t.Errorf("merged marks = %v, want 2 (buffered answer must count)", result.TotalMarksObtained)
	}
}
