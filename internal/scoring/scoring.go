// Package scoring computes attempt scores from a frozen question snapshot.
// It is pure: no stores, no clocks, no errors. Malformed answer data always
// degrades to "incorrect" so that submission can never fail on scoring.
package scoring

import "github.com/invigo/invigo-backend/internal/model"

// Result is the breakdown produced by Score.
type Result struct {
	TotalMarksObtained float64 `json:"total_marks_obtained"`
	TotalMarks         float64 `json:"total_marks"`
	Percentage         float64 `json:"percentage"`
	CorrectCount       int     `json:"correct_count"`
	AnsweredCount      int     `json:"answered_count"`
}

// Score grades the given answers against the question snapshot. For each
// question position, the selected option earns the question's marks iff it
// equals the correct answer index; unanswered positions and out-of-range
// selections earn 0. Identical inputs always yield identical results, which
// makes re-computation on submit retries safe.
func Score(answers model.AnswerMap, questions []model.Question) Result {
	var res Result

	for i, q := range questions {
		marks := q.Marks
		if marks <= 0 {
			marks = 1 // unweighted questions count as 1 mark
		}
		res.TotalMarks += marks

		selected, ok := answers[i]
		if !ok {
			continue
		}
		res.AnsweredCount++

		// Stale client state can carry an option index that no longer
		// exists; treat it as incorrect rather than failing the grade.
		if selected < 0 || selected >= len(q.Options) {
			continue
		}
		if selected == q.CorrectAnswer {
			res.CorrectCount++
			res.TotalMarksObtained += marks
		}
	}

	if res.TotalMarks > 0 {
		res.Percentage = res.TotalMarksObtained / res.TotalMarks * 100
	}
	return res
}
