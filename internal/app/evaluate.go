package app

import (
	"sort"

	"ranczo-quiz/internal/domain"
)

// IsCorrect reports whether selected matches the question's correct answers
// as a set. There is no partial credit.
func IsCorrect(q domain.Question, selected []int) bool {
	if len(selected) != len(q.CorrectAnswers) {
		return false
	}
	got := sortedCopy(selected)
	want := sortedCopy(q.CorrectAnswers)
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func sortedCopy(in []int) []int {
	out := make([]int, len(in))
	copy(out, in)
	sort.Ints(out)
	return out
}

// ScoreResult totals a set of answers against the questions they belong to.
func ScoreResult(questions []domain.Question, answers domain.Answers) domain.Result {
	res := domain.Result{TotalQuestions: len(questions)}
	for _, q := range questions {
		res.TotalPoints += q.Points
		selected, ok := answers[q.ID]
		if !ok || !IsCorrect(q, selected) {
			continue
		}
		res.EarnedPoints += q.Points
		res.CorrectCount++
	}
	res.Percent = Percent(res.EarnedPoints, res.TotalPoints)
	return res
}

// Percent rounds earned/total to a whole percentage; 0 when total is 0.
func Percent(earned, total int) int {
	if total <= 0 {
		return 0
	}
	return roundHalfUp(100 * float64(earned) / float64(total))
}
