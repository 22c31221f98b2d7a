package scoring

import (
	"math"
	"strings"

	"github.com/placementhub/placement-api/internal/models"
)

// GradeOutcome is the result of grading one test attempt.
type GradeOutcome struct {
	Score          int
	TotalPoints    int
	Percentage     int
	Correct        int
	Wrong          int
	Skipped        int
	CategoryScores map[string]int
}

// GradeAttempt grades submitted answers against a test's questions.
// Questions without a submitted answer count as skipped. Answer matching
// trims whitespace and ignores case so option-letter answers survive
// client formatting differences. Every question lands in exactly one of
// correct, wrong, or skipped.
func GradeAttempt(questions []models.Question, answers map[string]string) GradeOutcome {
	out := GradeOutcome{CategoryScores: map[string]int{}}

	for _, q := range questions {
		out.TotalPoints += q.Points
		given, ok := answers[q.ID]
		if !ok || strings.TrimSpace(given) == "" {
			out.Skipped++
			continue
		}
		if strings.EqualFold(strings.TrimSpace(given), strings.TrimSpace(q.CorrectAnswer)) {
			out.Correct++
			out.Score += q.Points
			out.CategoryScores[q.Category] += q.Points
		} else {
			out.Wrong++
		}
	}

	if out.TotalPoints > 0 {
		out.Percentage = int(math.Round(100 * float64(out.Score) / float64(out.TotalPoints)))
	}
	return out
}
