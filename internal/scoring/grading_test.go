package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/placementhub/placement-api/internal/models"
)

func twoQuestions() []models.Question {
	return []models.Question{
		{ID: "q1", CorrectAnswer: "A", Category: "aptitude", Points: 10},
		{ID: "q2", CorrectAnswer: "B", Category: "coding", Points: 10},
	}
}

func TestGradeAttemptMixed(t *testing.T) {
	out := GradeAttempt(twoQuestions(), map[string]string{"q1": "A", "q2": "C"})

	assert.Equal(t, 1, out.Correct)
	assert.Equal(t, 1, out.Wrong)
	assert.Equal(t, 0, out.Skipped)
	assert.Equal(t, 10, out.Score)
	assert.Equal(t, 20, out.TotalPoints)
	assert.Equal(t, 50, out.Percentage)
	assert.Equal(t, map[string]int{"aptitude": 10}, out.CategoryScores)
}

func TestGradeAttemptUnansweredSkipped(t *testing.T) {
	out := GradeAttempt(twoQuestions(), map[string]string{"q1": "A"})

	assert.Equal(t, 1, out.Correct)
	assert.Equal(t, 0, out.Wrong)
	assert.Equal(t, 1, out.Skipped)
}

func TestGradeAttemptBlankAnswerSkipped(t *testing.T) {
	out := GradeAttempt(twoQuestions(), map[string]string{"q1": "  ", "q2": "B"})

	assert.Equal(t, 1, out.Skipped)
	assert.Equal(t, 1, out.Correct)
}

func TestGradeAttemptComparisonLenient(t *testing.T) {
	out := GradeAttempt(twoQuestions(), map[string]string{"q1": " a ", "q2": "b"})

	assert.Equal(t, 2, out.Correct)
	assert.Equal(t, 100, out.Percentage)
}

func TestGradeAttemptConservation(t *testing.T) {
	qs := twoQuestions()
	for _, answers := range []map[string]string{
		{},
		{"q1": "A"},
		{"q1": "X", "q2": "Y"},
		{"q1": "A", "q2": "B"},
	} {
		out := GradeAttempt(qs, answers)
		assert.Equal(t, len(qs), out.Correct+out.Wrong+out.Skipped)
		assert.GreaterOrEqual(t, out.Percentage, 0)
		assert.LessOrEqual(t, out.Percentage, 100)
	}
}

func TestGradeAttemptCategoryTotals(t *testing.T) {
	qs := []models.Question{
		{ID: "q1", CorrectAnswer: "A", Category: "aptitude", Points: 5},
		{ID: "q2", CorrectAnswer: "B", Category: "aptitude", Points: 5},
		{ID: "q3", CorrectAnswer: "C", Category: "coding", Points: 10},
	}
	out := GradeAttempt(qs, map[string]string{"q1": "A", "q2": "B", "q3": "C"})

	sum := 0
	for _, v := range out.CategoryScores {
		sum += v
	}
	assert.Equal(t, out.Score, sum, "category scores must sum to the total score")
}

func TestGradeAttemptEmptyTest(t *testing.T) {
	out := GradeAttempt(nil, map[string]string{"ghost": "A"})

	assert.Equal(t, 0, out.TotalPoints)
	assert.Equal(t, 0, out.Percentage)
	assert.Equal(t, 0, out.Correct+out.Wrong+out.Skipped)
}
