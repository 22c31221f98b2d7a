package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/placementhub/placement-api/internal/models"
)

func baseCriteria() models.EligibilityCriteria {
	return models.EligibilityCriteria{
		MinCGPA:            7.0,
		MaxBacklogs:        0,
		AllowedDepartments: []string{"CSE", "IT"},
	}
}

func TestEvaluateEligibilityAllPass(t *testing.T) {
	out := EvaluateEligibility(baseCriteria(), Candidate{
		CGPA:       8.2,
		Backlogs:   0,
		Department: "CSE",
	})

	assert.True(t, out.Eligible)
	assert.Equal(t, 100, out.Score)
	assert.Len(t, out.Checks, 3)
	assert.Equal(t, "Student meets all eligibility criteria", out.Explanation)
	assert.Empty(t, out.Recommendations)
}

func TestEvaluateEligibilityCGPAFailure(t *testing.T) {
	out := EvaluateEligibility(baseCriteria(), Candidate{
		CGPA:       6.5,
		Backlogs:   0,
		Department: "CSE",
	})

	assert.False(t, out.Eligible)
	// backlogs (20) + department (15) pass out of 60 evaluated weights
	assert.Equal(t, 58, out.Score)
	assert.Equal(t, "Student fails on: cgpa", out.Explanation)
	require.Len(t, out.Recommendations, 1)
	assert.Contains(t, out.Recommendations[0], "CGPA")

	var cgpaCheck *models.CriterionCheck
	for i := range out.Checks {
		if out.Checks[i].Criterion == "cgpa" {
			cgpaCheck = &out.Checks[i]
		}
	}
	require.NotNil(t, cgpaCheck)
	assert.False(t, cgpaCheck.Passed)
	assert.Equal(t, 25, cgpaCheck.Weight)
}

func TestEvaluateEligibilityOptionalCriteriaSkipped(t *testing.T) {
	// No optional thresholds defined: only the three core criteria run.
	out := EvaluateEligibility(baseCriteria(), Candidate{
		CGPA:            7.5,
		Backlogs:        0,
		Department:      "IT",
		StandingArrears: 4,
	})

	assert.True(t, out.Eligible, "standing arrears must not count when the rule ignores them")
	assert.Len(t, out.Checks, 3)
}

func TestEvaluateEligibilityStandingArrears(t *testing.T) {
	c := baseCriteria()
	noArrears := true
	c.NoStandingArrears = &noArrears

	out := EvaluateEligibility(c, Candidate{
		CGPA:            9.0,
		Backlogs:        0,
		Department:      "CSE",
		StandingArrears: 2,
	})

	assert.False(t, out.Eligible)
	// cgpa 25 + backlogs 20 + dept 15 = 60 of 80 evaluated
	assert.Equal(t, 75, out.Score)
}

func TestEvaluateEligibilityBoardPercentages(t *testing.T) {
	c := baseCriteria()
	tenth := 60.0
	twelfth := 70.0
	c.MinTenthPercentage = &tenth
	c.MinTwelfthPercentage = &twelfth

	out := EvaluateEligibility(c, Candidate{
		CGPA:              8.0,
		Backlogs:          0,
		Department:        "CSE",
		TenthPercentage:   85,
		TwelfthPercentage: 65,
	})

	assert.False(t, out.Eligible)
	assert.Len(t, out.Checks, 5)
	// passes everything but twelfth: 70 of 80
	assert.Equal(t, 88, out.Score)
	assert.Equal(t, "Student fails on: twelfth_percentage", out.Explanation)
}

func TestEvaluateEligibilityPassoutYear(t *testing.T) {
	c := baseCriteria()
	c.AllowedPassoutYears = []int{2026, 2027}

	eligible := EvaluateEligibility(c, Candidate{CGPA: 8, Department: "CSE", PassoutYear: 2026})
	assert.True(t, eligible.Eligible)

	blocked := EvaluateEligibility(c, Candidate{CGPA: 8, Department: "CSE", PassoutYear: 2025})
	assert.False(t, blocked.Eligible)
	assert.Equal(t, 86, blocked.Score) // 60 of 70 evaluated
}

func TestEvaluateEligibilityDepartmentCaseInsensitive(t *testing.T) {
	out := EvaluateEligibility(baseCriteria(), Candidate{
		CGPA:       7.0,
		Department: "cse",
	})
	assert.True(t, out.Eligible)
}

func TestEvaluateEligibilityZeroProfileDefaults(t *testing.T) {
	// An empty candidate evaluates without panicking and fails on merit.
	out := EvaluateEligibility(baseCriteria(), Candidate{})
	assert.False(t, out.Eligible)
	assert.GreaterOrEqual(t, out.Score, 0)
	assert.LessOrEqual(t, out.Score, 100)
	assert.Equal(t, "Student fails on: cgpa, department", out.Explanation)
}

func TestEvaluateEligibilityScoreMonotonic(t *testing.T) {
	c := baseCriteria()
	weaker := EvaluateEligibility(c, Candidate{CGPA: 5, Backlogs: 3, Department: "ECE"})
	stronger := EvaluateEligibility(c, Candidate{CGPA: 5, Backlogs: 0, Department: "ECE"})

	assert.Greater(t, stronger.Score, weaker.Score)
	assert.False(t, stronger.Eligible, "passing one more criterion must not flip the verdict while another fails")
}

func TestEvaluateEligibilityDeterministic(t *testing.T) {
	c := baseCriteria()
	cand := Candidate{CGPA: 7.5, Backlogs: 1, Department: "IT"}

	first := EvaluateEligibility(c, cand)
	second := EvaluateEligibility(c, cand)
	assert.Equal(t, first, second)
}
