// Package scoring holds the pure evaluation engines: eligibility rules,
// resume ATS analysis, mock test grading, and the derived readiness and
// profile completeness scores. Everything here is deterministic and free
// of I/O so the services can call it directly and the tests stay simple.
package scoring

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/placementhub/placement-api/internal/models"
)

// Criterion weights. Only criteria a rule actually defines count toward
// the denominator, so a rule without a tenth-percentage threshold is
// scored out of the remaining weights.
const (
	weightCGPA        = 25
	weightBacklogs    = 20
	weightDepartment  = 15
	weightArrears     = 20
	weightTenth       = 10
	weightTwelfth     = 10
	weightPassoutYear = 10
)

// Candidate is the academic snapshot evaluated against a rule. It is
// derived from the student profile; absent profile fields default to
// zero values rather than failing evaluation.
type Candidate struct {
	CGPA              float64
	Backlogs          int
	Department        string
	StandingArrears   int
	TenthPercentage   float64
	TwelfthPercentage float64
	PassoutYear       int
}

// EligibilityOutcome is the result of evaluating one candidate.
type EligibilityOutcome struct {
	Eligible        bool
	Score           int
	Checks          []models.CriterionCheck
	Explanation     string
	Recommendations []string
}

// EvaluateEligibility checks a candidate against a rule's criteria.
// The verdict is the conjunction of every evaluated criterion; the score
// is the weight of passed criteria scaled to 100 over the evaluated
// weights. Criteria the rule leaves undefined are skipped entirely.
func EvaluateEligibility(c models.EligibilityCriteria, cand Candidate) EligibilityOutcome {
	var (
		checks    []models.CriterionCheck
		failed    []string
		recs      []string
		earned    int
		evaluated int
		eligible  = true
	)

	record := func(check models.CriterionCheck, rec string) {
		evaluated += check.Weight
		if check.Passed {
			earned += check.Weight
		} else {
			eligible = false
			failed = append(failed, check.Criterion)
			if rec != "" {
				recs = append(recs, rec)
			}
		}
		checks = append(checks, check)
	}

	record(models.CriterionCheck{
		Criterion: "cgpa",
		Required:  fmt.Sprintf(">= %.2f", c.MinCGPA),
		Actual:    fmt.Sprintf("%.2f", cand.CGPA),
		Passed:    cand.CGPA >= c.MinCGPA,
		Weight:    weightCGPA,
	}, fmt.Sprintf("Improve CGPA to at least %.2f through upcoming semesters", c.MinCGPA))

	record(models.CriterionCheck{
		Criterion: "backlogs",
		Required:  fmt.Sprintf("<= %d", c.MaxBacklogs),
		Actual:    strconv.Itoa(cand.Backlogs),
		Passed:    cand.Backlogs <= c.MaxBacklogs,
		Weight:    weightBacklogs,
	}, "Clear pending backlogs before the registration deadline")

	record(models.CriterionCheck{
		Criterion: "department",
		Required:  strings.Join(c.AllowedDepartments, ", "),
		Actual:    cand.Department,
		Passed:    containsFold(c.AllowedDepartments, cand.Department),
		Weight:    weightDepartment,
	}, "This drive is restricted to other departments")

	if c.NoStandingArrears != nil && *c.NoStandingArrears {
		record(models.CriterionCheck{
			Criterion: "standing_arrears",
			Required:  "0",
			Actual:    strconv.Itoa(cand.StandingArrears),
			Passed:    cand.StandingArrears == 0,
			Weight:    weightArrears,
		}, "Clear standing arrears; this company requires none")
	}

	if c.MinTenthPercentage != nil {
		record(models.CriterionCheck{
			Criterion: "tenth_percentage",
			Required:  fmt.Sprintf(">= %.1f%%", *c.MinTenthPercentage),
			Actual:    fmt.Sprintf("%.1f%%", cand.TenthPercentage),
			Passed:    cand.TenthPercentage >= *c.MinTenthPercentage,
			Weight:    weightTenth,
		}, "10th percentage is below the company cutoff")
	}

	if c.MinTwelfthPercentage != nil {
		record(models.CriterionCheck{
			Criterion: "twelfth_percentage",
			Required:  fmt.Sprintf(">= %.1f%%", *c.MinTwelfthPercentage),
			Actual:    fmt.Sprintf("%.1f%%", cand.TwelfthPercentage),
			Passed:    cand.TwelfthPercentage >= *c.MinTwelfthPercentage,
			Weight:    weightTwelfth,
		}, "12th percentage is below the company cutoff")
	}

	if len(c.AllowedPassoutYears) > 0 {
		record(models.CriterionCheck{
			Criterion: "passout_year",
			Required:  joinInts(c.AllowedPassoutYears),
			Actual:    strconv.Itoa(cand.PassoutYear),
			Passed:    containsInt(c.AllowedPassoutYears, cand.PassoutYear),
			Weight:    weightPassoutYear,
		}, "Your passout year is not covered by this drive")
	}

	score := 0
	if evaluated > 0 {
		score = int(math.Round(100 * float64(earned) / float64(evaluated)))
	}

	explanation := "Student meets all eligibility criteria"
	if !eligible {
		explanation = "Student fails on: " + strings.Join(failed, ", ")
	}

	return EligibilityOutcome{
		Eligible:        eligible,
		Score:           score,
		Checks:          checks,
		Explanation:     explanation,
		Recommendations: recs,
	}
}

func containsFold(list []string, v string) bool {
	for _, s := range list {
		if strings.EqualFold(strings.TrimSpace(s), strings.TrimSpace(v)) {
			return true
		}
	}
	return false
}

func containsInt(list []int, v int) bool {
	for _, n := range list {
		if n == v {
			return true
		}
	}
	return false
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}
