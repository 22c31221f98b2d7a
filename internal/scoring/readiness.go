package scoring

import (
	"math"
	"strings"

	"github.com/placementhub/placement-api/internal/models"
)

const completenessChecks = 8

// ProfileCompleteness scores a profile out of 100 across eight equally
// weighted checks: name, roll number, CGPA, technical skills, any
// experience, any resume, any social link, and any achievement.
func ProfileCompleteness(p *models.StudentProfile) int {
	met := 0
	if strings.TrimSpace(p.Personal.Name) != "" {
		met++
	}
	if strings.TrimSpace(p.Personal.RollNumber) != "" {
		met++
	}
	if p.Academic.CGPA > 0 {
		met++
	}
	if len(p.Skills.Technical) > 0 {
		met++
	}
	if len(p.Experience.Internships) > 0 || len(p.Experience.Projects) > 0 {
		met++
	}
	if len(p.Resumes.Items) > 0 {
		met++
	}
	if p.Social.GitHub != "" || p.Social.LinkedIn != "" || p.Social.Portfolio != "" {
		met++
	}
	if len(p.Achievements.Items) > 0 {
		met++
	}
	return int(math.Round(100 * float64(met) / float64(completenessChecks)))
}

// ReadinessScore blends training attendance, mock test performance, and
// resume quality into a single 0-100 indicator. Inputs are already on a
// 0-100 scale; the result is clamped in case callers pass values outside it.
func ReadinessScore(attendanceRate, avgTestPercentage float64, atsScore int) int {
	raw := 0.3*attendanceRate + 0.4*avgTestPercentage + 0.3*float64(atsScore)
	score := int(math.Round(raw))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
