package scoring

import (
	"strings"
	"time"

	"github.com/placementhub/placement-api/internal/models"
)

// atsVocabulary is the fixed term list resumes are matched against.
// Matching is case-insensitive substring search over the whole resume text.
var atsVocabulary = []string{
	"leadership",
	"communication",
	"teamwork",
	"problem solving",
	"project management",
	"analytical",
	"critical thinking",
	"collaboration",
	"javascript",
	"python",
	"react",
	"node.js",
	"sql",
	"aws",
	"docker",
}

const minSummaryLength = 50

// AnalyzeResume scores a structured resume out of 100 and reports which
// components passed, which vocabulary terms matched, and what to fix.
// A resume is considered keyword-optimized when fewer than three terms
// are missing.
func AnalyzeResume(r models.ResumeContent) models.ATSAnalysis {
	var checks []models.ATSCheck
	score := 0

	add := func(component string, passed bool, points int, hint string) {
		earned := 0
		if passed {
			earned = points
			hint = ""
		}
		score += earned
		checks = append(checks, models.ATSCheck{
			Component: component,
			Passed:    passed,
			Points:    earned,
			MaxPoints: points,
			Hint:      hint,
		})
	}

	add("name", strings.TrimSpace(r.Contact.Name) != "", 10, "Add your full name")
	add("email", strings.TrimSpace(r.Contact.Email) != "", 10, "Add a contact email")
	add("phone", strings.TrimSpace(r.Contact.Phone) != "", 10, "Add a phone number")
	add("location", strings.TrimSpace(r.Contact.Location) != "", 5, "Add your location")
	add("summary", len(strings.TrimSpace(r.Summary)) > minSummaryLength, 15,
		"Write a professional summary of at least a few sentences")
	add("education", len(r.Education) > 0, 15, "Add at least one education entry")
	add("experience", len(r.Experience) > 0, 15, "Add internships or work experience")
	add("technical_skills", len(r.TechnicalSkills) > 0, 10, "List your technical skills")
	add("soft_skills", len(r.SoftSkills) > 0, 5, "List soft skills")
	add("projects", len(r.Projects) > 0, 5, "Add at least one project")

	matched, missing := matchKeywords(r)

	suggestions := make([]string, 0, 5)
	for _, kw := range missing {
		if len(suggestions) == 5 {
			break
		}
		suggestions = append(suggestions, "Consider adding the keyword \""+kw+"\"")
	}

	return models.ATSAnalysis{
		Score:           score,
		Checks:          checks,
		MatchedKeywords: matched,
		MissingKeywords: missing,
		Suggestions:     suggestions,
		Optimized:       len(missing) < 3,
		AnalyzedAt:      time.Now().UTC(),
	}
}

func matchKeywords(r models.ResumeContent) (matched, missing []string) {
	text := strings.ToLower(flattenResume(r))
	matched = make([]string, 0, len(atsVocabulary))
	missing = make([]string, 0, len(atsVocabulary))
	for _, kw := range atsVocabulary {
		if strings.Contains(text, kw) {
			matched = append(matched, kw)
		} else {
			missing = append(missing, kw)
		}
	}
	return matched, missing
}

func flattenResume(r models.ResumeContent) string {
	var b strings.Builder
	b.WriteString(r.Summary)
	b.WriteByte(' ')
	for _, e := range r.Experience {
		b.WriteString(e.Role)
		b.WriteByte(' ')
		b.WriteString(e.Description)
		b.WriteByte(' ')
	}
	for _, p := range r.Projects {
		b.WriteString(p.Title)
		b.WriteByte(' ')
		b.WriteString(p.Description)
		b.WriteByte(' ')
		b.WriteString(strings.Join(p.Technologies, " "))
		b.WriteByte(' ')
	}
	b.WriteString(strings.Join(r.TechnicalSkills, " "))
	b.WriteByte(' ')
	b.WriteString(strings.Join(r.SoftSkills, " "))
	b.WriteByte(' ')
	b.WriteString(strings.Join(r.Certifications, " "))
	return b.String()
}
