package scoring

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/placementhub/placement-api/internal/models"
)

func fullResume() models.ResumeContent {
	return models.ResumeContent{
		Contact: models.ResumeContact{
			Name:     "Priya Sharma",
			Email:    "priya@example.com",
			Phone:    "+91 98765 43210",
			Location: "Chennai",
		},
		Summary: strings.Repeat("Motivated engineering student with strong fundamentals. ", 2),
		Education: []models.ResumeEducation{
			{Institution: "ABC Engineering College", Degree: "B.E.", Field: "CSE", EndYear: 2026},
		},
		Experience: []models.ResumeExperience{
			{Company: "Acme", Role: "Intern", Description: "Built dashboards in React and Python"},
		},
		Projects: []models.ResumeProject{
			{Title: "Inventory App", Description: "Node.js backend with SQL storage", Technologies: []string{"Docker", "AWS"}},
		},
		TechnicalSkills: []string{"JavaScript", "Python", "SQL"},
		SoftSkills:      []string{"Leadership", "Communication", "Teamwork"},
	}
}

func TestAnalyzeResumeContactOnly(t *testing.T) {
	a := AnalyzeResume(models.ResumeContent{
		Contact: models.ResumeContact{Name: "A", Email: "a@b.c", Phone: "123"},
	})

	assert.Equal(t, 30, a.Score)
	assert.False(t, a.Optimized)
	assert.Len(t, a.Suggestions, 5, "suggestions cap at five missing keywords")
}

func TestAnalyzeResumeFullScore(t *testing.T) {
	a := AnalyzeResume(fullResume())
	assert.Equal(t, 100, a.Score)
}

func TestAnalyzeResumeScoreBounds(t *testing.T) {
	empty := AnalyzeResume(models.ResumeContent{})
	assert.Equal(t, 0, empty.Score)

	total := 0
	for _, c := range empty.Checks {
		total += c.MaxPoints
	}
	assert.Equal(t, 100, total, "component maxima must sum to 100")
}

func TestAnalyzeResumeSummaryThreshold(t *testing.T) {
	short := AnalyzeResume(models.ResumeContent{Summary: "Too short."})
	long := AnalyzeResume(models.ResumeContent{Summary: strings.Repeat("x", 51)})

	assert.Equal(t, 0, short.Score)
	assert.Equal(t, 15, long.Score)
}

func TestAnalyzeResumeKeywordPartition(t *testing.T) {
	a := AnalyzeResume(fullResume())

	require.Equal(t, len(atsVocabulary), len(a.MatchedKeywords)+len(a.MissingKeywords))
	for _, kw := range a.MatchedKeywords {
		assert.NotContains(t, a.MissingKeywords, kw)
	}
	assert.Contains(t, a.MatchedKeywords, "react")
	assert.Contains(t, a.MatchedKeywords, "node.js")
	assert.Contains(t, a.MatchedKeywords, "leadership")
}

func TestAnalyzeResumeKeywordCaseInsensitive(t *testing.T) {
	a := AnalyzeResume(models.ResumeContent{TechnicalSkills: []string{"PYTHON", "Sql"}})
	assert.Contains(t, a.MatchedKeywords, "python")
	assert.Contains(t, a.MatchedKeywords, "sql")
}

func TestAnalyzeResumeOptimizedFlag(t *testing.T) {
	full := AnalyzeResume(fullResume())
	matchedAllButTwo := len(full.MissingKeywords) < 3

	assert.Equal(t, matchedAllButTwo, full.Optimized)

	empty := AnalyzeResume(models.ResumeContent{})
	assert.False(t, empty.Optimized)
	assert.Len(t, empty.MissingKeywords, len(atsVocabulary))
}
