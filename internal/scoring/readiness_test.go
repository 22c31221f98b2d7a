package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/placementhub/placement-api/internal/models"
)

func TestProfileCompletenessEmpty(t *testing.T) {
	assert.Equal(t, 0, ProfileCompleteness(&models.StudentProfile{}))
}

func TestProfileCompletenessFull(t *testing.T) {
	p := &models.StudentProfile{}
	p.Personal.Name = "Arun"
	p.Personal.RollNumber = "20CS101"
	p.Academic.CGPA = 8.1
	p.Skills.Technical = []string{"Go"}
	p.Experience.Projects = []models.ProjectEntry{{Title: "Portal"}}
	p.Resumes.Items = []models.ResumeRef{{ID: "r1"}}
	p.Social.GitHub = "https://github.com/arun"
	p.Achievements.Items = []models.Achievement{{Title: "Hackathon winner"}}

	assert.Equal(t, 100, ProfileCompleteness(p))
}

func TestProfileCompletenessPartial(t *testing.T) {
	p := &models.StudentProfile{}
	p.Personal.Name = "Arun"
	p.Academic.CGPA = 7.0

	// 2 of 8 checks met
	assert.Equal(t, 25, ProfileCompleteness(p))
}

func TestReadinessScoreWeights(t *testing.T) {
	assert.Equal(t, 100, ReadinessScore(100, 100, 100))
	assert.Equal(t, 0, ReadinessScore(0, 0, 0))
	// 0.3*80 + 0.4*60 + 0.3*70 = 69
	assert.Equal(t, 69, ReadinessScore(80, 60, 70))
}

func TestReadinessScoreClamped(t *testing.T) {
	assert.Equal(t, 100, ReadinessScore(150, 150, 150))
	assert.Equal(t, 0, ReadinessScore(-10, -10, -10))
}
