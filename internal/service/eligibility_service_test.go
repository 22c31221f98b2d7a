package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/placementhub/placement-api/internal/models"
)

type eligibilityRepoStub struct {
	rules     map[string]*models.EligibilityRule
	results   []*models.EligibilityResult
	overrides map[string]*models.EligibilityOverride
}

func newEligibilityRepoStub() *eligibilityRepoStub {
	return &eligibilityRepoStub{
		rules:     map[string]*models.EligibilityRule{},
		overrides: map[string]*models.EligibilityOverride{},
	}
}

func (r *eligibilityRepoStub) CreateRule(ctx context.Context, rule *models.EligibilityRule) error {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	r.rules[rule.ID] = rule
	return nil
}

func (r *eligibilityRepoStub) FindRule(ctx context.Context, id string) (*models.EligibilityRule, error) {
	rule, ok := r.rules[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return rule, nil
}

func (r *eligibilityRepoStub) FindApplicable(ctx context.Context, driveID string) (*models.EligibilityRule, error) {
	var best *models.EligibilityRule
	for _, rule := range r.rules {
		if !rule.Active {
			continue
		}
		if rule.DriveID != nil && *rule.DriveID != driveID {
			continue
		}
		if best == nil || rule.Priority > best.Priority {
			best = rule
		}
	}
	if best == nil {
		return nil, sql.ErrNoRows
	}
	return best, nil
}

func (r *eligibilityRepoStub) ListRules(ctx context.Context, activeOnly bool) ([]models.EligibilityRule, error) {
	var rules []models.EligibilityRule
	for _, rule := range r.rules {
		if activeOnly && !rule.Active {
			continue
		}
		rules = append(rules, *rule)
	}
	return rules, nil
}

func (r *eligibilityRepoStub) UpdateRule(ctx context.Context, rule *models.EligibilityRule) error {
	r.rules[rule.ID] = rule
	return nil
}

func (r *eligibilityRepoStub) SaveResult(ctx context.Context, result *models.EligibilityResult) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	r.results = append(r.results, result)
	return nil
}

func (r *eligibilityRepoStub) LatestResult(ctx context.Context, studentID, ruleID string) (*models.EligibilityResult, error) {
	for i := len(r.results) - 1; i >= 0; i-- {
		if r.results[i].StudentID == studentID && r.results[i].RuleID == ruleID {
			return r.results[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *eligibilityRepoStub) ResultsByStudent(ctx context.Context, studentID string) ([]models.EligibilityResult, error) {
	var results []models.EligibilityResult
	for _, result := range r.results {
		if result.StudentID == studentID {
			results = append(results, *result)
		}
	}
	return results, nil
}

func (r *eligibilityRepoStub) CreateOverride(ctx context.Context, override *models.EligibilityOverride) error {
	if override.ID == "" {
		override.ID = uuid.NewString()
	}
	r.overrides[override.StudentID+":"+override.DriveID] = override
	return nil
}

func (r *eligibilityRepoStub) FindOverride(ctx context.Context, studentID, driveID string) (*models.EligibilityOverride, error) {
	override, ok := r.overrides[studentID+":"+driveID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return override, nil
}

func (r *eligibilityRepoStub) Stats(ctx context.Context, ruleID string) (*models.EligibilityStats, error) {
	return &models.EligibilityStats{RuleID: ruleID}, nil
}

type profileReaderStub struct {
	profiles map[string]*models.StudentProfile
}

func (p profileReaderStub) FindByUserID(ctx context.Context, userID string) (*models.StudentProfile, error) {
	profile, ok := p.profiles[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return profile, nil
}

func eligibleProfile(userID string) *models.StudentProfile {
	return &models.StudentProfile{
		ID:     uuid.NewString(),
		UserID: userID,
		Personal: models.PersonalInfoDoc{PersonalInfo: models.PersonalInfo{
			Name:       "Priya Raman",
			Department: "CSE",
		}},
		Academic: models.AcademicInfoDoc{AcademicInfo: models.AcademicInfo{
			CGPA:              8.2,
			Backlogs:          0,
			TenthPercentage:   91,
			TwelfthPercentage: 88,
			PassoutYear:       2026,
		}},
	}
}

func newEligibilityServiceForTest(profiles map[string]*models.StudentProfile) (*EligibilityService, *eligibilityRepoStub) {
	repo := newEligibilityRepoStub()
	svc := NewEligibilityService(repo, profileReaderStub{profiles: profiles}, nil, zap.NewNop())
	return svc, repo
}

func TestEligibilityServiceCheckPersistsResult(t *testing.T) {
	studentID := uuid.NewString()
	svc, repo := newEligibilityServiceForTest(map[string]*models.StudentProfile{
		studentID: eligibleProfile(studentID),
	})

	rule, err := svc.CreateRule(context.Background(), "officer-1", models.CreateRuleRequest{
		Name: "Core CS drives",
		Criteria: models.EligibilityCriteria{
			MinCGPA:            7.0,
			MaxBacklogs:        0,
			AllowedDepartments: []string{"CSE", "IT"},
		},
	})
	require.NoError(t, err)

	result, err := svc.Check(context.Background(), studentID, rule.ID, nil)
	require.NoError(t, err)
	assert.True(t, result.Eligible)
	assert.Equal(t, 100, result.Score)
	require.Len(t, repo.results, 1)
	assert.Equal(t, studentID, repo.results[0].StudentID)
}

func TestEligibilityServiceCheckFailsOnCriteria(t *testing.T) {
	studentID := uuid.NewString()
	profile := eligibleProfile(studentID)
	profile.Academic.CGPA = 6.1
	svc, _ := newEligibilityServiceForTest(map[string]*models.StudentProfile{studentID: profile})

	rule, err := svc.CreateRule(context.Background(), "officer-1", models.CreateRuleRequest{
		Name: "High CGPA only",
		Criteria: models.EligibilityCriteria{
			MinCGPA:            7.5,
			MaxBacklogs:        0,
			AllowedDepartments: []string{"CSE"},
		},
	})
	require.NoError(t, err)

	result, err := svc.Check(context.Background(), studentID, rule.ID, nil)
	require.NoError(t, err)
	assert.False(t, result.Eligible)
	assert.Equal(t, "Student fails on: cgpa", result.Explanation)
	assert.NotEmpty(t, result.Recommendations.Items)
}

func TestEligibilityServiceCheckForDrivePicksHighestPriority(t *testing.T) {
	studentID := uuid.NewString()
	driveID := uuid.NewString()
	svc, _ := newEligibilityServiceForTest(map[string]*models.StudentProfile{
		studentID: eligibleProfile(studentID),
	})

	_, err := svc.CreateRule(context.Background(), "officer-1", models.CreateRuleRequest{
		Name:     "Lenient default",
		Priority: 1,
		Criteria: models.EligibilityCriteria{
			MinCGPA:            5.0,
			MaxBacklogs:        5,
			AllowedDepartments: []string{"CSE", "IT", "ECE"},
		},
	})
	require.NoError(t, err)

	strict, err := svc.CreateRule(context.Background(), "officer-1", models.CreateRuleRequest{
		Name:     "Strict for this drive",
		DriveID:  &driveID,
		Priority: 10,
		Criteria: models.EligibilityCriteria{
			MinCGPA:            9.5,
			MaxBacklogs:        0,
			AllowedDepartments: []string{"CSE"},
		},
	})
	require.NoError(t, err)

	result, err := svc.CheckForDrive(context.Background(), studentID, driveID)
	require.NoError(t, err)
	assert.Equal(t, strict.ID, result.RuleID)
	assert.False(t, result.Eligible, "8.2 CGPA fails the 9.5 floor of the winning rule")

	admitted, err := svc.IsAdmitted(context.Background(), studentID, "", uuid.NewString())
	require.NoError(t, err)
	assert.True(t, admitted, "other drives fall back to the lenient global rule")
}

func TestEligibilityServiceIsAdmittedNoApplicableRule(t *testing.T) {
	studentID := uuid.NewString()
	svc, _ := newEligibilityServiceForTest(map[string]*models.StudentProfile{})

	admitted, err := svc.IsAdmitted(context.Background(), studentID, "", uuid.NewString())
	require.NoError(t, err)
	assert.True(t, admitted)
}

func TestEligibilityServiceIsAdmittedViaOverride(t *testing.T) {
	studentID := uuid.NewString()
	driveID := uuid.NewString()
	profile := eligibleProfile(studentID)
	profile.Academic.Backlogs = 3
	svc, _ := newEligibilityServiceForTest(map[string]*models.StudentProfile{studentID: profile})

	rule, err := svc.CreateRule(context.Background(), "officer-1", models.CreateRuleRequest{
		Name: "No backlogs",
		Criteria: models.EligibilityCriteria{
			MinCGPA:            6.0,
			MaxBacklogs:        0,
			AllowedDepartments: []string{"CSE"},
		},
	})
	require.NoError(t, err)

	admitted, err := svc.IsAdmitted(context.Background(), studentID, rule.ID, driveID)
	require.NoError(t, err)
	assert.False(t, admitted)

	_, err = svc.Override(context.Background(), "officer-1", models.OverrideRequest{
		StudentID: studentID,
		DriveID:   driveID,
		Reason:    "approved by placement committee",
	})
	require.NoError(t, err)

	admitted, err = svc.IsAdmitted(context.Background(), studentID, rule.ID, driveID)
	require.NoError(t, err)
	assert.True(t, admitted)
}

func TestEligibilityServiceOverrideLinksEvaluation(t *testing.T) {
	studentID := uuid.NewString()
	driveID := uuid.NewString()
	profile := eligibleProfile(studentID)
	profile.Academic.CGPA = 5.5
	svc, repo := newEligibilityServiceForTest(map[string]*models.StudentProfile{studentID: profile})

	_, err := svc.CreateRule(context.Background(), "officer-1", models.CreateRuleRequest{
		Name: "High CGPA only",
		Criteria: models.EligibilityCriteria{
			MinCGPA:            7.0,
			MaxBacklogs:        0,
			AllowedDepartments: []string{"CSE"},
		},
	})
	require.NoError(t, err)

	// No prior check exists, so granting the override evaluates first
	// and links the override to that result.
	override, err := svc.Override(context.Background(), "officer-1", models.OverrideRequest{
		StudentID: studentID,
		DriveID:   driveID,
		Reason:    "approved by placement committee",
	})
	require.NoError(t, err)
	require.Len(t, repo.results, 1)
	assert.Equal(t, repo.results[0].ID, override.ResultID)
	assert.False(t, repo.results[0].Eligible)
}

func TestEligibilityServiceOverrideWithoutRuleRejected(t *testing.T) {
	studentID := uuid.NewString()
	svc, _ := newEligibilityServiceForTest(map[string]*models.StudentProfile{})

	_, err := svc.Override(context.Background(), "officer-1", models.OverrideRequest{
		StudentID: studentID,
		DriveID:   uuid.NewString(),
		Reason:    "approved by placement committee",
	})
	require.Error(t, err, "a drive with no governing rule admits everyone already")
}

func TestEligibilityServiceOverrideConflict(t *testing.T) {
	studentID := uuid.NewString()
	driveID := uuid.NewString()
	profile := eligibleProfile(studentID)
	profile.Academic.CGPA = 5.0
	svc, _ := newEligibilityServiceForTest(map[string]*models.StudentProfile{studentID: profile})

	_, err := svc.CreateRule(context.Background(), "officer-1", models.CreateRuleRequest{
		Name: "High CGPA only",
		Criteria: models.EligibilityCriteria{
			MinCGPA:            7.0,
			MaxBacklogs:        0,
			AllowedDepartments: []string{"CSE"},
		},
	})
	require.NoError(t, err)

	req := models.OverrideRequest{
		StudentID: studentID,
		DriveID:   driveID,
		Reason:    "approved by placement committee",
	}
	_, err = svc.Override(context.Background(), "officer-1", req)
	require.NoError(t, err)

	_, err = svc.Override(context.Background(), "officer-1", req)
	require.Error(t, err)
}
