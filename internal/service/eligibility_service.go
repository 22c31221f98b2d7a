package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/placementhub/placement-api/internal/models"
	"github.com/placementhub/placement-api/internal/scoring"
	appErrors "github.com/placementhub/placement-api/pkg/errors"
)

type eligibilityRepository interface {
	CreateRule(ctx context.Context, rule *models.EligibilityRule) error
	FindRule(ctx context.Context, id string) (*models.EligibilityRule, error)
	FindApplicable(ctx context.Context, driveID string) (*models.EligibilityRule, error)
	ListRules(ctx context.Context, activeOnly bool) ([]models.EligibilityRule, error)
	UpdateRule(ctx context.Context, rule *models.EligibilityRule) error
	SaveResult(ctx context.Context, result *models.EligibilityResult) error
	LatestResult(ctx context.Context, studentID, ruleID string) (*models.EligibilityResult, error)
	ResultsByStudent(ctx context.Context, studentID string) ([]models.EligibilityResult, error)
	CreateOverride(ctx context.Context, override *models.EligibilityOverride) error
	FindOverride(ctx context.Context, studentID, driveID string) (*models.EligibilityOverride, error)
	Stats(ctx context.Context, ruleID string) (*models.EligibilityStats, error)
}

type eligibilityProfileReader interface {
	FindByUserID(ctx context.Context, userID string) (*models.StudentProfile, error)
}

// EligibilityService evaluates students against placement rules.
type EligibilityService struct {
	repo      eligibilityRepository
	profiles  eligibilityProfileReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEligibilityService constructs the eligibility service.
func NewEligibilityService(repo eligibilityRepository, profiles eligibilityProfileReader, validate *validator.Validate, logger *zap.Logger) *EligibilityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EligibilityService{repo: repo, profiles: profiles, validator: validate, logger: logger}
}

// CreateRule stores a named criteria set.
func (s *EligibilityService) CreateRule(ctx context.Context, createdBy string, req models.CreateRuleRequest) (*models.EligibilityRule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rule payload")
	}

	rule := &models.EligibilityRule{
		Name:        req.Name,
		Description: req.Description,
		Criteria:    models.EligibilityCriteriaDoc{EligibilityCriteria: req.Criteria},
		DriveID:     req.DriveID,
		Priority:    req.Priority,
		CreatedBy:   createdBy,
		Active:      true,
	}
	if err := s.repo.CreateRule(ctx, rule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create rule")
	}
	return rule, nil
}

// ListRules returns the stored rules.
func (s *EligibilityService) ListRules(ctx context.Context, activeOnly bool) ([]models.EligibilityRule, error) {
	rules, err := s.repo.ListRules(ctx, activeOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rules")
	}
	return rules, nil
}

// UpdateRule replaces a rule's criteria or toggles it.
func (s *EligibilityService) UpdateRule(ctx context.Context, id string, req models.CreateRuleRequest, active bool) (*models.EligibilityRule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rule payload")
	}
	rule, err := s.repo.FindRule(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "rule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rule")
	}
	rule.Name = req.Name
	rule.Description = req.Description
	rule.Criteria = models.EligibilityCriteriaDoc{EligibilityCriteria: req.Criteria}
	rule.DriveID = req.DriveID
	rule.Priority = req.Priority
	rule.Active = active
	if err := s.repo.UpdateRule(ctx, rule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update rule")
	}
	return rule, nil
}

// Check evaluates a student against a rule and persists the result.
// The academic snapshot comes from the student profile; absent fields
// evaluate as zero values rather than erroring out.
func (s *EligibilityService) Check(ctx context.Context, studentID, ruleID string, driveID *string) (*models.EligibilityResult, error) {
	rule, err := s.repo.FindRule(ctx, ruleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "rule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rule")
	}

	profile, err := s.profiles.FindByUserID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}

	outcome := scoring.EvaluateEligibility(rule.Criteria.EligibilityCriteria, scoring.Candidate{
		CGPA:              profile.Academic.CGPA,
		Backlogs:          profile.Academic.Backlogs,
		Department:        profile.Personal.Department,
		StandingArrears:   profile.Academic.StandingArrears,
		TenthPercentage:   profile.Academic.TenthPercentage,
		TwelfthPercentage: profile.Academic.TwelfthPercentage,
		PassoutYear:       profile.Academic.PassoutYear,
	})

	result := &models.EligibilityResult{
		StudentID:       studentID,
		RuleID:          ruleID,
		DriveID:         driveID,
		Eligible:        outcome.Eligible,
		Score:           outcome.Score,
		Checks:          models.CriterionChecksDoc{Items: outcome.Checks},
		Explanation:     outcome.Explanation,
		Recommendations: models.RecommendationsDoc{Items: outcome.Recommendations},
	}
	if err := s.repo.SaveResult(ctx, result); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save result")
	}
	return result, nil
}

// CheckForDrive evaluates a student against the rule governing a drive,
// picking the highest-priority active rule scoped to it or global.
func (s *EligibilityService) CheckForDrive(ctx context.Context, studentID, driveID string) (*models.EligibilityResult, error) {
	rule, err := s.repo.FindApplicable(ctx, driveID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no eligibility rule applies to this drive")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve rule")
	}
	return s.Check(ctx, studentID, rule.ID, &driveID)
}

// IsAdmitted reports whether a student may register for a drive: either
// the governing rule passes or an officer granted an override. An empty
// ruleID resolves the applicable rule for the drive; a drive with no
// applicable rule admits everyone.
func (s *EligibilityService) IsAdmitted(ctx context.Context, studentID, ruleID, driveID string) (bool, error) {
	if ruleID == "" {
		rule, err := s.repo.FindApplicable(ctx, driveID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return true, nil
			}
			return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve rule")
		}
		ruleID = rule.ID
	}

	result, err := s.Check(ctx, studentID, ruleID, &driveID)
	if err != nil {
		return false, err
	}
	if result.Eligible {
		return true, nil
	}

	if _, err := s.repo.FindOverride(ctx, studentID, driveID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check override")
	}
	return true, nil
}

// History returns a student's evaluation history.
func (s *EligibilityService) History(ctx context.Context, studentID string) ([]models.EligibilityResult, error) {
	results, err := s.repo.ResultsByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load history")
	}
	return results, nil
}

// Override grants a manual pass for a student on a drive, linked to the
// evaluation it supersedes. When the student was never evaluated against
// the governing rule, a fresh check runs first so the link always exists.
func (s *EligibilityService) Override(ctx context.Context, grantedBy string, req models.OverrideRequest) (*models.EligibilityOverride, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid override payload")
	}

	if _, err := s.repo.FindOverride(ctx, req.StudentID, req.DriveID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "override already granted")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check override")
	}

	rule, err := s.repo.FindApplicable(ctx, req.DriveID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "no eligibility rule applies to this drive; nothing to override")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve rule")
	}
	result, err := s.repo.LatestResult(ctx, req.StudentID, rule.ID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load result")
		}
		result, err = s.Check(ctx, req.StudentID, rule.ID, &req.DriveID)
		if err != nil {
			return nil, err
		}
	}

	override := &models.EligibilityOverride{
		ResultID:  result.ID,
		StudentID: req.StudentID,
		DriveID:   req.DriveID,
		Reason:    req.Reason,
		GrantedBy: grantedBy,
	}
	if err := s.repo.CreateOverride(ctx, override); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create override")
	}
	return override, nil
}

// Stats aggregates evaluation outcomes for a rule.
func (s *EligibilityService) Stats(ctx context.Context, ruleID string) (*models.EligibilityStats, error) {
	stats, err := s.repo.Stats(ctx, ruleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load stats")
	}
	return stats, nil
}
