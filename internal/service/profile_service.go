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

type profileRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.StudentProfile, error)
	FindByID(ctx context.Context, id string) (*models.StudentProfile, error)
	Create(ctx context.Context, profile *models.StudentProfile) error
	Update(ctx context.Context, profile *models.StudentProfile) error
	List(ctx context.Context, filter models.ProfileFilter) ([]models.StudentProfile, int, error)
}

// UpdateProfileRequest replaces the editable sections of a profile.
type UpdateProfileRequest struct {
	Personal     models.PersonalInfo      `json:"personal_info" validate:"required"`
	Academic     models.AcademicInfo      `json:"academic_info"`
	Skills       models.SkillSet          `json:"skills"`
	Experience   models.ExperienceInfo    `json:"experience"`
	Achievements []models.Achievement     `json:"achievements"`
	Social       models.SocialLinks       `json:"social_links"`
	Visibility   models.ProfileVisibility `json:"visibility" validate:"omitempty,oneof=public private"`
}

// ProfileService handles student profile use-cases. Every write recomputes
// the completeness score so listings never serve a stale value.
type ProfileService struct {
	repo      profileRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProfileService constructs the profile service.
func NewProfileService(repo profileRepository, validate *validator.Validate, logger *zap.Logger) *ProfileService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{repo: repo, validator: validate, logger: logger}
}

// GetByUser returns the profile belonging to a user account.
func (s *ProfileService) GetByUser(ctx context.Context, userID string) (*models.StudentProfile, error) {
	profile, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	return profile, nil
}

// Get returns a profile by its identifier, honoring visibility for
// non-owner student viewers.
func (s *ProfileService) Get(ctx context.Context, id string, viewerID string, viewerRole models.UserRole) (*models.StudentProfile, error) {
	profile, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	if profile.Visibility == models.ProfileVisibilityPrivate && viewerRole == models.RoleStudent && profile.UserID != viewerID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "profile is private")
	}
	return profile, nil
}

// Update replaces the editable sections of the caller's profile and
// recomputes the completeness score.
func (s *ProfileService) Update(ctx context.Context, userID string, req UpdateProfileRequest) (*models.StudentProfile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}

	profile, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}

	profile.Personal.PersonalInfo = req.Personal
	profile.Academic.AcademicInfo = req.Academic
	profile.Skills.SkillSet = req.Skills
	profile.Experience.ExperienceInfo = req.Experience
	profile.Achievements.Items = req.Achievements
	profile.Social.SocialLinks = req.Social
	if req.Visibility != "" {
		profile.Visibility = req.Visibility
	}
	profile.CompletenessScore = scoring.ProfileCompleteness(profile)

	if err := s.repo.Update(ctx, profile); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}
	return profile, nil
}

// List returns profiles for officers and trainers.
func (s *ProfileService) List(ctx context.Context, filter models.ProfileFilter) ([]models.StudentProfile, *models.Pagination, error) {
	profiles, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list profiles")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return profiles, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// AttachResume appends an uploaded resume reference to the profile and
// refreshes completeness.
func (s *ProfileService) AttachResume(ctx context.Context, userID string, ref models.ResumeRef) (*models.StudentProfile, error) {
	profile, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}

	if ref.IsDefault {
		for i := range profile.Resumes.Items {
			profile.Resumes.Items[i].IsDefault = false
		}
	}
	profile.Resumes.Items = append(profile.Resumes.Items, ref)
	profile.CompletenessScore = scoring.ProfileCompleteness(profile)

	if err := s.repo.Update(ctx, profile); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to attach resume")
	}
	return profile, nil
}
