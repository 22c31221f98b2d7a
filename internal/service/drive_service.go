package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/placementhub/placement-api/internal/models"
	appErrors "github.com/placementhub/placement-api/pkg/errors"
)

type driveRepository interface {
	Create(ctx context.Context, drive *models.CompanyDrive) error
	FindByID(ctx context.Context, id string) (*models.CompanyDrive, error)
	List(ctx context.Context, filter models.DriveFilter) ([]models.CompanyDrive, int, error)
	Update(ctx context.Context, drive *models.CompanyDrive) error
	UpdateStatus(ctx context.Context, id string, status models.DriveStatus) error
	PositionsByDrive(ctx context.Context, driveID string) ([]models.DrivePosition, error)
}

type driveCacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// DriveService handles company drive use-cases.
type DriveService struct {
	repo      driveRepository
	cache     driveCacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDriveService constructs the drive service.
func NewDriveService(repo driveRepository, cache driveCacheInvalidator, validate *validator.Validate, logger *zap.Logger) *DriveService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DriveService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// Create announces a new drive with at least one position.
func (s *DriveService) Create(ctx context.Context, createdBy string, req models.CreateDriveRequest) (*models.CompanyDrive, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid drive payload")
	}
	if !req.RegistrationEnd.After(req.RegistrationOpen) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "registration window must end after it opens")
	}

	drive := &models.CompanyDrive{
		CompanyName:      req.CompanyName,
		CompanyLogoURL:   req.CompanyLogoURL,
		Description:      req.Description,
		Mode:             req.Mode,
		Venue:            req.Venue,
		DriveDate:        req.DriveDate,
		RegistrationOpen: req.RegistrationOpen,
		RegistrationEnd:  req.RegistrationEnd,
		EligibilityRule:  req.EligibilityRule,
		Rounds:           pq.StringArray(req.Rounds),
		ContactEmail:     req.ContactEmail,
		CreatedBy:        createdBy,
	}
	for _, p := range req.Positions {
		drive.Positions = append(drive.Positions, models.DrivePosition{
			Title:              p.Title,
			PackageLPA:         p.PackageLPA,
			Location:           p.Location,
			PositionsAvailable: p.PositionsAvailable,
			SkillsRequired:     pq.StringArray(p.SkillsRequired),
		})
	}

	if err := s.repo.Create(ctx, drive); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create drive")
	}
	s.invalidate(ctx)
	return drive, nil
}

// Get returns a drive with its positions.
func (s *DriveService) Get(ctx context.Context, id string) (*models.CompanyDrive, error) {
	drive, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "drive not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load drive")
	}
	return drive, nil
}

// List returns drives and pagination metadata.
func (s *DriveService) List(ctx context.Context, filter models.DriveFilter) ([]models.CompanyDrive, *models.Pagination, error) {
	drives, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list drives")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return drives, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Update applies partial changes to a drive.
func (s *DriveService) Update(ctx context.Context, id string, req models.UpdateDriveRequest) (*models.CompanyDrive, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid drive payload")
	}
	drive, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "drive not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load drive")
	}

	if req.Description != nil {
		drive.Description = *req.Description
	}
	if req.Status != nil {
		drive.Status = *req.Status
	}
	if req.Venue != nil {
		drive.Venue = *req.Venue
	}
	if req.DriveDate != nil {
		drive.DriveDate = *req.DriveDate
	}
	if req.RegistrationOpen != nil {
		drive.RegistrationOpen = *req.RegistrationOpen
	}
	if req.RegistrationEnd != nil {
		drive.RegistrationEnd = *req.RegistrationEnd
	}
	if req.EligibilityRule != nil {
		drive.EligibilityRule = req.EligibilityRule
	}
	if req.Rounds != nil {
		drive.Rounds = pq.StringArray(req.Rounds)
	}
	if req.ContactEmail != nil {
		drive.ContactEmail = *req.ContactEmail
	}
	if !drive.RegistrationEnd.After(drive.RegistrationOpen) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "registration window must end after it opens")
	}

	if err := s.repo.Update(ctx, drive); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update drive")
	}
	s.invalidate(ctx)
	return drive, nil
}

// Cancel transitions a drive to cancelled.
func (s *DriveService) Cancel(ctx context.Context, id string) error {
	drive, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "drive not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load drive")
	}
	if drive.Status == models.DriveStatusCompleted {
		return appErrors.Clone(appErrors.ErrConflict, "completed drives cannot be cancelled")
	}
	if err := s.repo.UpdateStatus(ctx, id, models.DriveStatusCancelled); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel drive")
	}
	s.invalidate(ctx)
	return nil
}

func (s *DriveService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "dashboard:*"); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}
