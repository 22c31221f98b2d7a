package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/placementhub/placement-api/internal/models"
	appErrors "github.com/placementhub/placement-api/pkg/errors"
)

type registrationRepository interface {
	Create(ctx context.Context, reg *models.DriveRegistration) error
	FindByID(ctx context.Context, id string) (*models.DriveRegistration, error)
	Exists(ctx context.Context, driveID, studentID string) (bool, error)
	List(ctx context.Context, filter models.RegistrationFilter) ([]models.DriveRegistration, int, error)
	UpdateStatus(ctx context.Context, id string, status models.RegistrationStatus, currentRound *int, remarks string) error
	Summary(ctx context.Context, driveID string) (*models.RegistrationSummary, error)
}

type registrationDriveRepository interface {
	FindByID(ctx context.Context, id string) (*models.CompanyDrive, error)
	FindPosition(ctx context.Context, id string) (*models.DrivePosition, error)
	IncrementRegistered(ctx context.Context, positionID string) (bool, error)
	DecrementRegistered(ctx context.Context, positionID string) error
}

type admissionChecker interface {
	IsAdmitted(ctx context.Context, studentID, ruleID, driveID string) (bool, error)
}

// RegistrationService handles drive registration use-cases. Eligibility
// is enforced here, not in the client: when a drive carries a rule, the
// student must pass it (or hold an override) before a seat is taken.
type RegistrationService struct {
	repo        registrationRepository
	drives      registrationDriveRepository
	eligibility admissionChecker
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewRegistrationService constructs the registration service.
func NewRegistrationService(repo registrationRepository, drives registrationDriveRepository, eligibility admissionChecker, validate *validator.Validate, logger *zap.Logger) *RegistrationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{repo: repo, drives: drives, eligibility: eligibility, validator: validate, logger: logger}
}

// Register enrolls a student into a drive position.
func (s *RegistrationService) Register(ctx context.Context, studentID, driveID string, req models.RegisterForDriveRequest) (*models.DriveRegistration, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	drive, err := s.drives.FindByID(ctx, driveID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "drive not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load drive")
	}

	now := time.Now().UTC()
	if drive.Status == models.DriveStatusCancelled || drive.Status == models.DriveStatusCompleted {
		return nil, appErrors.Clone(appErrors.ErrConflict, "drive is no longer accepting registrations")
	}
	if now.Before(drive.RegistrationOpen) {
		return nil, appErrors.Clone(appErrors.ErrConflict, "registration has not opened yet")
	}
	if now.After(drive.RegistrationEnd) {
		return nil, appErrors.Clone(appErrors.ErrConflict, "registration window has closed")
	}

	position, err := s.drives.FindPosition(ctx, req.PositionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "position not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load position")
	}
	if position.DriveID != driveID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "position does not belong to this drive")
	}

	exists, err := s.repo.Exists(ctx, driveID, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check registration")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "already registered for this drive")
	}

	// An empty rule ID lets the checker resolve the highest-priority
	// rule scoped to this drive, or admit when none applies.
	ruleID := ""
	if drive.EligibilityRule != nil {
		ruleID = *drive.EligibilityRule
	}
	admitted, err := s.eligibility.IsAdmitted(ctx, studentID, ruleID, driveID)
	if err != nil {
		return nil, err
	}
	if !admitted {
		return nil, appErrors.Clone(appErrors.ErrNotEligible, "eligibility criteria not met for this drive")
	}

	// The guarded increment is the seat reservation: it fails atomically
	// once registered reaches positions_available.
	claimed, err := s.drives.IncrementRegistered(ctx, position.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reserve seat")
	}
	if !claimed {
		return nil, appErrors.Clone(appErrors.ErrPositionsFull, "all positions for this role are taken")
	}

	reg := &models.DriveRegistration{
		DriveID:    driveID,
		PositionID: position.ID,
		StudentID:  studentID,
		ResumeID:   req.ResumeID,
	}
	if err := s.repo.Create(ctx, reg); err != nil {
		if derr := s.drives.DecrementRegistered(ctx, position.ID); derr != nil {
			s.logger.Error("failed to release seat after registration failure", zap.Error(derr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create registration")
	}
	return reg, nil
}

// Withdraw releases a student's registration and frees the seat.
func (s *RegistrationService) Withdraw(ctx context.Context, studentID, registrationID string) error {
	reg, err := s.repo.FindByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}
	if reg.StudentID != studentID {
		return appErrors.Clone(appErrors.ErrForbidden, "registration belongs to another student")
	}
	if reg.Status == models.RegistrationStatusWithdrawn {
		return appErrors.Clone(appErrors.ErrConflict, "registration already withdrawn")
	}
	if reg.Status == models.RegistrationStatusSelected {
		return appErrors.Clone(appErrors.ErrConflict, "selected registrations cannot be withdrawn")
	}

	if err := s.repo.UpdateStatus(ctx, registrationID, models.RegistrationStatusWithdrawn, nil, "withdrawn by student"); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to withdraw")
	}
	if err := s.drives.DecrementRegistered(ctx, reg.PositionID); err != nil {
		s.logger.Error("failed to release seat after withdrawal", zap.Error(err))
	}
	return nil
}

// UpdateStatus advances a registration through the hiring pipeline.
func (s *RegistrationService) UpdateStatus(ctx context.Context, registrationID string, req models.UpdateRegistrationRequest) (*models.DriveRegistration, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	reg, err := s.repo.FindByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}
	if reg.Status == models.RegistrationStatusWithdrawn {
		return nil, appErrors.Clone(appErrors.ErrConflict, "cannot update a withdrawn registration")
	}

	if err := s.repo.UpdateStatus(ctx, registrationID, req.Status, req.CurrentRound, req.Remarks); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update status")
	}
	return s.repo.FindByID(ctx, registrationID)
}

// List returns registrations and pagination metadata.
func (s *RegistrationService) List(ctx context.Context, filter models.RegistrationFilter) ([]models.DriveRegistration, *models.Pagination, error) {
	regs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registrations")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return regs, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Summary aggregates registration outcomes for a drive.
func (s *RegistrationService) Summary(ctx context.Context, driveID string) (*models.RegistrationSummary, error) {
	summary, err := s.repo.Summary(ctx, driveID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load summary")
	}
	return summary, nil
}
