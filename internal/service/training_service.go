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

type trainingRepository interface {
	CreateSession(ctx context.Context, session *models.TrainingSession) error
	FindSession(ctx context.Context, id string) (*models.TrainingSession, error)
	ListSessions(ctx context.Context, filter models.SessionFilter) ([]models.TrainingSession, int, error)
	UpdateSessionStatus(ctx context.Context, id string, status models.SessionStatus) error
	UpsertAttendance(ctx context.Context, records []models.AttendanceRecord) error
	AttendanceBySession(ctx context.Context, sessionID string) ([]models.AttendanceRecord, error)
	AttendanceSummary(ctx context.Context, studentID string) (*models.AttendanceSummary, error)
}

// TrainingService handles training session scheduling and attendance.
type TrainingService struct {
	repo      trainingRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTrainingService constructs the training service.
func NewTrainingService(repo trainingRepository, validate *validator.Validate, logger *zap.Logger) *TrainingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrainingService{repo: repo, validator: validate, logger: logger}
}

// Schedule creates a training session run by the given trainer.
func (s *TrainingService) Schedule(ctx context.Context, trainerID string, req models.CreateSessionRequest) (*models.TrainingSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}

	session := &models.TrainingSession{
		Title:       req.Title,
		Description: req.Description,
		Topic:       req.Topic,
		TrainerID:   trainerID,
		Venue:       req.Venue,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Capacity:    req.Capacity,
		TargetDepts: pq.StringArray(req.TargetDepts),
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
	}
	return session, nil
}

// Get returns one session.
func (s *TrainingService) Get(ctx context.Context, id string) (*models.TrainingSession, error) {
	session, err := s.repo.FindSession(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	return session, nil
}

// List returns sessions and pagination metadata.
func (s *TrainingService) List(ctx context.Context, filter models.SessionFilter) ([]models.TrainingSession, *models.Pagination, error) {
	sessions, total, err := s.repo.ListSessions(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return sessions, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// UpdateStatus transitions a session's lifecycle state. Cancelled and
// completed sessions are terminal.
func (s *TrainingService) UpdateStatus(ctx context.Context, id string, status models.SessionStatus) error {
	session, err := s.repo.FindSession(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if session.Status == models.SessionStatusCancelled || session.Status == models.SessionStatusCompleted {
		return appErrors.Clone(appErrors.ErrConflict, "session is already closed")
	}
	if err := s.repo.UpdateSessionStatus(ctx, id, status); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update session")
	}
	return nil
}

// MarkAttendance records a batch of attendance marks for a session.
// Re-marking a student replaces the earlier mark.
func (s *TrainingService) MarkAttendance(ctx context.Context, sessionID, markedBy string, req models.MarkAttendanceRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}

	session, err := s.repo.FindSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if session.Status == models.SessionStatusCancelled {
		return appErrors.Clone(appErrors.ErrConflict, "cannot mark attendance on a cancelled session")
	}

	records := make([]models.AttendanceRecord, 0, len(req.Records))
	for _, mark := range req.Records {
		records = append(records, models.AttendanceRecord{
			SessionID: sessionID,
			StudentID: mark.StudentID,
			Status:    mark.Status,
			MarkedBy:  markedBy,
		})
	}
	if err := s.repo.UpsertAttendance(ctx, records); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}
	return nil
}

// Attendance lists the marks recorded for a session.
func (s *TrainingService) Attendance(ctx context.Context, sessionID string) ([]models.AttendanceRecord, error) {
	if _, err := s.repo.FindSession(ctx, sessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	records, err := s.repo.AttendanceBySession(ctx, sessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return records, nil
}

// StudentSummary aggregates one student's attendance across sessions.
func (s *TrainingService) StudentSummary(ctx context.Context, studentID string) (*models.AttendanceSummary, error) {
	summary, err := s.repo.AttendanceSummary(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance summary")
	}
	return summary, nil
}
