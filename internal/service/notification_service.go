package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/placementhub/placement-api/internal/models"
	appErrors "github.com/placementhub/placement-api/pkg/errors"
	"github.com/placementhub/placement-api/pkg/jobs"
)

type notificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	FindByID(ctx context.Context, id string) (*models.Notification, error)
	ListForUser(ctx context.Context, userID string, role models.UserRole, department string, filter models.NotificationFilter) ([]models.Notification, int, error)
	MarkRead(ctx context.Context, notificationID, userID string) error
	UnreadCount(ctx context.Context, userID string, role models.UserRole, department string) (int, error)
	UpdateDelivery(ctx context.Context, id string, delivered, failed int) error
	CountRecipients(ctx context.Context, roles, departments []string) (int, error)
}

type notificationQueue interface {
	Enqueue(job jobs.Job) error
}

// NotificationService broadcasts targeted notifications. Delivery runs
// asynchronously through the job queue; in-app delivery always succeeds,
// so the counters reflect the matched audience rather than a transport.
type NotificationService struct {
	repo      notificationRepository
	queue     notificationQueue
	validator *validator.Validate
	logger    *zap.Logger
}

// NewNotificationService constructs the notification service.
func NewNotificationService(repo notificationRepository, queue notificationQueue, validate *validator.Validate, logger *zap.Logger) *NotificationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, queue: queue, validator: validate, logger: logger}
}

// JobTypeDeliverNotification labels delivery jobs on the queue.
const JobTypeDeliverNotification = "notification.deliver"

// Broadcast creates a notification and queues its delivery.
func (s *NotificationService) Broadcast(ctx context.Context, createdBy string, req models.CreateNotificationRequest) (*models.Notification, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notification payload")
	}

	n := &models.Notification{
		Title:       req.Title,
		Body:        req.Body,
		Type:        req.Type,
		Priority:    req.Priority,
		TargetRoles: pq.StringArray(req.TargetRoles),
		TargetDepts: pq.StringArray(req.TargetDepts),
		ResourceID:  req.ResourceID,
		CreatedBy:   createdBy,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create notification")
	}

	if s.queue != nil {
		if err := s.queue.Enqueue(jobs.Job{
			ID:      n.ID,
			Type:    JobTypeDeliverNotification,
			Payload: n.ID,
		}); err != nil {
			s.logger.Warn("failed to queue notification delivery", zap.Error(err))
		}
	}
	return n, nil
}

// Deliver resolves the audience size and records the delivery counters.
// Registered as the queue handler for JobTypeDeliverNotification.
func (s *NotificationService) Deliver(ctx context.Context, job jobs.Job) error {
	id, ok := job.Payload.(string)
	if !ok || id == "" {
		return fmt.Errorf("delivery job payload is %T, want notification id", job.Payload)
	}

	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load notification %s: %w", id, err)
	}

	recipients, err := s.repo.CountRecipients(ctx, n.TargetRoles, n.TargetDepts)
	if err != nil {
		return fmt.Errorf("count recipients for %s: %w", id, err)
	}

	if err := s.repo.UpdateDelivery(ctx, id, recipients, 0); err != nil {
		return fmt.Errorf("record delivery for %s: %w", id, err)
	}
	s.logger.Info("notification delivered",
		zap.String("notification_id", id),
		zap.Int("recipients", recipients))
	return nil
}

// Inbox returns the notifications visible to a user.
func (s *NotificationService) Inbox(ctx context.Context, userID string, role models.UserRole, department string, filter models.NotificationFilter) ([]models.Notification, *models.Pagination, error) {
	notifications, total, err := s.repo.ListForUser(ctx, userID, role, department, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return notifications, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// MarkRead records a read receipt.
func (s *NotificationService) MarkRead(ctx context.Context, notificationID, userID string) error {
	if _, err := s.repo.FindByID(ctx, notificationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notification")
	}
	if err := s.repo.MarkRead(ctx, notificationID, userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark read")
	}
	return nil
}

// UnreadCount counts notifications awaiting the user.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string, role models.UserRole, department string) (int, error) {
	count, err := s.repo.UnreadCount(ctx, userID, role, department)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count unread")
	}
	return count, nil
}
