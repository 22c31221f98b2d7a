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
	"github.com/placementhub/placement-api/pkg/jobs"
)

type notificationRepoStub struct {
	notifications map[string]*models.Notification
	reads         map[string]int
	recipients    int
}

func newNotificationRepoStub() *notificationRepoStub {
	return &notificationRepoStub{
		notifications: map[string]*models.Notification{},
		reads:         map[string]int{},
		recipients:    12,
	}
}

func (r *notificationRepoStub) Create(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	r.notifications[n.ID] = n
	return nil
}

func (r *notificationRepoStub) FindByID(ctx context.Context, id string) (*models.Notification, error) {
	n, ok := r.notifications[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return n, nil
}

func (r *notificationRepoStub) ListForUser(ctx context.Context, userID string, role models.UserRole, department string, filter models.NotificationFilter) ([]models.Notification, int, error) {
	var list []models.Notification
	for _, n := range r.notifications {
		list = append(list, *n)
	}
	return list, len(list), nil
}

func (r *notificationRepoStub) MarkRead(ctx context.Context, notificationID, userID string) error {
	r.reads[notificationID]++
	return nil
}

func (r *notificationRepoStub) UnreadCount(ctx context.Context, userID string, role models.UserRole, department string) (int, error) {
	return len(r.notifications) - len(r.reads), nil
}

func (r *notificationRepoStub) UpdateDelivery(ctx context.Context, id string, delivered, failed int) error {
	n, ok := r.notifications[id]
	if !ok {
		return sql.ErrNoRows
	}
	n.Delivered = delivered
	n.Failed = failed
	return nil
}

func (r *notificationRepoStub) CountRecipients(ctx context.Context, roles, departments []string) (int, error) {
	return r.recipients, nil
}

type notificationQueueStub struct {
	jobs []jobs.Job
}

func (q *notificationQueueStub) Enqueue(job jobs.Job) error {
	q.jobs = append(q.jobs, job)
	return nil
}

func sampleNotificationRequest() models.CreateNotificationRequest {
	return models.CreateNotificationRequest{
		Title:       "New drive announced",
		Body:        "Vertex Systems is visiting campus next week.",
		Type:        models.NotificationTypeDrive,
		Priority:    models.NotificationPriorityHigh,
		TargetRoles: []string{"STUDENT"},
		TargetDepts: []string{"CSE"},
	}
}

func TestNotificationServiceBroadcastEnqueuesDelivery(t *testing.T) {
	repo := newNotificationRepoStub()
	queue := &notificationQueueStub{}
	svc := NewNotificationService(repo, queue, nil, zap.NewNop())

	n, err := svc.Broadcast(context.Background(), "officer-1", sampleNotificationRequest())
	require.NoError(t, err)
	require.NotEmpty(t, n.ID)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, JobTypeDeliverNotification, queue.jobs[0].Type)
	assert.Equal(t, n.ID, queue.jobs[0].Payload)
}

func TestNotificationServiceDeliverRecordsCounts(t *testing.T) {
	repo := newNotificationRepoStub()
	queue := &notificationQueueStub{}
	svc := NewNotificationService(repo, queue, nil, zap.NewNop())

	n, err := svc.Broadcast(context.Background(), "officer-1", sampleNotificationRequest())
	require.NoError(t, err)

	require.NoError(t, svc.Deliver(context.Background(), queue.jobs[0]))
	assert.Equal(t, repo.recipients, repo.notifications[n.ID].Delivered)
	assert.Equal(t, 0, repo.notifications[n.ID].Failed)
}

func TestNotificationServiceDeliverRejectsBadPayload(t *testing.T) {
	svc := NewNotificationService(newNotificationRepoStub(), nil, nil, zap.NewNop())

	err := svc.Deliver(context.Background(), jobs.Job{Type: JobTypeDeliverNotification, Payload: 42})
	require.Error(t, err)
}

func TestNotificationServiceMarkReadUnknownNotification(t *testing.T) {
	svc := NewNotificationService(newNotificationRepoStub(), nil, nil, zap.NewNop())

	err := svc.MarkRead(context.Background(), uuid.NewString(), "student-1")
	require.Error(t, err)
}
