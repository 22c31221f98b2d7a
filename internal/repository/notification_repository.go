package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/placementhub/placement-api/internal/models"
)

// NotificationRepository manages persistence for notifications and read receipts.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs a NotificationRepository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

const notificationColumns = `id, title, body, type, priority, target_roles, target_departments, resource_id, created_by, delivered, failed, created_at`

// Create inserts a new notification.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if n.Priority == "" {
		n.Priority = models.NotificationPriorityNormal
	}
	const query = `INSERT INTO notifications (id, title, body, type, priority, target_roles, target_departments, resource_id, created_by, delivered, failed, created_at)
        VALUES (:id, :title, :body, :type, :priority, :target_roles, :target_departments, :resource_id, :created_by, :delivered, :failed, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// FindByID fetches a notification by ID.
func (r *NotificationRepository) FindByID(ctx context.Context, id string) (*models.Notification, error) {
	query := fmt.Sprintf(`SELECT %s FROM notifications WHERE id = $1 LIMIT 1`, notificationColumns)
	var n models.Notification
	if err := r.db.GetContext(ctx, &n, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find notification: %w", err)
	}
	return &n, nil
}

// ListForUser returns notifications targeted at the given role and
// department, newest first. Empty target arrays mean everyone.
func (r *NotificationRepository) ListForUser(ctx context.Context, userID string, role models.UserRole, department string, filter models.NotificationFilter) ([]models.Notification, int, error) {
	baseQuery := `FROM notifications n WHERE
        (cardinality(n.target_roles) = 0 OR $1 = ANY(n.target_roles))
        AND (cardinality(n.target_departments) = 0 OR $2 = ANY(n.target_departments))`
	args := []interface{}{string(role), department}
	var conditions []string

	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("n.type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if filter.UnreadOnly {
		conditions = append(conditions, fmt.Sprintf("NOT EXISTS (SELECT 1 FROM notification_receipts rc WHERE rc.notification_id = n.id AND rc.user_id = $%d)", len(args)+1))
		args = append(args, userID)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT n.* %s ORDER BY n.created_at DESC LIMIT %d OFFSET %d", baseQuery, pageSize, offset)

	var notifications []models.Notification
	if err := r.db.SelectContext(ctx, &notifications, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}
	return notifications, total, nil
}

// MarkRead records a read receipt; repeated marks are no-ops.
func (r *NotificationRepository) MarkRead(ctx context.Context, notificationID, userID string) error {
	const query = `INSERT INTO notification_receipts (notification_id, user_id, read_at) VALUES ($1, $2, $3)
        ON CONFLICT (notification_id, user_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, notificationID, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

// UnreadCount counts notifications visible to the user without a receipt.
func (r *NotificationRepository) UnreadCount(ctx context.Context, userID string, role models.UserRole, department string) (int, error) {
	const query = `SELECT COUNT(*) FROM notifications n WHERE
        (cardinality(n.target_roles) = 0 OR $2 = ANY(n.target_roles))
        AND (cardinality(n.target_departments) = 0 OR $3 = ANY(n.target_departments))
        AND NOT EXISTS (SELECT 1 FROM notification_receipts rc WHERE rc.notification_id = n.id AND rc.user_id = $1)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, userID, string(role), department); err != nil {
		return 0, fmt.Errorf("unread count: %w", err)
	}
	return count, nil
}

// UpdateDelivery stores the delivery counters once a broadcast finishes.
func (r *NotificationRepository) UpdateDelivery(ctx context.Context, id string, delivered, failed int) error {
	const query = `UPDATE notifications SET delivered = $2, failed = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, delivered, failed); err != nil {
		return fmt.Errorf("update delivery counters: %w", err)
	}
	return nil
}

// CountRecipients counts users matching the notification targeting.
func (r *NotificationRepository) CountRecipients(ctx context.Context, roles, departments []string) (int, error) {
	query := `SELECT COUNT(*) FROM users WHERE active = TRUE`
	var args []interface{}
	if len(roles) > 0 {
		query += fmt.Sprintf(" AND role = ANY($%d)", len(args)+1)
		args = append(args, pq.Array(roles))
	}
	if len(departments) > 0 {
		query += fmt.Sprintf(" AND department = ANY($%d)", len(args)+1)
		args = append(args, pq.Array(departments))
	}
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count recipients: %w", err)
	}
	return count, nil
}
