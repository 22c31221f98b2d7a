package models

import (
	"time"

	"github.com/lib/pq"
)

// NotificationType categorizes portal notifications.
type NotificationType string

const (
	NotificationTypeDrive        NotificationType = "drive"
	NotificationTypeTest         NotificationType = "test"
	NotificationTypeTraining     NotificationType = "training"
	NotificationTypeAnnouncement NotificationType = "announcement"
	NotificationTypeResult       NotificationType = "result"
)

// NotificationPriority orders notifications in the inbox.
type NotificationPriority string

const (
	NotificationPriorityLow    NotificationPriority = "low"
	NotificationPriorityNormal NotificationPriority = "normal"
	NotificationPriorityHigh   NotificationPriority = "high"
)

// Notification is a broadcast message targeted at roles or departments.
type Notification struct {
	ID          string               `db:"id" json:"id"`
	Title       string               `db:"title" json:"title"`
	Body        string               `db:"body" json:"body"`
	Type        NotificationType     `db:"type" json:"type"`
	Priority    NotificationPriority `db:"priority" json:"priority"`
	TargetRoles pq.StringArray       `db:"target_roles" json:"target_roles"`
	TargetDepts pq.StringArray       `db:"target_departments" json:"target_departments"`
	ResourceID  *string              `db:"resource_id" json:"resource_id,omitempty"`
	CreatedBy   string               `db:"created_by" json:"created_by"`
	Delivered   int                  `db:"delivered" json:"delivered"`
	Failed      int                  `db:"failed" json:"failed"`
	CreatedAt   time.Time            `db:"created_at" json:"created_at"`
}

// NotificationReceipt marks a notification read for one user.
type NotificationReceipt struct {
	NotificationID string    `db:"notification_id" json:"notification_id"`
	UserID         string    `db:"user_id" json:"user_id"`
	ReadAt         time.Time `db:"read_at" json:"read_at"`
}

// CreateNotificationRequest is the officer payload for broadcasting.
type CreateNotificationRequest struct {
	Title       string               `json:"title" validate:"required"`
	Body        string               `json:"body" validate:"required"`
	Type        NotificationType     `json:"type" validate:"required,oneof=drive test training announcement result"`
	Priority    NotificationPriority `json:"priority" validate:"omitempty,oneof=low normal high"`
	TargetRoles []string             `json:"target_roles"`
	TargetDepts []string             `json:"target_departments"`
	ResourceID  *string              `json:"resource_id"`
}

// NotificationFilter captures query parameters for the inbox.
type NotificationFilter struct {
	Type       NotificationType
	UnreadOnly bool
	Page       int
	PageSize   int
}
