package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification types
const (
	NotificationApprovalRequest  = "approval_request"
	NotificationApprovalApproved = "approval_approved"
	NotificationApprovalRejected = "approval_rejected"
	NotificationLowStock         = "low_stock"
	NotificationPaymentDue       = "payment_due"
	NotificationTaskAssigned     = "task_assigned"
	NotificationSystemAlert      = "system_alert"
)

// Notification priorities
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Notification is addressed to a single user.
type Notification struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	WorkspaceID uuid.UUID `gorm:"type:uuid;not null;index" json:"workspace_id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index:idx_notifications_user_read" json:"user_id"`
	Type        string    `gorm:"type:varchar(30);not null" json:"type"`
	Priority    string    `gorm:"type:varchar(10);not null;default:'medium'" json:"priority"`
	Title       string    `gorm:"type:varchar(255);not null" json:"title"`
	Message     string    `gorm:"type:text" json:"message"`
	Link        string    `gorm:"type:varchar(255)" json:"link,omitempty"`
	IsRead      bool      `gorm:"not null;default:false;index:idx_notifications_user_read" json:"is_read"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}
