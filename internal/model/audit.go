package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionSignup               = "SIGNUP"
	ActionCreateApproval       = "CREATE_APPROVAL_REQUEST"
	ActionApproveRequest       = "APPROVE_REQUEST"
	ActionRejectRequest        = "REJECT_REQUEST"
	ActionRecordTaxTransaction = "RECORD_TAX_TRANSACTION"
	ActionExportTaxLedger      = "EXPORT_TAX_LEDGER"
	ActionUpdateAISettings     = "UPDATE_AI_SETTINGS"
)

// AuditLog tracks Who, What, and When for critical changes
type AuditLog struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	WorkspaceID uuid.UUID  `gorm:"type:uuid;not null;index" json:"workspace_id"`
	UserID      *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // nil for system actions
	User        *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Action      string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID    string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName  string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details     string     `gorm:"type:jsonb" json:"details"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
}
