package model

import (
	"time"

	"github.com/google/uuid"
)

// Document types that can be routed for approval.
const (
	DocumentSalesOrder    = "SO"
	DocumentPurchaseOrder = "PO"
	DocumentInvoice       = "INVOICE"
	DocumentPayroll       = "PAYROLL"
	DocumentExpense       = "EXPENSE"
)

// DocumentTypes lists the accepted document types.
var DocumentTypes = []string{DocumentSalesOrder, DocumentPurchaseOrder, DocumentInvoice, DocumentPayroll, DocumentExpense}

// ApprovalRequest asks ApproverID to decide on a document. Status values come
// from the approval package; once it leaves pending the row is never changed again.
type ApprovalRequest struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	WorkspaceID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"workspace_id"`
	DocumentType string     `gorm:"type:varchar(20);not null;index" json:"document_type"`
	DocumentID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"document_id"`
	Title        string     `gorm:"type:varchar(255)" json:"title"`
	Status       string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	RequestedBy  uuid.UUID  `gorm:"type:uuid;not null;index" json:"requested_by"`
	Requester    *User      `gorm:"foreignKey:RequestedBy" json:"requester,omitempty"`
	ApproverID   *uuid.UUID `gorm:"type:uuid;index" json:"approver_id"`
	Approver     *User      `gorm:"foreignKey:ApproverID" json:"approver,omitempty"`
	RespondedBy  *uuid.UUID `gorm:"type:uuid" json:"responded_by"`
	RespondedAt  *time.Time `json:"responded_at"`
	Comments     string     `gorm:"type:text" json:"comments"`
	RequestedAt  time.Time  `gorm:"autoCreateTime;index" json:"requested_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
