package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ledger tax types
const (
	TaxTypePPN   = "ppn"
	TaxTypePPh21 = "pph_21"
	TaxTypePPh23 = "pph_23"
	TaxTypePPh42 = "pph_4_2"
)

// TaxTypes lists the ledger tax types in display order.
var TaxTypes = []string{TaxTypePPN, TaxTypePPh21, TaxTypePPh23, TaxTypePPh42}

// Source document types for ledger rows
const (
	TaxDocSalesOrder    = "SO"
	TaxDocPurchaseOrder = "PO"
	TaxDocInvoice       = "INVOICE"
	TaxDocPayroll       = "PAYROLL"
)

// TaxTransaction is one posted tax calculation against a business document.
// TaxRate is a percentage (11 = 11%).
type TaxTransaction struct {
	ID           uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	WorkspaceID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"workspace_id"`
	DocumentType string          `gorm:"type:varchar(20);not null;index" json:"document_type"`
	DocumentID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"document_id"`
	TaxType      string          `gorm:"type:varchar(20);not null;index" json:"tax_type"`
	TaxBase      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"tax_base"`
	TaxRate      decimal.Decimal `gorm:"type:decimal(7,4);not null" json:"tax_rate"`
	TaxAmount    decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"tax_amount"`
	NetAmount    decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"net_amount"`
	NPWP         string          `gorm:"type:varchar(30)" json:"npwp,omitempty"`
	TaxDate      time.Time       `gorm:"type:date;not null;index" json:"tax_date"`
	IsPosted     bool            `gorm:"not null;default:false" json:"is_posted"`
	CreatedBy    uuid.UUID       `gorm:"type:uuid;not null" json:"created_by"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
