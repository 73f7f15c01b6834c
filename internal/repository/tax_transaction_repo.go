package repository

import (
	"context"
	"time"

	"taxflow/internal/model"
	"taxflow/pkg/pagination"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

//go:generate mockgen -source=tax_transaction_repo.go -destination=mocks/tax_transaction_repo_mock.go -package=mocks

// TaxTransactionFilter narrows ledger queries. Zero fields are ignored; From
// is inclusive and To exclusive.
type TaxTransactionFilter struct {
	WorkspaceID  uuid.UUID
	TaxType      string
	DocumentType string
	From         time.Time
	To           time.Time
}

// TaxTotal aggregates ledger rows of one tax type.
type TaxTotal struct {
	TaxType   string          `json:"tax_type"`
	Count     int64           `json:"count"`
	TaxBase   decimal.Decimal `json:"tax_base"`
	TaxAmount decimal.Decimal `json:"tax_amount"`
}

type TaxTransactionRepository interface {
	Create(ctx context.Context, tx *model.TaxTransaction) error
	List(ctx context.Context, filter TaxTransactionFilter, page, limit int) ([]model.TaxTransaction, int64, error)
	// ListAll returns every matching row ordered by tax date.
	ListAll(ctx context.Context, filter TaxTransactionFilter) ([]model.TaxTransaction, error)
	Totals(ctx context.Context, filter TaxTransactionFilter) ([]TaxTotal, error)
}

type taxTransactionRepository struct {
	db *gorm.DB
}

func NewTaxTransactionRepository(db *gorm.DB) TaxTransactionRepository {
	return &taxTransactionRepository{db: db}
}

func (r *taxTransactionRepository) Create(ctx context.Context, tx *model.TaxTransaction) error {
	return GetDB(ctx, r.db).Create(tx).Error
}

func (r *taxTransactionRepository) scoped(ctx context.Context, f TaxTransactionFilter) *gorm.DB {
	query := GetDB(ctx, r.db).Model(&model.TaxTransaction{}).Where("workspace_id = ?", f.WorkspaceID)
	if f.TaxType != "" {
		query = query.Where("tax_type = ?", f.TaxType)
	}
	if f.DocumentType != "" {
		query = query.Where("document_type = ?", f.DocumentType)
	}
	if !f.From.IsZero() {
		query = query.Where("tax_date >= ?", f.From)
	}
	if !f.To.IsZero() {
		query = query.Where("tax_date < ?", f.To)
	}
	return query
}

func (r *taxTransactionRepository) List(ctx context.Context, filter TaxTransactionFilter, page, limit int) ([]model.TaxTransaction, int64, error) {
	var rows []model.TaxTransaction
	var total int64

	if err := r.scoped(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params := pagination.New(page, limit)
	if err := r.scoped(ctx, filter).
		Order("tax_date DESC, created_at DESC").
		Offset(params.Offset).
		Limit(params.Limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

func (r *taxTransactionRepository) ListAll(ctx context.Context, filter TaxTransactionFilter) ([]model.TaxTransaction, error) {
	var rows []model.TaxTransaction
	err := r.scoped(ctx, filter).Order("tax_date ASC, created_at ASC").Find(&rows).Error
	return rows, err
}

func (r *taxTransactionRepository) Totals(ctx context.Context, filter TaxTransactionFilter) ([]TaxTotal, error) {
	var totals []TaxTotal
	err := r.scoped(ctx, filter).
		Select("tax_type, COUNT(*) AS count, COALESCE(SUM(tax_base), 0) AS tax_base, COALESCE(SUM(tax_amount), 0) AS tax_amount").
		Group("tax_type").
		Order("tax_type").
		Scan(&totals).Error
	return totals, err
}
