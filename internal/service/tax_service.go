package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"taxflow/internal/export"
	"taxflow/internal/model"
	"taxflow/internal/repository"
	"taxflow/internal/tax"
	"taxflow/internal/token"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// --- DTOs ---

// TaxInput carries the flags of every kind; each kind reads only its own.
// HasNPWP defaults to true.
type TaxInput struct {
	Amount      decimal.Decimal `json:"amount"`
	IncludeTax  bool            `json:"include_tax"`
	HasNPWP     *bool           `json:"has_npwp"`
	Status      string          `json:"taxpayer_status"`
	ServiceType string          `json:"service_type"`
}

type RecordTaxTransactionRequest struct {
	Kind         string `json:"kind" binding:"required"`
	DocumentType string `json:"document_type" binding:"required"`
	DocumentID   string `json:"document_id" binding:"required"`
	NPWP         string `json:"npwp"`
	TaxDate      string `json:"tax_date"` // YYYY-MM-DD, defaults to today
	IsPosted     bool   `json:"is_posted"`
	TaxInput
}

type TaxTransactionQuery struct {
	TaxType      string `form:"tax_type"`
	DocumentType string `form:"document_type"`
	From         string `form:"from"` // YYYY-MM-DD inclusive
	To           string `form:"to"`   // YYYY-MM-DD inclusive
}

type TaxTransactionResponse struct {
	ID           string `json:"id"`
	DocumentType string `json:"document_type"`
	DocumentID   string `json:"document_id"`
	TaxType      string `json:"tax_type"`
	TaxBase      string `json:"tax_base"`
	TaxRate      string `json:"tax_rate"`
	TaxAmount    string `json:"tax_amount"`
	NetAmount    string `json:"net_amount"`
	NPWP         string `json:"npwp,omitempty"`
	TaxDate      string `json:"tax_date"`
	IsPosted     bool   `json:"is_posted"`
	CreatedAt    string `json:"created_at"`
}

// --- Interface ---

type TaxService interface {
	Calculate(kind tax.Kind, in TaxInput) (tax.Result, error)
	RecordTransaction(ctx context.Context, actor token.Principal, req RecordTaxTransactionRequest) (TaxTransactionResponse, error)
	ListTransactions(ctx context.Context, actor token.Principal, query TaxTransactionQuery, page, limit int) ([]TaxTransactionResponse, int64, error)
	// ExportTransactions writes the matching ledger rows to w as an XLSX workbook.
	ExportTransactions(ctx context.Context, actor token.Principal, query TaxTransactionQuery, w io.Writer) error
}

type taxService struct {
	engine    *tax.Engine
	repo      repository.TaxTransactionRepository
	txManager repository.TransactionManager
	audit     AuditService
	logger    *zap.Logger
	now       func() time.Time
}

func NewTaxService(
	engine *tax.Engine,
	repo repository.TaxTransactionRepository,
	txManager repository.TransactionManager,
	audit AuditService,
	logger *zap.Logger,
) TaxService {
	return &taxService{
		engine:    engine,
		repo:      repo,
		txManager: txManager,
		audit:     audit,
		logger:    logger,
		now:       time.Now,
	}
}

// BuildTaxRequest maps the flat input onto the request type of kind.
func BuildTaxRequest(kind tax.Kind, in TaxInput) (tax.Request, error) {
	hasNPWP := true
	if in.HasNPWP != nil {
		hasNPWP = *in.HasNPWP
	}

	switch kind {
	case tax.KindPPN:
		return tax.VATRequest{Amount: in.Amount, IncludeTax: in.IncludeTax}, nil
	case tax.KindPPh21:
		return tax.IncomeTaxRequest{AnnualIncome: in.Amount, HasNPWP: hasNPWP, Status: in.Status}, nil
	case tax.KindPPh23:
		return tax.WithholdingRequest{GrossAmount: in.Amount, HasNPWP: hasNPWP}, nil
	case tax.KindPPh42:
		return tax.FinalWithholdingRequest{GrossAmount: in.Amount, ServiceType: in.ServiceType}, nil
	}
	return nil, fmt.Errorf("%w: tax kind %q", tax.ErrUnsupportedCategory, kind)
}

func ledgerTaxType(kind tax.Kind) string {
	switch kind {
	case tax.KindPPN:
		return model.TaxTypePPN
	case tax.KindPPh21:
		return model.TaxTypePPh21
	case tax.KindPPh23:
		return model.TaxTypePPh23
	case tax.KindPPh42:
		return model.TaxTypePPh42
	}
	return string(kind)
}

func isTaxDocument(t string) bool {
	switch t {
	case model.TaxDocSalesOrder, model.TaxDocPurchaseOrder, model.TaxDocInvoice, model.TaxDocPayroll:
		return true
	}
	return false
}

func (s *taxService) Calculate(kind tax.Kind, in TaxInput) (tax.Result, error) {
	req, err := BuildTaxRequest(kind, in)
	if err != nil {
		return nil, err
	}
	return s.engine.Calculate(req)
}

func (s *taxService) RecordTransaction(ctx context.Context, actor token.Principal, req RecordTaxTransactionRequest) (TaxTransactionResponse, error) {
	kind, err := tax.ParseKind(req.Kind)
	if err != nil {
		return TaxTransactionResponse{}, err
	}
	docType := strings.ToUpper(strings.TrimSpace(req.DocumentType))
	if !isTaxDocument(docType) {
		return TaxTransactionResponse{}, fmt.Errorf("%w: unknown document_type %q", ErrInvalidInput, req.DocumentType)
	}
	docID, err := uuid.Parse(req.DocumentID)
	if err != nil {
		return TaxTransactionResponse{}, fmt.Errorf("%w: invalid document_id", ErrInvalidInput)
	}

	taxDate := s.now()
	if req.TaxDate != "" {
		taxDate, err = time.Parse(dateLayout, req.TaxDate)
		if err != nil {
			return TaxTransactionResponse{}, fmt.Errorf("%w: tax_date must be YYYY-MM-DD", ErrInvalidInput)
		}
	}

	result, err := s.Calculate(kind, req.TaxInput)
	if err != nil {
		return TaxTransactionResponse{}, err
	}
	sum := result.Summary()

	row := model.TaxTransaction{
		WorkspaceID:  actor.WorkspaceID,
		DocumentType: docType,
		DocumentID:   docID,
		TaxType:      ledgerTaxType(kind),
		TaxBase:      sum.BaseAmount,
		TaxRate:      sum.Rate,
		TaxAmount:    sum.TaxAmount,
		NetAmount:    sum.NetOrGross,
		NPWP:         strings.TrimSpace(req.NPWP),
		TaxDate:      taxDate,
		IsPosted:     req.IsPosted,
		CreatedBy:    actor.UserID,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.repo.Create(txCtx, &row); createErr != nil {
			return fmt.Errorf("failed to record tax transaction: %w", createErr)
		}
		return s.audit.Record(txCtx, AuditEntry{
			WorkspaceID: actor.WorkspaceID,
			UserID:      userRef(actor.UserID),
			Action:      model.ActionRecordTaxTransaction,
			EntityID:    row.ID.String(),
			EntityName:  row.TaxType,
			Details: map[string]interface{}{
				"document_type": docType,
				"document_id":   docID.String(),
				"tax_amount":    row.TaxAmount.String(),
			},
		})
	})
	if err != nil {
		return TaxTransactionResponse{}, err
	}

	return toTaxTransactionResponse(row), nil
}

func (s *taxService) ListTransactions(ctx context.Context, actor token.Principal, query TaxTransactionQuery, page, limit int) ([]TaxTransactionResponse, int64, error) {
	filter, err := toLedgerFilter(actor.WorkspaceID, query)
	if err != nil {
		return nil, 0, err
	}

	rows, total, err := s.repo.List(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch tax transactions: %w", err)
	}

	res := make([]TaxTransactionResponse, 0, len(rows))
	for _, r := range rows {
		res = append(res, toTaxTransactionResponse(r))
	}
	return res, total, nil
}

func (s *taxService) ExportTransactions(ctx context.Context, actor token.Principal, query TaxTransactionQuery, w io.Writer) error {
	filter, err := toLedgerFilter(actor.WorkspaceID, query)
	if err != nil {
		return err
	}

	rows, err := s.repo.ListAll(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to fetch tax transactions: %w", err)
	}
	if err := export.WriteTaxLedger(w, rows); err != nil {
		return fmt.Errorf("failed to export tax ledger: %w", err)
	}

	// The workbook is already streamed, so a failed audit row is only logged.
	if err := s.audit.Record(ctx, AuditEntry{
		WorkspaceID: actor.WorkspaceID,
		UserID:      userRef(actor.UserID),
		Action:      model.ActionExportTaxLedger,
		EntityName:  "tax_transactions",
		Details:     map[string]interface{}{"rows": len(rows), "tax_type": filter.TaxType},
	}); err != nil {
		s.logger.Warn("audit log for ledger export failed", zap.Error(err))
	}
	return nil
}

func toLedgerFilter(workspaceID uuid.UUID, q TaxTransactionQuery) (repository.TaxTransactionFilter, error) {
	filter := repository.TaxTransactionFilter{
		WorkspaceID:  workspaceID,
		DocumentType: strings.ToUpper(strings.TrimSpace(q.DocumentType)),
	}

	if q.TaxType != "" {
		kind, err := tax.ParseKind(q.TaxType)
		if err != nil {
			return filter, err
		}
		filter.TaxType = ledgerTaxType(kind)
	}

	if q.From != "" {
		from, err := time.Parse(dateLayout, q.From)
		if err != nil {
			return filter, fmt.Errorf("%w: from must be YYYY-MM-DD", ErrInvalidInput)
		}
		filter.From = from
	}
	if q.To != "" {
		to, err := time.Parse(dateLayout, q.To)
		if err != nil {
			return filter, fmt.Errorf("%w: to must be YYYY-MM-DD", ErrInvalidInput)
		}
		filter.To = to.AddDate(0, 0, 1)
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && !filter.From.Before(filter.To) {
		return filter, fmt.Errorf("%w: from must not be after to", ErrInvalidInput)
	}
	return filter, nil
}

func toTaxTransactionResponse(t model.TaxTransaction) TaxTransactionResponse {
	return TaxTransactionResponse{
		ID:           t.ID.String(),
		DocumentType: t.DocumentType,
		DocumentID:   t.DocumentID.String(),
		TaxType:      t.TaxType,
		TaxBase:      t.TaxBase.StringFixed(2),
		TaxRate:      t.TaxRate.String(),
		TaxAmount:    t.TaxAmount.StringFixed(2),
		NetAmount:    t.NetAmount.StringFixed(2),
		NPWP:         t.NPWP,
		TaxDate:      t.TaxDate.Format(dateLayout),
		IsPosted:     t.IsPosted,
		CreatedAt:    t.CreatedAt.Format(time.RFC3339),
	}
}
