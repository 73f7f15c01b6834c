package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"taxflow/internal/model"
	"taxflow/internal/repository"
	"taxflow/internal/repository/mocks"
	"taxflow/internal/tax"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func newTaxFixture(t *testing.T) (*taxService, *mocks.MockTaxTransactionRepository, *mocks.MockAuditRepository) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockTaxTransactionRepository(ctrl)
	audits := mocks.NewMockAuditRepository(ctrl)
	tx := mocks.NewMockTransactionManager(ctrl)
	expectTx(tx)

	svc := NewTaxService(tax.NewDefaultEngine(), repo, tx, NewAuditService(audits), zap.NewNop()).(*taxService)
	svc.now = func() time.Time { return time.Date(2026, 4, 15, 10, 0, 0, 0, time.UTC) }
	return svc, repo, audits
}

func boolPtr(b bool) *bool { return &b }

func TestTaxService_Calculate(t *testing.T) {
	svc, _, _ := newTaxFixture(t)

	res, err := svc.Calculate(tax.KindPPh23, TaxInput{Amount: decimal.NewFromInt(5_000_000)})
	require.NoError(t, err)
	withholding := res.(tax.WithholdingResult)
	assert.True(t, withholding.HasNPWP, "has_npwp defaults to true")
	assert.True(t, decimal.NewFromInt(100_000).Equal(withholding.TaxAmount))

	res, err = svc.Calculate(tax.KindPPh21, TaxInput{Amount: decimal.NewFromInt(100_000_000), HasNPWP: boolPtr(false)})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(2_760_000).Equal(res.Summary().TaxAmount))

	_, err = svc.Calculate(tax.KindPPh42, TaxInput{Amount: decimal.NewFromInt(1), ServiceType: "mining"})
	assert.ErrorIs(t, err, tax.ErrUnsupportedCategory)

	_, err = svc.Calculate(tax.Kind("stamp"), TaxInput{Amount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, tax.ErrUnsupportedCategory)
}

func TestTaxService_RecordTransaction(t *testing.T) {
	svc, repo, audits := newTaxFixture(t)
	actor := newPrincipal(model.RoleManager)
	docID := uuid.New()

	repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, row *model.TaxTransaction) error {
			assert.Equal(t, actor.WorkspaceID, row.WorkspaceID)
			assert.Equal(t, model.TaxTypePPN, row.TaxType)
			assert.Equal(t, "INVOICE", row.DocumentType)
			assert.True(t, decimal.NewFromInt(10_000_000).Equal(row.TaxBase))
			assert.True(t, decimal.NewFromInt(1_100_000).Equal(row.TaxAmount))
			assert.True(t, decimal.NewFromInt(11).Equal(row.TaxRate))
			assert.Equal(t, "2026-04-15", row.TaxDate.Format("2006-01-02"))
			row.ID = uuid.New()
			return nil
		})
	audits.EXPECT().Log(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, l *model.AuditLog) error {
			assert.Equal(t, model.ActionRecordTaxTransaction, l.Action)
			return nil
		})

	res, err := svc.RecordTransaction(context.Background(), actor, RecordTaxTransactionRequest{
		Kind:         "ppn",
		DocumentType: "invoice",
		DocumentID:   docID.String(),
		TaxInput:     TaxInput{Amount: decimal.NewFromInt(10_000_000)},
	})
	require.NoError(t, err)
	assert.Equal(t, "1100000.00", res.TaxAmount)
	assert.Equal(t, "11100000.00", res.NetAmount)
}

func TestTaxService_RecordTransactionValidation(t *testing.T) {
	svc, _, _ := newTaxFixture(t)
	actor := newPrincipal(model.RoleManager)
	base := RecordTaxTransactionRequest{
		Kind:         "pph23",
		DocumentType: "PO",
		DocumentID:   uuid.New().String(),
		TaxInput:     TaxInput{Amount: decimal.NewFromInt(1000)},
	}

	bad := base
	bad.Kind = "luxury"
	_, err := svc.RecordTransaction(context.Background(), actor, bad)
	assert.ErrorIs(t, err, tax.ErrUnsupportedCategory)

	bad = base
	bad.DocumentType = "EXPENSE"
	_, err = svc.RecordTransaction(context.Background(), actor, bad)
	assert.ErrorIs(t, err, ErrInvalidInput)

	bad = base
	bad.TaxDate = "15/04/2026"
	_, err = svc.RecordTransaction(context.Background(), actor, bad)
	assert.ErrorIs(t, err, ErrInvalidInput)

	bad = base
	bad.Amount = decimal.NewFromInt(-1)
	_, err = svc.RecordTransaction(context.Background(), actor, bad)
	assert.ErrorIs(t, err, tax.ErrInvalidInput)
}

func TestTaxService_ListTransactionsFilter(t *testing.T) {
	svc, repo, _ := newTaxFixture(t)
	actor := newPrincipal(model.RoleManager)

	repo.EXPECT().List(gomock.Any(), gomock.Any(), 2, 10).DoAndReturn(
		func(_ context.Context, f repository.TaxTransactionFilter, _, _ int) ([]model.TaxTransaction, int64, error) {
			assert.Equal(t, actor.WorkspaceID, f.WorkspaceID)
			assert.Equal(t, model.TaxTypePPh21, f.TaxType)
			assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), f.From)
			assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), f.To)
			return []model.TaxTransaction{{ID: uuid.New(), TaxType: model.TaxTypePPh21}}, 11, nil
		})

	rows, total, err := svc.ListTransactions(context.Background(), actor, TaxTransactionQuery{
		TaxType: "pph21", From: "2026-01-01", To: "2026-01-31",
	}, 2, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 11, total)
	assert.Len(t, rows, 1)

	_, _, err = svc.ListTransactions(context.Background(), actor, TaxTransactionQuery{From: "2026-02-01", To: "2026-01-01"}, 1, 10)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestTaxService_ExportTransactions(t *testing.T) {
	svc, repo, audits := newTaxFixture(t)
	actor := newPrincipal(model.RoleDireksi)

	repo.EXPECT().ListAll(gomock.Any(), gomock.Any()).Return([]model.TaxTransaction{{
		ID: uuid.New(), DocumentType: "SO", DocumentID: uuid.New(), TaxType: model.TaxTypePPN,
		TaxBase: decimal.NewFromInt(100), TaxRate: decimal.NewFromInt(11), TaxAmount: decimal.NewFromInt(11),
		NetAmount: decimal.NewFromInt(111), TaxDate: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	}}, nil)
	audits.EXPECT().Log(gomock.Any(), gomock.Any()).Return(nil)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportTransactions(context.Background(), actor, TaxTransactionQuery{}, &buf))
	// XLSX files are zip archives.
	assert.Equal(t, []byte("PK"), buf.Bytes()[:2])
}
