// Package export renders the tax ledger as an XLSX workbook.
package export

import (
	"fmt"
	"io"
	"sort"

	"taxflow/internal/model"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	LedgerSheet  = "Ledger"
	SummarySheet = "Summary"
)

var ledgerHeader = []interface{}{
	"Tax Date", "Document Type", "Document ID", "Tax Type", "Tax Base", "Rate (%)", "Tax Amount", "Net Amount", "NPWP", "Posted",
}

var summaryHeader = []interface{}{"Tax Type", "Transactions", "Tax Base", "Tax Amount"}

// WriteTaxLedger writes rows to w as a workbook with a Ledger sheet and a
// per-tax-type Summary sheet.
func WriteTaxLedger(w io.Writer, rows []model.TaxTransaction) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", LedgerSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: 3}) // #,##0
	if err != nil {
		return fmt.Errorf("failed to create amount style: %w", err)
	}

	if err := writeLedger(f, rows, headerStyle, amountStyle); err != nil {
		return err
	}
	if err := writeSummary(f, rows, headerStyle, amountStyle); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeLedger(f *excelize.File, rows []model.TaxTransaction, headerStyle, amountStyle int) error {
	if err := f.SetSheetRow(LedgerSheet, "A1", &ledgerHeader); err != nil {
		return fmt.Errorf("failed to write ledger header: %w", err)
	}
	if err := f.SetCellStyle(LedgerSheet, "A1", "J1", headerStyle); err != nil {
		return fmt.Errorf("failed to style ledger header: %w", err)
	}

	for i, r := range rows {
		posted := "No"
		if r.IsPosted {
			posted = "Yes"
		}
		values := []interface{}{
			r.TaxDate.Format("2006-01-02"),
			r.DocumentType,
			r.DocumentID.String(),
			r.TaxType,
			r.TaxBase.InexactFloat64(),
			r.TaxRate.InexactFloat64(),
			r.TaxAmount.InexactFloat64(),
			r.NetAmount.InexactFloat64(),
			r.NPWP,
			posted,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(LedgerSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write ledger row %d: %w", i+1, err)
		}
	}

	if len(rows) > 0 {
		last := fmt.Sprint(len(rows) + 1)
		if err := f.SetCellStyle(LedgerSheet, "E2", "H"+last, amountStyle); err != nil {
			return fmt.Errorf("failed to style ledger amounts: %w", err)
		}
	}
	return f.SetColWidth(LedgerSheet, "A", "J", 16)
}

// sortTaxTypes orders known types as in model.TaxTypes, then any others
// alphabetically.
func sortTaxTypes(types []string) {
	rank := func(t string) int {
		for i, known := range model.TaxTypes {
			if known == t {
				return i
			}
		}
		return len(model.TaxTypes)
	}
	sort.Slice(types, func(i, j int) bool {
		ri, rj := rank(types[i]), rank(types[j])
		if ri != rj {
			return ri < rj
		}
		return types[i] < types[j]
	})
}

type typeTotal struct {
	count     int
	base      decimal.Decimal
	taxAmount decimal.Decimal
}

func writeSummary(f *excelize.File, rows []model.TaxTransaction, headerStyle, amountStyle int) error {
	totals := map[string]*typeTotal{}
	for _, r := range rows {
		t, ok := totals[r.TaxType]
		if !ok {
			t = &typeTotal{}
			totals[r.TaxType] = t
		}
		t.count++
		t.base = t.base.Add(r.TaxBase)
		t.taxAmount = t.taxAmount.Add(r.TaxAmount)
	}

	types := make([]string, 0, len(totals))
	for k := range totals {
		types = append(types, k)
	}
	sortTaxTypes(types)

	if err := f.SetSheetRow(SummarySheet, "A1", &summaryHeader); err != nil {
		return fmt.Errorf("failed to write summary header: %w", err)
	}
	if err := f.SetCellStyle(SummarySheet, "A1", "D1", headerStyle); err != nil {
		return err
	}

	grand := typeTotal{}
	for i, k := range types {
		t := totals[k]
		grand.count += t.count
		grand.base = grand.base.Add(t.base)
		grand.taxAmount = grand.taxAmount.Add(t.taxAmount)

		values := []interface{}{k, t.count, t.base.InexactFloat64(), t.taxAmount.InexactFloat64()}
		if err := f.SetSheetRow(SummarySheet, fmt.Sprintf("A%d", i+2), &values); err != nil {
			return fmt.Errorf("failed to write summary row: %w", err)
		}
	}

	totalRow := len(types) + 2
	values := []interface{}{"TOTAL", grand.count, grand.base.InexactFloat64(), grand.taxAmount.InexactFloat64()}
	if err := f.SetSheetRow(SummarySheet, fmt.Sprintf("A%d", totalRow), &values); err != nil {
		return fmt.Errorf("failed to write summary total: %w", err)
	}
	if err := f.SetCellStyle(SummarySheet, "C2", fmt.Sprintf("D%d", totalRow), amountStyle); err != nil {
		return err
	}
	return f.SetColWidth(SummarySheet, "A", "D", 18)
}
