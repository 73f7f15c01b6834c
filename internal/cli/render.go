package cli

import (
	"fmt"
	"sort"
	"strings"

	"taxflow/internal/tax"
	"taxflow/pkg/client"
	"taxflow/pkg/style"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

var (
	accent = lipgloss.Color("#D97706")
	dim    = lipgloss.Color("#6B7280")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	labelStyle = lipgloss.NewStyle().Foreground(dim).Width(24)
	valueStyle = lipgloss.NewStyle().Bold(true)
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 2)
)

type row struct{ label, value string }

func renderRows(title string, rows []row) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	for _, r := range rows {
		b.WriteString("\n")
		b.WriteString(labelStyle.Render(r.label))
		b.WriteString(valueStyle.Render(r.value))
	}
	return boxStyle.Render(b.String()) + "\n"
}

// rupiah formats an IDR amount with thousands separators.
func rupiah(d decimal.Decimal) string {
	s := d.StringFixed(tax.CurrencyPlaces)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	var out []byte
	for i := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, '.')
		}
		out = append(out, s[i])
	}
	if neg {
		return "-Rp " + string(out)
	}
	return "Rp " + string(out)
}

func percent(d decimal.Decimal) string {
	return d.String() + "%"
}

// RenderResult renders one calculation result as a table.
func RenderResult(result tax.Result) string {
	switch r := result.(type) {
	case tax.VATResult:
		return renderRows("PPN", []row{
			{"Base amount", rupiah(r.BaseAmount)},
			{"Rate", percent(r.PPNRate)},
			{"PPN", rupiah(r.PPNAmount)},
			{"Total", rupiah(r.TotalAmount)},
		})
	case tax.IncomeTaxResult:
		return renderRows("PPh 21", []row{
			{"Annual income", rupiah(r.AnnualIncome)},
			{"Status", r.Status},
			{"PTKP", rupiah(r.PTKP)},
			{"Taxable income", rupiah(r.TaxableIncome)},
			{"Tax", rupiah(r.TaxAmount)},
			{"Effective rate", percent(r.EffectiveRate)},
			{"NPWP", yesNo(r.HasNPWP)},
		})
	case tax.WithholdingResult:
		return renderRows("PPh 23", []row{
			{"Gross amount", rupiah(r.GrossAmount)},
			{"Rate", percent(r.TaxRate)},
			{"Tax", rupiah(r.TaxAmount)},
			{"Net amount", rupiah(r.NetAmount)},
			{"NPWP", yesNo(r.HasNPWP)},
		})
	case tax.FinalWithholdingResult:
		return renderRows("PPh 4(2)", []row{
			{"Gross amount", rupiah(r.GrossAmount)},
			{"Service type", r.ServiceType},
			{"Rate", percent(r.TaxRate)},
			{"Tax", rupiah(r.TaxAmount)},
			{"Net amount", rupiah(r.NetAmount)},
			{"Final", yesNo(r.IsFinal)},
		})
	}

	s := result.Summary()
	return renderRows(strings.ToUpper(string(s.Kind)), []row{
		{"Base amount", rupiah(s.BaseAmount)},
		{"Rate", percent(s.Rate)},
		{"Tax", rupiah(s.TaxAmount)},
	})
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// RenderSchedule renders the bracket and PTKP tables.
func RenderSchedule(s tax.Schedule) string {
	brackets := make([]row, 0, len(s.Brackets))
	lower := decimal.Zero
	for _, b := range s.Brackets {
		label := "above " + rupiah(lower)
		if b.Limit != nil {
			label = "up to " + rupiah(*b.Limit)
			lower = *b.Limit
		}
		brackets = append(brackets, row{label, percent(b.Rate.Mul(decimal.NewFromInt(100)))})
	}

	statuses := s.Statuses()
	ptkp := make([]row, 0, len(statuses))
	for _, st := range statuses {
		ptkp = append(ptkp, row{st, rupiah(s.PTKP[st])})
	}

	return renderRows("PPh 21 brackets", brackets) +
		renderRows("PTKP", ptkp) +
		renderRows("Surcharge", []row{{"without NPWP", "x" + s.NoNPWPSurcharge.String()}})
}

// RenderInbox lists pending approvals and recent notifications.
func RenderInbox(approvals []client.ApprovalRequest, notifications []client.Notification, unread int64) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Pending approvals (%d)", len(approvals))))
	b.WriteString("\n")
	if len(approvals) == 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(dim).Render("  nothing waiting"))
		b.WriteString("\n")
	}
	sorted := append([]client.ApprovalRequest(nil), approvals...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].RequestedAt < sorted[j].RequestedAt })
	for _, a := range sorted {
		tag := style.ForStatus(a.Status).Render(fmt.Sprintf("[%s]", a.Status))
		title := a.Title
		if title == "" {
			title = a.DocumentType + " approval request"
		}
		fmt.Fprintf(&b, "  %s %s  %s\n", tag, title, lipgloss.NewStyle().Foreground(dim).Render(a.ID))
	}

	b.WriteString("\n")
	b.WriteString(titleStyle.Render(fmt.Sprintf("Notifications (%d unread)", unread)))
	b.WriteString("\n")
	for _, n := range notifications {
		marker := " "
		if !n.IsRead {
			marker = "•"
		}
		tag := style.ForPriority(n.Priority).Render(fmt.Sprintf("%-6s", n.Priority))
		fmt.Fprintf(&b, "  %s %s %s\n", marker, tag, n.Title)
	}
	return b.String()
}
