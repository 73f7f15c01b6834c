package tax

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind identifies one of the supported tax calculations.
type Kind string

const (
	KindPPN   Kind = "ppn"   // value-added tax
	KindPPh21 Kind = "pph21" // progressive income tax
	KindPPh23 Kind = "pph23" // withholding on services/rent
	KindPPh42 Kind = "pph42" // final withholding
)

// Kinds lists the supported kinds in display order.
var Kinds = []Kind{KindPPN, KindPPh21, KindPPh23, KindPPh42}

// ParseKind accepts the route form ("pph21") and the ledger form ("pph_21").
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ppn", "vat":
		return KindPPN, nil
	case "pph21", "pph_21":
		return KindPPh21, nil
	case "pph23", "pph_23":
		return KindPPh23, nil
	case "pph42", "pph_4_2", "pph4_2":
		return KindPPh42, nil
	}
	return "", fmt.Errorf("%w: tax kind %q", ErrUnsupportedCategory, s)
}

// Service types for final withholding.
const (
	ServiceConstruction = "construction"
	ServiceRent         = "rent"
	ServiceOther        = "other"
)

var (
	ppnRate = decimal.RequireFromString("0.11")

	pph23RateNPWP   = decimal.RequireFromString("0.02")
	pph23RateNoNPWP = decimal.RequireFromString("0.04")

	finalRates = map[string]decimal.Decimal{
		ServiceConstruction: decimal.RequireFromString("0.025"),
		ServiceRent:         decimal.RequireFromString("0.10"),
		ServiceOther:        decimal.RequireFromString("0.10"),
	}

	hundred = decimal.NewFromInt(100)
)

// CurrencyPlaces is the number of decimal places reported amounts are rounded to (IDR).
const CurrencyPlaces int32 = 0

// Request is implemented by the per-kind request types.
type Request interface {
	Kind() Kind
}

// Result is implemented by the per-kind result types.
type Result interface {
	Summary() Summary
}

// Summary is the kind-independent view of a calculation.
type Summary struct {
	Kind          Kind             `json:"kind"`
	BaseAmount    decimal.Decimal  `json:"base_amount"`
	Rate          decimal.Decimal  `json:"rate"` // percent
	TaxAmount     decimal.Decimal  `json:"tax_amount"`
	NetOrGross    decimal.Decimal  `json:"net_or_gross_amount"`
	EffectiveRate *decimal.Decimal `json:"effective_rate,omitempty"`
}

type VATRequest struct {
	Amount     decimal.Decimal `json:"amount"`
	IncludeTax bool            `json:"include_tax"`
}

func (VATRequest) Kind() Kind { return KindPPN }

type VATResult struct {
	BaseAmount  decimal.Decimal `json:"base_amount"`
	PPNAmount   decimal.Decimal `json:"ppn_amount"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	PPNRate     decimal.Decimal `json:"ppn_rate"`
	IncludeTax  bool            `json:"include_tax"`
}

func (r VATResult) Summary() Summary {
	return Summary{Kind: KindPPN, BaseAmount: r.BaseAmount, Rate: r.PPNRate, TaxAmount: r.PPNAmount, NetOrGross: r.TotalAmount}
}

type IncomeTaxRequest struct {
	AnnualIncome decimal.Decimal `json:"annual_income"`
	HasNPWP      bool            `json:"has_npwp"`
	Status       string          `json:"status"` // PTKP key, defaults to TK/0
}

func (IncomeTaxRequest) Kind() Kind { return KindPPh21 }

type IncomeTaxResult struct {
	AnnualIncome  decimal.Decimal `json:"annual_income"`
	Status        string          `json:"status"`
	PTKP          decimal.Decimal `json:"ptkp"`
	TaxableIncome decimal.Decimal `json:"taxable_income"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	EffectiveRate decimal.Decimal `json:"effective_rate"`
	HasNPWP       bool            `json:"has_npwp"`
}

func (r IncomeTaxResult) Summary() Summary {
	eff := r.EffectiveRate
	return Summary{
		Kind:          KindPPh21,
		BaseAmount:    r.TaxableIncome,
		Rate:          r.EffectiveRate,
		TaxAmount:     r.TaxAmount,
		NetOrGross:    r.AnnualIncome.Sub(r.TaxAmount),
		EffectiveRate: &eff,
	}
}

type WithholdingRequest struct {
	GrossAmount decimal.Decimal `json:"amount"`
	HasNPWP     bool            `json:"has_npwp"`
}

func (WithholdingRequest) Kind() Kind { return KindPPh23 }

type WithholdingResult struct {
	GrossAmount decimal.Decimal `json:"gross_amount"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	NetAmount   decimal.Decimal `json:"net_amount"`
	HasNPWP     bool            `json:"has_npwp"`
}

func (r WithholdingResult) Summary() Summary {
	return Summary{Kind: KindPPh23, BaseAmount: r.GrossAmount, Rate: r.TaxRate, TaxAmount: r.TaxAmount, NetOrGross: r.NetAmount}
}

type FinalWithholdingRequest struct {
	GrossAmount decimal.Decimal `json:"amount"`
	ServiceType string          `json:"service_type"` // defaults to construction
}

func (FinalWithholdingRequest) Kind() Kind { return KindPPh42 }

type FinalWithholdingResult struct {
	GrossAmount decimal.Decimal `json:"gross_amount"`
	ServiceType string          `json:"service_type"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	NetAmount   decimal.Decimal `json:"net_amount"`
	IsFinal     bool            `json:"is_final"` // non-creditable
}

func (r FinalWithholdingResult) Summary() Summary {
	return Summary{Kind: KindPPh42, BaseAmount: r.GrossAmount, Rate: r.TaxRate, TaxAmount: r.TaxAmount, NetOrGross: r.NetAmount}
}

// Engine computes Indonesian taxes. It holds no mutable state and is safe for
// concurrent use.
type Engine struct {
	schedule Schedule
}

// NewEngine validates the schedule and returns an Engine.
func NewEngine(schedule Schedule) (*Engine, error) {
	if err := schedule.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tax schedule: %w", err)
	}
	return &Engine{schedule: schedule}, nil
}

// NewDefaultEngine returns an Engine using DefaultSchedule.
func NewDefaultEngine() *Engine {
	return &Engine{schedule: DefaultSchedule()}
}

// Schedule returns the schedule the engine was built with.
func (e *Engine) Schedule() Schedule { return e.schedule }

// Calculate dispatches on the request kind.
func (e *Engine) Calculate(req Request) (Result, error) {
	switch r := req.(type) {
	case VATRequest:
		return e.CalculatePPN(r)
	case IncomeTaxRequest:
		return e.CalculatePPh21(r)
	case WithholdingRequest:
		return e.CalculatePPh23(r)
	case FinalWithholdingRequest:
		return e.CalculatePPh42(r)
	case nil:
		return nil, fmt.Errorf("%w: nil request", ErrUnsupportedCategory)
	}
	return nil, fmt.Errorf("%w: request kind %q", ErrUnsupportedCategory, req.Kind())
}

// CalculatePPN computes 11% VAT. With IncludeTax the amount is treated as tax-inclusive.
func (e *Engine) CalculatePPN(req VATRequest) (VATResult, error) {
	if err := checkAmount("amount", req.Amount); err != nil {
		return VATResult{}, err
	}

	// Reported figures are whole currency units, so the input is rounded first.
	amount := roundCurrency(req.Amount)
	var base, ppn decimal.Decimal
	if req.IncludeTax {
		exact := amount.Div(decimal.NewFromInt(1).Add(ppnRate))
		ppn = roundCurrency(amount.Sub(exact))
		base = amount.Sub(ppn)
	} else {
		base = amount
		ppn = roundCurrency(amount.Mul(ppnRate))
	}

	return VATResult{
		BaseAmount:  base,
		PPNAmount:   ppn,
		TotalAmount: base.Add(ppn),
		PPNRate:     ppnRate.Mul(hundred),
		IncludeTax:  req.IncludeTax,
	}, nil
}

// CalculatePPh21 applies PTKP, the progressive brackets and the no-NPWP surcharge.
func (e *Engine) CalculatePPh21(req IncomeTaxRequest) (IncomeTaxResult, error) {
	if err := checkAmount("annual_income", req.AnnualIncome); err != nil {
		return IncomeTaxResult{}, err
	}

	status := strings.ToUpper(strings.TrimSpace(req.Status))
	if status == "" {
		status = StatusSingleNoDependents
	}
	ptkp, ok := e.schedule.PTKP[status]
	if !ok {
		return IncomeTaxResult{}, fmt.Errorf("%w: taxpayer status %q", ErrUnsupportedCategory, req.Status)
	}

	taxable := decimal.Max(req.AnnualIncome.Sub(ptkp), decimal.Zero)
	res := IncomeTaxResult{
		AnnualIncome:  req.AnnualIncome,
		Status:        status,
		PTKP:          ptkp,
		TaxableIncome: taxable,
		TaxAmount:     decimal.Zero,
		EffectiveRate: decimal.Zero,
		HasNPWP:       req.HasNPWP,
	}
	if taxable.IsZero() {
		return res, nil
	}

	tax := e.progressive(taxable)
	if !req.HasNPWP {
		tax = tax.Mul(e.schedule.NoNPWPSurcharge)
	}
	res.TaxAmount = roundCurrency(tax)
	res.EffectiveRate = res.TaxAmount.Div(req.AnnualIncome).Mul(hundred).Round(2)
	return res, nil
}

func (e *Engine) progressive(taxable decimal.Decimal) decimal.Decimal {
	tax := decimal.Zero
	lower := decimal.Zero
	for _, b := range e.schedule.Brackets {
		if !taxable.GreaterThan(lower) {
			break
		}
		upper := taxable
		if b.Limit != nil && b.Limit.LessThan(taxable) {
			upper = *b.Limit
		}
		tax = tax.Add(upper.Sub(lower).Mul(b.Rate))
		if b.Limit == nil {
			break
		}
		lower = *b.Limit
	}
	return tax
}

// CalculatePPh23 withholds 2% (4% without NPWP).
func (e *Engine) CalculatePPh23(req WithholdingRequest) (WithholdingResult, error) {
	if err := checkAmount("amount", req.GrossAmount); err != nil {
		return WithholdingResult{}, err
	}

	rate := pph23RateNPWP
	if !req.HasNPWP {
		rate = pph23RateNoNPWP
	}
	tax := roundCurrency(req.GrossAmount.Mul(rate))

	return WithholdingResult{
		GrossAmount: req.GrossAmount,
		TaxRate:     rate.Mul(hundred),
		TaxAmount:   tax,
		NetAmount:   req.GrossAmount.Sub(tax),
		HasNPWP:     req.HasNPWP,
	}, nil
}

// CalculatePPh42 applies the final withholding rate for the service type.
func (e *Engine) CalculatePPh42(req FinalWithholdingRequest) (FinalWithholdingResult, error) {
	if err := checkAmount("amount", req.GrossAmount); err != nil {
		return FinalWithholdingResult{}, err
	}

	service := strings.ToLower(strings.TrimSpace(req.ServiceType))
	if service == "" {
		service = ServiceConstruction
	}
	rate, ok := finalRates[service]
	if !ok {
		return FinalWithholdingResult{}, fmt.Errorf("%w: service type %q", ErrUnsupportedCategory, req.ServiceType)
	}
	tax := roundCurrency(req.GrossAmount.Mul(rate))

	return FinalWithholdingResult{
		GrossAmount: req.GrossAmount,
		ServiceType: service,
		TaxRate:     rate.Mul(hundred),
		TaxAmount:   tax,
		NetAmount:   req.GrossAmount.Sub(tax),
		IsFinal:     true,
	}, nil
}

// ServiceTypes lists the accepted final withholding service types.
func ServiceTypes() []string {
	return []string{ServiceConstruction, ServiceRent, ServiceOther}
}

// ParseAmount parses a decimal string, rejecting NaN, infinities and negatives.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: amount %q is not a number", ErrInvalidInput, s)
	}
	if err := checkAmount("amount", d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// AmountFromFloat converts a float, rejecting NaN, infinities and negatives.
func AmountFromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, fmt.Errorf("%w: amount is not finite", ErrInvalidInput)
	}
	d := decimal.NewFromFloat(f)
	if err := checkAmount("amount", d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

func checkAmount(field string, d decimal.Decimal) error {
	if d.IsNegative() {
		return fmt.Errorf("%w: %s must not be negative", ErrInvalidInput, field)
	}
	return nil
}

func roundCurrency(d decimal.Decimal) decimal.Decimal {
	return d.Round(CurrencyPlaces)
}
