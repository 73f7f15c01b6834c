package tax

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Taxpayer status codes used to look up PTKP.
const (
	StatusSingleNoDependents = "TK/0"
)

// Bracket is one band of the PPh 21 progressive table. Limit is the cumulative
// upper bound of taxable income covered by this band; nil means unbounded.
type Bracket struct {
	Limit *decimal.Decimal
	Rate  decimal.Decimal
}

// Schedule holds the configurable parts of the income tax calculation.
type Schedule struct {
	Brackets        []Bracket
	PTKP            map[string]decimal.Decimal
	NoNPWPSurcharge decimal.Decimal
}

// DefaultSchedule returns the 2024 PPh 21 brackets and PTKP table.
func DefaultSchedule() Schedule {
	limit := func(v int64) *decimal.Decimal {
		d := decimal.NewFromInt(v)
		return &d
	}
	return Schedule{
		Brackets: []Bracket{
			{Limit: limit(60_000_000), Rate: decimal.RequireFromString("0.05")},
			{Limit: limit(250_000_000), Rate: decimal.RequireFromString("0.15")},
			{Limit: limit(500_000_000), Rate: decimal.RequireFromString("0.25")},
			{Limit: limit(5_000_000_000), Rate: decimal.RequireFromString("0.30")},
			{Rate: decimal.RequireFromString("0.35")},
		},
		PTKP: map[string]decimal.Decimal{
			"TK/0": decimal.NewFromInt(54_000_000),
			"TK/1": decimal.NewFromInt(58_500_000),
			"TK/2": decimal.NewFromInt(63_000_000),
			"TK/3": decimal.NewFromInt(67_500_000),
			"K/0":  decimal.NewFromInt(58_500_000),
			"K/1":  decimal.NewFromInt(63_000_000),
			"K/2":  decimal.NewFromInt(67_500_000),
			"K/3":  decimal.NewFromInt(72_000_000),
		},
		NoNPWPSurcharge: decimal.RequireFromString("1.20"),
	}
}

// Statuses lists the configured taxpayer statuses in sorted order.
func (s Schedule) Statuses() []string {
	out := make([]string, 0, len(s.PTKP))
	for k := range s.PTKP {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Validate checks that brackets ascend, rates are within [0,1] and only the
// last bracket is unbounded.
func (s Schedule) Validate() error {
	if len(s.Brackets) == 0 {
		return fmt.Errorf("schedule has no brackets")
	}
	prev := decimal.Zero
	for i, b := range s.Brackets {
		if b.Rate.IsNegative() || b.Rate.GreaterThan(decimal.NewFromInt(1)) {
			return fmt.Errorf("bracket %d: rate %s out of range [0,1]", i, b.Rate)
		}
		last := i == len(s.Brackets)-1
		if b.Limit == nil {
			if !last {
				return fmt.Errorf("bracket %d: only the last bracket may be unbounded", i)
			}
			continue
		}
		if last {
			return fmt.Errorf("bracket %d: last bracket must be unbounded", i)
		}
		if !b.Limit.GreaterThan(prev) {
			return fmt.Errorf("bracket %d: limit %s must exceed %s", i, b.Limit, prev)
		}
		prev = *b.Limit
	}
	if len(s.PTKP) == 0 {
		return fmt.Errorf("schedule has no PTKP entries")
	}
	for status, v := range s.PTKP {
		if v.IsNegative() {
			return fmt.Errorf("ptkp %s: negative threshold", status)
		}
	}
	if s.NoNPWPSurcharge.LessThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("no_npwp_surcharge must be >= 1, got %s", s.NoNPWPSurcharge)
	}
	return nil
}

type scheduleFile struct {
	Brackets []struct {
		Limit *string `yaml:"limit"`
		Rate  string  `yaml:"rate"`
	} `yaml:"brackets"`
	PTKP            map[string]string `yaml:"ptkp"`
	NoNPWPSurcharge string            `yaml:"no_npwp_surcharge"`
}

// LoadSchedule reads a YAML schedule file.
func LoadSchedule(path string) (Schedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Schedule{}, fmt.Errorf("failed to read tax schedule: %w", err)
	}
	return ParseSchedule(data)
}

// ParseSchedule decodes a YAML schedule. Omitted sections keep the defaults.
func ParseSchedule(data []byte) (Schedule, error) {
	var raw scheduleFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Schedule{}, fmt.Errorf("failed to parse tax schedule: %w", err)
	}

	sched := DefaultSchedule()

	if len(raw.Brackets) > 0 {
		sched.Brackets = make([]Bracket, 0, len(raw.Brackets))
		for i, rb := range raw.Brackets {
			rate, err := decimal.NewFromString(rb.Rate)
			if err != nil {
				return Schedule{}, fmt.Errorf("bracket %d: invalid rate %q: %w", i, rb.Rate, err)
			}
			b := Bracket{Rate: rate}
			if rb.Limit != nil {
				l, err := decimal.NewFromString(*rb.Limit)
				if err != nil {
					return Schedule{}, fmt.Errorf("bracket %d: invalid limit %q: %w", i, *rb.Limit, err)
				}
				b.Limit = &l
			}
			sched.Brackets = append(sched.Brackets, b)
		}
	}

	if len(raw.PTKP) > 0 {
		sched.PTKP = make(map[string]decimal.Decimal, len(raw.PTKP))
		for status, v := range raw.PTKP {
			d, err := decimal.NewFromString(v)
			if err != nil {
				return Schedule{}, fmt.Errorf("ptkp %s: invalid amount %q: %w", status, v, err)
			}
			sched.PTKP[strings.ToUpper(strings.TrimSpace(status))] = d
		}
	}

	if raw.NoNPWPSurcharge != "" {
		d, err := decimal.NewFromString(raw.NoNPWPSurcharge)
		if err != nil {
			return Schedule{}, fmt.Errorf("invalid no_npwp_surcharge %q: %w", raw.NoNPWPSurcharge, err)
		}
		sched.NoNPWPSurcharge = d
	}

	if err := sched.Validate(); err != nil {
		return Schedule{}, err
	}
	return sched, nil
}
