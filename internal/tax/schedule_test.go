package tax

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultScheduleIsValid(t *testing.T) {
	s := DefaultSchedule()
	require.NoError(t, s.Validate())
	assert.Equal(t, []string{"K/0", "K/1", "K/2", "K/3", "TK/0", "TK/1", "TK/2", "TK/3"}, s.Statuses())
	assertDecimal(t, "54000000", s.PTKP[StatusSingleNoDependents])
}

func TestParseSchedulePartialKeepsDefaults(t *testing.T) {
	s, err := ParseSchedule([]byte(`
ptkp:
  tk/0: "60000000"
`))
	require.NoError(t, err)
	assert.Len(t, s.Brackets, 5)
	assert.Equal(t, []string{"TK/0"}, s.Statuses())
	assertDecimal(t, "60000000", s.PTKP["TK/0"])
	assertDecimal(t, "1.2", s.NoNPWPSurcharge)

	e, err := NewEngine(s)
	require.NoError(t, err)
	res, err := e.CalculatePPh21(IncomeTaxRequest{AnnualIncome: dec("100000000"), HasNPWP: true})
	require.NoError(t, err)
	assertDecimal(t, "2000000", res.TaxAmount)
}

func TestParseScheduleBrackets(t *testing.T) {
	s, err := ParseSchedule([]byte(`
brackets:
  - limit: "10000000"
    rate: "0.10"
  - rate: "0.20"
no_npwp_surcharge: "1.5"
`))
	require.NoError(t, err)
	require.Len(t, s.Brackets, 2)
	assert.Nil(t, s.Brackets[1].Limit)

	e, err := NewEngine(s)
	require.NoError(t, err)
	res, err := e.CalculatePPh21(IncomeTaxRequest{AnnualIncome: dec("74000000")})
	require.NoError(t, err)
	// taxable 20M: 1M + 2M, surcharge 1.5
	assertDecimal(t, "4500000", res.TaxAmount)
}

func TestParseScheduleInvalid(t *testing.T) {
	cases := map[string]string{
		"unbounded middle": "brackets:\n  - rate: \"0.1\"\n  - limit: \"5\"\n    rate: \"0.2\"\n",
		"bounded last":     "brackets:\n  - limit: \"5\"\n    rate: \"0.1\"\n",
		"descending":       "brackets:\n  - limit: \"10\"\n    rate: \"0.1\"\n  - limit: \"5\"\n    rate: \"0.2\"\n  - rate: \"0.3\"\n",
		"rate above one":   "brackets:\n  - rate: \"1.5\"\n",
		"bad number":       "ptkp:\n  TK/0: \"lots\"\n",
		"low surcharge":    "no_npwp_surcharge: \"0.9\"\n",
		"not yaml":         "brackets: [",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSchedule([]byte(body))
			assert.Error(t, err)
		})
	}
}

func TestLoadSchedule(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.yaml")
	require.NoError(t, os.WriteFile(path, []byte("no_npwp_surcharge: \"1.25\"\n"), 0o600))

	s, err := LoadSchedule(path)
	require.NoError(t, err)
	assertDecimal(t, "1.25", s.NoNPWPSurcharge)

	_, err = LoadSchedule(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNewEngineRejectsInvalidSchedule(t *testing.T) {
	s := DefaultSchedule()
	s.Brackets = nil
	_, err := NewEngine(s)
	assert.Error(t, err)
}
