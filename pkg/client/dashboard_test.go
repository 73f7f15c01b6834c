package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDashboard(t *testing.T) {
	d, err := DecodeDashboard([]byte(`{"role":"direksi","metrics":{"tax_ytd":"1500","tax_previous_ytd":"1000","yoy_growth":"50","tax_by_type":[{"tax_type":"ppn","count":2,"tax_base":"10000","tax_amount":"1100"}]},"last_updated":"2026-03-01T00:00:00Z"}`))
	require.NoError(t, err)

	m, ok := d.Metrics.(*DireksiMetrics)
	require.True(t, ok)
	assert.True(t, m.TaxYearToDate.Equal(decimal.NewFromInt(1500)))
	require.NotNil(t, m.YoYGrowth)
	assert.True(t, m.YoYGrowth.Equal(decimal.NewFromInt(50)))
	require.Len(t, m.TaxByType, 1)
	assert.Equal(t, "ppn", m.TaxByType[0].TaxType)
}

func TestDecodeDashboard_Invalid(t *testing.T) {
	cases := map[string]struct {
		payload string
		want    error
	}{
		"unknown role":     {`{"role":"cfo","metrics":{}}`, ErrUnknownDashboard},
		"null metrics":     {`{"role":"admin","metrics":null}`, ErrInvalidDashboard},
		"array metrics":    {`{"role":"admin","metrics":[]}`, ErrInvalidDashboard},
		"foreign field":    {`{"role":"supervisor","metrics":{"tax_ytd":"1"}}`, ErrInvalidDashboard},
		"wrong field type": {`{"role":"manager","metrics":{"pending_approvals":"many"}}`, ErrInvalidDashboard},
		"not json":         {`nope`, ErrInvalidDashboard},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeDashboard([]byte(tc.payload))
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestClient_Dashboard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/dashboards/supervisor":
			writeData(w, http.StatusOK, map[string]interface{}{
				"role":         "supervisor",
				"metrics":      map[string]int{"pending_approvals": 3, "decided_today": 1},
				"last_updated": "2026-03-01T00:00:00Z",
			})
		case "/dashboards/gm":
			writeData(w, http.StatusOK, map[string]interface{}{
				"role":    "admin",
				"metrics": map[string]int{"active_users": 1},
			})
		default:
			writeError(w, http.StatusForbidden, "Access denied: insufficient permissions")
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	ctx := context.Background()

	d, err := c.Dashboard(ctx, "Supervisor")
	require.NoError(t, err)
	m := d.Metrics.(*SupervisorMetrics)
	assert.EqualValues(t, 3, m.PendingApprovals)
	assert.EqualValues(t, 1, m.DecidedToday)

	_, err = c.Dashboard(ctx, "gm")
	assert.ErrorIs(t, err, ErrInvalidDashboard)

	_, err = c.Dashboard(ctx, "direksi")
	assert.Equal(t, http.StatusForbidden, StatusCode(err))

	_, err = c.Dashboard(ctx, "sales")
	assert.ErrorIs(t, err, ErrUnknownDashboard)
}
