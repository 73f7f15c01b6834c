package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrUnknownDashboard is returned for a role without a dashboard schema.
var ErrUnknownDashboard = errors.New("unknown dashboard role")

// ErrInvalidDashboard is returned when a dashboard payload does not match its schema.
var ErrInvalidDashboard = errors.New("invalid dashboard payload")

// Dashboard is one role's metrics. Metrics holds a pointer to one of the
// *Metrics types below, selected by Role.
type Dashboard struct {
	Role        string
	Metrics     interface{}
	LastUpdated string
}

type AdminMetrics struct {
	UsersByRole      map[string]int64 `json:"users_by_role"`
	ActiveUsers      int64            `json:"active_users"`
	AuditEventsToday int64            `json:"audit_events_today"`
	PendingApprovals int64            `json:"pending_approvals"`
}

type ManagerMetrics struct {
	PendingApprovals      int64           `json:"pending_approvals"`
	ApprovedThisMonth     int64           `json:"approved_this_month"`
	RejectedThisMonth     int64           `json:"rejected_this_month"`
	TaxThisMonth          decimal.Decimal `json:"tax_this_month"`
	TransactionsThisMonth int64           `json:"transactions_this_month"`
}

type SupervisorMetrics struct {
	PendingApprovals    int64 `json:"pending_approvals"`
	DecidedToday        int64 `json:"decided_today"`
	TransactionsToday   int64 `json:"transactions_today"`
	UnreadNotifications int64 `json:"unread_notifications"`
}

type MonthlyTax struct {
	Month     string          `json:"month"`
	TaxAmount decimal.Decimal `json:"tax_amount"`
}

type GMMetrics struct {
	MonthlyTax       []MonthlyTax    `json:"monthly_tax"`
	ApprovalRate     decimal.Decimal `json:"approval_rate"`
	PendingApprovals int64           `json:"pending_approvals"`
}

type TaxTotal struct {
	TaxType   string          `json:"tax_type"`
	Count     int64           `json:"count"`
	TaxBase   decimal.Decimal `json:"tax_base"`
	TaxAmount decimal.Decimal `json:"tax_amount"`
}

type DireksiMetrics struct {
	TaxYearToDate         decimal.Decimal  `json:"tax_ytd"`
	TaxPreviousYearToDate decimal.Decimal  `json:"tax_previous_ytd"`
	YoYGrowth             *decimal.Decimal `json:"yoy_growth"`
	TaxByType             []TaxTotal       `json:"tax_by_type"`
}

var dashboardSchemas = map[string]func() interface{}{
	"admin":      func() interface{} { return &AdminMetrics{} },
	"manager":    func() interface{} { return &ManagerMetrics{} },
	"supervisor": func() interface{} { return &SupervisorMetrics{} },
	"gm":         func() interface{} { return &GMMetrics{} },
	"direksi":    func() interface{} { return &DireksiMetrics{} },
}

// Dashboard fetches and validates the dashboard of role.
func (c *Client) Dashboard(ctx context.Context, role string) (Dashboard, error) {
	role = strings.ToLower(strings.TrimSpace(role))
	if _, ok := dashboardSchemas[role]; !ok {
		return Dashboard{}, fmt.Errorf("%w: %q", ErrUnknownDashboard, role)
	}

	var raw json.RawMessage
	if err := c.get(ctx, "/dashboards/"+url.PathEscape(role), nil, &raw); err != nil {
		return Dashboard{}, err
	}

	d, err := DecodeDashboard(raw)
	if err != nil {
		return Dashboard{}, err
	}
	if d.Role != role {
		return Dashboard{}, fmt.Errorf("%w: asked for %q, got %q", ErrInvalidDashboard, role, d.Role)
	}
	return d, nil
}

// DecodeDashboard decodes a dashboard payload strictly: the role must be
// known, metrics must be an object and carry no fields outside its schema.
func DecodeDashboard(data []byte) (Dashboard, error) {
	var wire struct {
		Role        string          `json:"role"`
		Metrics     json.RawMessage `json:"metrics"`
		LastUpdated string          `json:"last_updated"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return Dashboard{}, fmt.Errorf("%w: %v", ErrInvalidDashboard, err)
	}

	schema, ok := dashboardSchemas[wire.Role]
	if !ok {
		return Dashboard{}, fmt.Errorf("%w: %q", ErrUnknownDashboard, wire.Role)
	}
	trimmed := bytes.TrimSpace(wire.Metrics)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Dashboard{}, fmt.Errorf("%w: metrics must be an object", ErrInvalidDashboard)
	}

	metrics := schema()
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if err := dec.Decode(metrics); err != nil {
		return Dashboard{}, fmt.Errorf("%w: %s metrics: %v", ErrInvalidDashboard, wire.Role, err)
	}

	return Dashboard{Role: wire.Role, Metrics: metrics, LastUpdated: wire.LastUpdated}, nil
}
