package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"taxflow/internal/approval"
	"taxflow/internal/model"
	"taxflow/internal/repository"
	"taxflow/internal/token"

	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=dashboard_service.go -destination=mocks/dashboard_service_mock.go -package=mocks

const gmTrendMonths = 6

// DashboardRoles are the roles that have a dashboard.
var DashboardRoles = []string{model.RoleAdmin, model.RoleManager, model.RoleSupervisor, model.RoleGM, model.RoleDireksi}

type DashboardResponse struct {
	Role        string      `json:"role"`
	Metrics     interface{} `json:"metrics"`
	LastUpdated string      `json:"last_updated"`
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
	Month     string          `json:"month"` // YYYY-MM
	TaxAmount decimal.Decimal `json:"tax_amount"`
}

type GMMetrics struct {
	MonthlyTax       []MonthlyTax    `json:"monthly_tax"`
	ApprovalRate     decimal.Decimal `json:"approval_rate"` // percent of decided requests approved
	PendingApprovals int64           `json:"pending_approvals"`
}

type DireksiMetrics struct {
	TaxYearToDate         decimal.Decimal       `json:"tax_ytd"`
	TaxPreviousYearToDate decimal.Decimal       `json:"tax_previous_ytd"`
	YoYGrowth             *decimal.Decimal      `json:"yoy_growth"` // percent, nil without a previous year
	TaxByType             []repository.TaxTotal `json:"tax_by_type"`
}

type DashboardService interface {
	Get(ctx context.Context, actor token.Principal, role string) (DashboardResponse, error)
}

type dashboardService struct {
	users         repository.UserRepository
	approvals     repository.ApprovalRepository
	notifications repository.NotificationRepository
	ledger        repository.TaxTransactionRepository
	audits        repository.AuditRepository
	now           func() time.Time
}

func NewDashboardService(
	users repository.UserRepository,
	approvals repository.ApprovalRepository,
	notifications repository.NotificationRepository,
	ledger repository.TaxTransactionRepository,
	audits repository.AuditRepository,
) DashboardService {
	return &dashboardService{
		users:         users,
		approvals:     approvals,
		notifications: notifications,
		ledger:        ledger,
		audits:        audits,
		now:           time.Now,
	}
}

func (s *dashboardService) Get(ctx context.Context, actor token.Principal, role string) (DashboardResponse, error) {
	now := s.now()

	var (
		metrics interface{}
		err     error
	)
	switch role {
	case model.RoleAdmin:
		metrics, err = s.admin(ctx, actor, now)
	case model.RoleManager:
		metrics, err = s.manager(ctx, actor, now)
	case model.RoleSupervisor:
		metrics, err = s.supervisor(ctx, actor, now)
	case model.RoleGM:
		metrics, err = s.gm(ctx, actor, now)
	case model.RoleDireksi:
		metrics, err = s.direksi(ctx, actor, now)
	default:
		return DashboardResponse{}, fmt.Errorf("dashboard %q: %w", role, ErrNotFound)
	}
	if err != nil {
		return DashboardResponse{}, fmt.Errorf("failed to build %s dashboard: %w", role, err)
	}

	return DashboardResponse{Role: role, Metrics: metrics, LastUpdated: now.Format(time.RFC3339)}, nil
}

func (s *dashboardService) admin(ctx context.Context, actor token.Principal, now time.Time) (AdminMetrics, error) {
	byRole, err := s.users.CountByRole(ctx, actor.WorkspaceID, false)
	if err != nil {
		return AdminMetrics{}, err
	}
	active, err := s.users.CountByRole(ctx, actor.WorkspaceID, true)
	if err != nil {
		return AdminMetrics{}, err
	}
	events, err := s.audits.CountSince(ctx, actor.WorkspaceID, startOfDay(now))
	if err != nil {
		return AdminMetrics{}, err
	}
	pending, err := s.pending(ctx, actor)
	if err != nil {
		return AdminMetrics{}, err
	}

	var activeTotal int64
	for _, n := range active {
		activeTotal += n
	}
	return AdminMetrics{
		UsersByRole:      byRole,
		ActiveUsers:      activeTotal,
		AuditEventsToday: events,
		PendingApprovals: pending,
	}, nil
}

func (s *dashboardService) manager(ctx context.Context, actor token.Principal, now time.Time) (ManagerMetrics, error) {
	pending, err := s.pending(ctx, actor)
	if err != nil {
		return ManagerMetrics{}, err
	}
	month, err := s.approvals.CountByStatus(ctx, actor.WorkspaceID, startOfMonth(now))
	if err != nil {
		return ManagerMetrics{}, err
	}
	totals, err := s.ledger.Totals(ctx, repository.TaxTransactionFilter{
		WorkspaceID: actor.WorkspaceID,
		From:        startOfMonth(now),
	})
	if err != nil {
		return ManagerMetrics{}, err
	}

	tax, count := sumTotals(totals)
	return ManagerMetrics{
		PendingApprovals:      pending,
		ApprovedThisMonth:     month[string(approval.StatusApproved)],
		RejectedThisMonth:     month[string(approval.StatusRejected)],
		TaxThisMonth:          tax,
		TransactionsThisMonth: count,
	}, nil
}

func (s *dashboardService) supervisor(ctx context.Context, actor token.Principal, now time.Time) (SupervisorMetrics, error) {
	pending, err := s.pending(ctx, actor)
	if err != nil {
		return SupervisorMetrics{}, err
	}
	decided, err := s.approvals.CountDecidedSince(ctx, actor.WorkspaceID, startOfDay(now))
	if err != nil {
		return SupervisorMetrics{}, err
	}
	totals, err := s.ledger.Totals(ctx, repository.TaxTransactionFilter{
		WorkspaceID: actor.WorkspaceID,
		From:        startOfDay(now),
	})
	if err != nil {
		return SupervisorMetrics{}, err
	}
	unread, err := s.notifications.CountUnread(ctx, actor.WorkspaceID, actor.UserID)
	if err != nil {
		return SupervisorMetrics{}, err
	}

	_, count := sumTotals(totals)
	return SupervisorMetrics{
		PendingApprovals:    pending,
		DecidedToday:        decided,
		TransactionsToday:   count,
		UnreadNotifications: unread,
	}, nil
}

func (s *dashboardService) gm(ctx context.Context, actor token.Principal, now time.Time) (GMMetrics, error) {
	current := startOfMonth(now)
	trend := make([]MonthlyTax, 0, gmTrendMonths)
	for i := gmTrendMonths - 1; i >= 0; i-- {
		from := current.AddDate(0, -i, 0)
		totals, err := s.ledger.Totals(ctx, repository.TaxTransactionFilter{
			WorkspaceID: actor.WorkspaceID,
			From:        from,
			To:          from.AddDate(0, 1, 0),
		})
		if err != nil {
			return GMMetrics{}, err
		}
		tax, _ := sumTotals(totals)
		trend = append(trend, MonthlyTax{Month: from.Format("2006-01"), TaxAmount: tax})
	}

	byStatus, err := s.approvals.CountByStatus(ctx, actor.WorkspaceID, time.Time{})
	if err != nil {
		return GMMetrics{}, err
	}
	approved := byStatus[string(approval.StatusApproved)]
	decided := approved + byStatus[string(approval.StatusRejected)]

	return GMMetrics{
		MonthlyTax:       trend,
		ApprovalRate:     percent(decimal.NewFromInt(approved), decimal.NewFromInt(decided)),
		PendingApprovals: byStatus[string(approval.StatusPending)],
	}, nil
}

func (s *dashboardService) direksi(ctx context.Context, actor token.Principal, now time.Time) (DireksiMetrics, error) {
	yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	current, err := s.ledger.Totals(ctx, repository.TaxTransactionFilter{
		WorkspaceID: actor.WorkspaceID,
		From:        yearStart,
		To:          now,
	})
	if err != nil {
		return DireksiMetrics{}, err
	}
	previous, err := s.ledger.Totals(ctx, repository.TaxTransactionFilter{
		WorkspaceID: actor.WorkspaceID,
		From:        yearStart.AddDate(-1, 0, 0),
		To:          now.AddDate(-1, 0, 0),
	})
	if err != nil {
		return DireksiMetrics{}, err
	}

	ytd, _ := sumTotals(current)
	prev, _ := sumTotals(previous)
	m := DireksiMetrics{
		TaxYearToDate:         ytd,
		TaxPreviousYearToDate: prev,
		TaxByType:             current,
	}
	if m.TaxByType == nil {
		m.TaxByType = []repository.TaxTotal{}
	}
	sort.Slice(m.TaxByType, func(i, j int) bool { return m.TaxByType[i].TaxType < m.TaxByType[j].TaxType })
	if !prev.IsZero() {
		growth := percent(ytd.Sub(prev), prev)
		m.YoYGrowth = &growth
	}
	return m, nil
}

func (s *dashboardService) pending(ctx context.Context, actor token.Principal) (int64, error) {
	byStatus, err := s.approvals.CountByStatus(ctx, actor.WorkspaceID, time.Time{})
	if err != nil {
		return 0, err
	}
	return byStatus[string(approval.StatusPending)], nil
}

func sumTotals(totals []repository.TaxTotal) (decimal.Decimal, int64) {
	sum := decimal.Zero
	var count int64
	for _, t := range totals {
		sum = sum.Add(t.TaxAmount)
		count += t.Count
	}
	return sum, count
}

// percent returns part/whole*100 rounded to 2 places, 0 when whole is 0.
func percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(decimal.NewFromInt(100)).Round(2)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
