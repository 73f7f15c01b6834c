package handler

import (
	"net/http"
	"testing"

	"taxflow/internal/service"
	"taxflow/internal/service/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestDashboardHandler(t *testing.T) {
	s := newTestServer(t)
	svc := mocks.NewMockDashboardService(s.ctrl)
	NewDashboardHandler(svc, s.guard).RegisterRoutes(s.router.Group(""))

	bearer, p := s.login("supervisor")
	svc.EXPECT().Get(gomock.Any(), p, "supervisor").Return(service.DashboardResponse{
		Role:        "supervisor",
		Metrics:     service.SupervisorMetrics{PendingApprovals: 2},
		LastUpdated: "2026-05-01T08:00:00Z",
	}, nil)

	w, env := s.do(http.MethodGet, "/dashboards/supervisor", bearer, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"role":"supervisor","metrics":{"pending_approvals":2,"decided_today":0,"transactions_today":0,"unread_notifications":0},"last_updated":"2026-05-01T08:00:00Z"}`, string(env.Data))

	w, _ = s.do(http.MethodGet, "/dashboards/direksi", bearer, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	admin, ap := s.login("admin")
	svc.EXPECT().Get(gomock.Any(), ap, "cfo").Return(service.DashboardResponse{}, service.ErrNotFound)
	w, _ = s.do(http.MethodGet, "/dashboards/cfo", admin, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
