package handler

import (
	"net/http"

	"taxflow/internal/middleware"
	"taxflow/internal/service"
	"taxflow/pkg/response"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	dashboardService service.DashboardService
	guard            *middleware.Guard
}

func NewDashboardHandler(dashboardService service.DashboardService, guard *middleware.Guard) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService, guard: guard}
}

func (h *DashboardHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/dashboards/:role", h.guard.Authenticate(), h.guard.AuthorizeDashboard("role"), h.GetDashboard)
}

// GetDashboard returns the metrics of one role's dashboard
// @Summary      Role dashboard
// @Tags         dashboards
// @Produce      json
// @Security     BearerAuth
// @Param        role  path  string  true  "admin, manager, supervisor, gm or direksi"
// @Success      200      {object}  response.Response{data=service.DashboardResponse}
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /dashboards/{role} [get]
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	dashboard, err := h.dashboardService.Get(c.Request.Context(), p, c.Param("role"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, dashboard))
}
