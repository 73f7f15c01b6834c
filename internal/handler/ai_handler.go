package handler

import (
	"net/http"

	"taxflow/internal/authz"
	"taxflow/internal/middleware"
	"taxflow/internal/service"
	"taxflow/pkg/response"

	"github.com/gin-gonic/gin"
)

type AIHandler struct {
	settingsService service.AISettingsService
	guard           *middleware.Guard
}

func NewAIHandler(settingsService service.AISettingsService, guard *middleware.Guard) *AIHandler {
	return &AIHandler{settingsService: settingsService, guard: guard}
}

func (h *AIHandler) RegisterRoutes(router *gin.RouterGroup) {
	ai := router.Group("/ai")
	ai.Use(h.guard.Authenticate())
	{
		ai.GET("/settings", h.guard.Authorize(authz.ObjectAISettings, authz.ActionRead), h.GetSettings)
		ai.PUT("/settings", h.guard.Authorize(authz.ObjectAISettings, authz.ActionWrite), h.UpdateSettings)
	}
}

func (h *AIHandler) GetSettings(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	settings, err := h.settingsService.Get(c.Request.Context(), p)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, settings))
}

func (h *AIHandler) UpdateSettings(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req service.UpdateAISettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	settings, err := h.settingsService.Update(c.Request.Context(), p, req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, settings))
}
