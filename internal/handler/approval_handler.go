package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"taxflow/internal/authz"
	"taxflow/internal/middleware"
	"taxflow/internal/service"
	"taxflow/internal/token"
	"taxflow/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ApprovalHandler struct {
	approvalService service.ApprovalService
	guard           *middleware.Guard
}

func NewApprovalHandler(approvalService service.ApprovalService, guard *middleware.Guard) *ApprovalHandler {
	return &ApprovalHandler{approvalService: approvalService, guard: guard}
}

func (h *ApprovalHandler) RegisterRoutes(router *gin.RouterGroup) {
	approvals := router.Group("/notifications/approvals")
	approvals.Use(h.guard.Authenticate())
	{
		approvals.GET("", h.guard.Authorize(authz.ObjectApprovals, authz.ActionRead), h.ListPending)
		approvals.POST("", h.guard.Authorize(authz.ObjectApprovals, authz.ActionCreate), h.Create)
		approvals.GET("/:id", h.guard.Authorize(authz.ObjectApprovals, authz.ActionRead), h.Get)
		approvals.POST("/:id/approve", h.guard.Authorize(authz.ObjectApprovals, authz.ActionDecide), h.Approve)
		approvals.POST("/:id/reject", h.guard.Authorize(authz.ObjectApprovals, authz.ActionDecide), h.Reject)
	}
}

// ListPending returns the pending requests the caller can decide on
// @Summary      Pending approvals
// @Tags         approvals
// @Produce      json
// @Security     BearerAuth
// @Success      200      {object}  response.Response{data=[]service.ApprovalRequestResponse}
// @Router       /notifications/approvals [get]
func (h *ApprovalHandler) ListPending(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	items, err := h.approvalService.ListPending(c.Request.Context(), p)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, items))
}

func (h *ApprovalHandler) Create(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req service.CreateApprovalRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	created, err := h.approvalService.Create(c.Request.Context(), p, req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, created))
}

func (h *ApprovalHandler) Get(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	item, err := h.approvalService.Get(c.Request.Context(), p, id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// Approve moves a pending request to approved
// @Summary      Approve
// @Tags         approvals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string               true   "Approval request ID"
// @Param        payload  body      service.DecisionDTO  false  "Optional comments"
// @Success      200      {object}  response.Response{data=service.ApprovalRequestResponse}
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /notifications/approvals/{id}/approve [post]
func (h *ApprovalHandler) Approve(c *gin.Context) {
	h.decide(c, h.approvalService.Approve)
}

// Reject moves a pending request to rejected; comments are required
// @Summary      Reject
// @Tags         approvals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string               true  "Approval request ID"
// @Param        payload  body      service.DecisionDTO  true  "Rejection reason"
// @Success      200      {object}  response.Response{data=service.ApprovalRequestResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /notifications/approvals/{id}/reject [post]
func (h *ApprovalHandler) Reject(c *gin.Context) {
	h.decide(c, h.approvalService.Reject)
}

type decideFunc func(ctx context.Context, actor token.Principal, id uuid.UUID, comments string) (service.ApprovalRequestResponse, error)

func (h *ApprovalHandler) decide(c *gin.Context, fn decideFunc) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	// An empty body means no comments.
	var req service.DecisionDTO
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := fn(c.Request.Context(), p, id, req.Comments)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
