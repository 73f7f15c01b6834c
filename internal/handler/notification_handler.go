package handler

import (
	"net/http"

	"taxflow/internal/middleware"
	"taxflow/internal/service"
	"taxflow/pkg/response"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService service.NotificationService
	guard               *middleware.Guard
}

func NewNotificationHandler(notificationService service.NotificationService, guard *middleware.Guard) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService, guard: guard}
}

func (h *NotificationHandler) RegisterRoutes(router *gin.RouterGroup) {
	notifications := router.Group("/notifications")
	notifications.Use(h.guard.Authenticate())
	{
		notifications.GET("", h.List)
		notifications.GET("/unread-count", h.UnreadCount)
		notifications.POST("/mark-all-read", h.MarkAllRead)
		notifications.POST("/:id/mark-read", h.MarkRead)
	}
}

// List returns the caller's latest notifications, newest first
func (h *NotificationHandler) List(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	items, err := h.notificationService.List(c.Request.Context(), p)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, items))
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	count, err := h.notificationService.UnreadCount(c.Request.Context(), p)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"unread_count": count}))
}

// MarkRead is idempotent; another user's notification is reported as not found
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.notificationService.MarkRead(c.Request.Context(), p, id); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Notification marked as read"}))
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	n, err := h.notificationService.MarkAllRead(c.Request.Context(), p)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "All notifications marked as read", "updated": n}))
}
