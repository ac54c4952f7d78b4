package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourorg/notification-engine/internal/model"
	"github.com/yourorg/notification-engine/internal/service"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	notificationService *service.NotificationService
	logger              *zap.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationService *service.NotificationService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		logger:              logger,
	}
}

// GetNotifications handles retrieving the caller's notifications
// GET /api/v1/users/me/notifications
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	userID, _ := c.Get("userID")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	unreadOnly := c.Query("unread_only") == "true"

	notifications, err := h.notificationService.List(c.Request.Context(), userID.(int64), unreadOnly, limit, offset)
	if err != nil {
		h.logger.Error("Failed to get notifications", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

// GetUnreadCount handles retrieving the caller's unread notification count
// GET /api/v1/users/me/notifications/count
func (h *NotificationHandler) GetUnreadCount(c *gin.Context) {
	userID, _ := c.Get("userID")

	count, err := h.notificationService.UnreadCount(c.Request.Context(), userID.(int64))
	if err != nil {
		h.logger.Error("Failed to get unread notification count", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get notification count"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

// MarkAsRead handles marking a notification as read
// PUT /api/v1/users/me/notifications/{id}/read
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	h.mutate(c, "mark notification as read", h.notificationService.MarkRead)
}

// Dismiss handles dismissing a notification
// PUT /api/v1/users/me/notifications/{id}/dismiss
func (h *NotificationHandler) Dismiss(c *gin.Context) {
	h.mutate(c, "dismiss notification", h.notificationService.Dismiss)
}

// Resolve handles resolving a notification
// PUT /api/v1/users/me/notifications/{id}/resolve
func (h *NotificationHandler) Resolve(c *gin.Context) {
	h.mutate(c, "resolve notification", h.notificationService.Resolve)
}

type snoozeRequest struct {
	Until time.Time `json:"until" binding:"required"`
}

// Snooze handles snoozing a notification until a wake time
// PUT /api/v1/users/me/notifications/{id}/snooze
func (h *NotificationHandler) Snooze(c *gin.Context) {
	userID, _ := c.Get("userID")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification ID"})
		return
	}

	var req snoozeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	now := time.Now()
	if !req.Until.After(now) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Snooze time must be in the future"})
		return
	}

	err = h.notificationService.Snooze(c.Request.Context(), now, id, userID.(int64), req.Until)
	if err != nil {
		h.respondMutationError(c, "snooze notification", err)
		return
	}

	c.Status(http.StatusNoContent)
}

// MarkAllAsRead handles marking all of the caller's unread notifications
// as read
// PUT /api/v1/users/me/notifications/read-all
func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	userID, _ := c.Get("userID")

	count, err := h.notificationService.MarkAllRead(c.Request.Context(), time.Now(), userID.(int64))
	if err != nil {
		h.logger.Error("Failed to mark all notifications as read", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"marked_count": count})
}

// mutate runs one of the single-notification status transitions shared by
// the read/dismiss/resolve endpoints
func (h *NotificationHandler) mutate(c *gin.Context, action string, fn func(ctx context.Context, now time.Time, id uuid.UUID, userID int64) error) {
	userID, _ := c.Get("userID")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification ID"})
		return
	}

	if err := fn(c.Request.Context(), time.Now(), id, userID.(int64)); err != nil {
		h.respondMutationError(c, action, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *NotificationHandler) respondMutationError(c *gin.Context, action string, err error) {
	switch {
	case errors.Is(err, model.ErrNotificationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
	case errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "Notification cannot be updated from its current status"})
	default:
		h.logger.Error("Failed to "+action, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notification"})
	}
}
