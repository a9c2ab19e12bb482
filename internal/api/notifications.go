package api

import (
	"errors"
	"net/http"
	"strconv"

	"cashpoints_miniapp/internal/service"
	"cashpoints_miniapp/pkg/auth"
	"cashpoints_miniapp/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type notificationRoutes struct {
	ns service.NotificationServiceI
	a  *auth.TelegramAuth
}

func NewNotificationRoutes(handler *gin.RouterGroup, ns service.NotificationServiceI, a *auth.TelegramAuth) {
	r := &notificationRoutes{ns: ns, a: a}
	h := handler.Group("/notifications")
	h.Use(a.TelegramAuthMiddleware())
	{
		h.GET("/:telegram_id", r.GetUserNotifications)
		h.PATCH("/:telegram_id/read-all", r.MarkAllRead)
		h.PATCH("/:telegram_id/:notification_id/read", r.MarkRead)
	}
}

func (r *notificationRoutes) GetUserNotifications(c *gin.Context) {
	log := logger.Logger()

	id, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil {
		log.Error("failed to parse telegram_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram_id"})
		return
	}

	notifications, err := r.ns.GetUserNotifications(c.Request.Context(), id)
	if err != nil {
		log.Error("failed to list notifications", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list notifications"})
		return
	}

	out := make([]gin.H, len(notifications))
	for i, n := range notifications {
		out[i] = gin.H{
			"notification_id": n.NotificationID,
			"type":            n.Type,
			"title":           n.Title,
			"message":         n.Message,
			"is_read":         n.IsRead,
			"action_url":      n.ActionURL,
			"created_at":      n.CreatedAt,
		}
	}

	c.JSON(http.StatusOK, out)
}

func (r *notificationRoutes) MarkRead(c *gin.Context) {
	log := logger.Logger()

	id, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil {
		log.Error("failed to parse telegram_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram_id"})
		return
	}

	notificationID, err := uuid.Parse(c.Param("notification_id"))
	if err != nil {
		log.Error("failed to parse notification_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification_id"})
		return
	}

	if err := r.ns.MarkRead(c.Request.Context(), id, notificationID); err != nil {
		if errors.Is(err, service.ErrNotificationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
			return
		}
		log.Error("failed to mark notification read", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark notification read"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (r *notificationRoutes) MarkAllRead(c *gin.Context) {
	log := logger.Logger()

	id, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil {
		log.Error("failed to parse telegram_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram_id"})
		return
	}

	if err := r.ns.MarkAllRead(c.Request.Context(), id); err != nil {
		log.Error("failed to mark notifications read", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark notifications read"})
		return
	}

	c.Status(http.StatusNoContent)
}
