package notifications

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/zenopia/favely/pkg/favely/auth"
	"github.com/zenopia/favely/pkg/favely/models"
	"github.com/zenopia/favely/pkg/favely/store"
)

const pageSize = 20

// Handler handles in-app notification requests
type Handler struct {
	notifications *store.NotificationStore
}

// NewHandler creates a new notifications handler
func NewHandler(notifications *store.NotificationStore) *Handler {
	return &Handler{notifications: notifications}
}

// ListResponse wraps a page of notifications with the unread count
type ListResponse struct {
	Notifications []models.Notification `json:"notifications"`
	UnreadCount   int64                 `json:"unread_count"`
	Page          int64                 `json:"page"`
}

// List returns the caller's notifications, newest first
// @Summary List notifications
// @Description Get the current user's notifications with the unread count
// @Tags notifications
// @Produce json
// @Param page query int false "Page number (1-based)"
// @Success 200 {object} ListResponse
// @Security BearerAuth
// @Router /notifications [get]
func (h *Handler) List(c *gin.Context) {
	authID, _ := auth.GetAuthID(c)

	page, _ := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	if page < 1 {
		page = 1
	}

	items, err := h.notifications.FindByUser(c.Request.Context(), authID, (page-1)*pageSize, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch notifications"})
		return
	}

	unread, err := h.notifications.CountUnread(c.Request.Context(), authID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch notifications"})
		return
	}

	c.JSON(http.StatusOK, ListResponse{Notifications: items, UnreadCount: unread, Page: page})
}

// MarkRead marks a single notification as read
// @Summary Mark a notification read
// @Description Mark one of the current user's notifications as read
// @Tags notifications
// @Produce json
// @Param id path string true "Notification ID"
// @Success 204 "Marked read"
// @Failure 404 {object} map[string]string "Notification not found"
// @Security BearerAuth
// @Router /notifications/{id}/read [patch]
func (h *Handler) MarkRead(c *gin.Context) {
	authID, _ := auth.GetAuthID(c)

	id, err := bson.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification ID"})
		return
	}

	if err := h.notifications.MarkRead(c.Request.Context(), id, authID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notification"})
		return
	}

	c.Status(http.StatusNoContent)
}

// MarkAllRead marks all of the caller's notifications as read
// @Summary Mark all notifications read
// @Tags notifications
// @Produce json
// @Success 204 "Marked read"
// @Security BearerAuth
// @Router /notifications/read-all [post]
func (h *Handler) MarkAllRead(c *gin.Context) {
	authID, _ := auth.GetAuthID(c)

	if err := h.notifications.MarkAllRead(c.Request.Context(), authID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notifications"})
		return
	}

	c.Status(http.StatusNoContent)
}

// Delete removes a notification
// @Summary Delete a notification
// @Tags notifications
// @Produce json
// @Param id path string true "Notification ID"
// @Success 204 "Deleted"
// @Failure 404 {object} map[string]string "Notification not found"
// @Security BearerAuth
// @Router /notifications/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	authID, _ := auth.GetAuthID(c)

	id, err := bson.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification ID"})
		return
	}

	if err := h.notifications.Delete(c.Request.Context(), id, authID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete notification"})
		return
	}

	c.Status(http.StatusNoContent)
}

// RegisterRoutes registers notification routes on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/notifications", h.List)
	rg.PATCH("/notifications/:id/read", h.MarkRead)
	rg.POST("/notifications/read-all", h.MarkAllRead)
	rg.DELETE("/notifications/:id", h.Delete)
}
