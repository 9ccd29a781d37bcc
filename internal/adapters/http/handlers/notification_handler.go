package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"saccolink/internal/adapters/http/middleware"
	"saccolink/internal/core/services"
	"saccolink/internal/pkg/pagination"
	"saccolink/internal/pkg/response"
)

// NotificationHandler handles in-app notification endpoints
type NotificationHandler struct {
	notificationService *services.NotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// List handles listing the caller's notifications
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	unreadOnly := c.QueryBool("unread")
	p := middleware.GetPrincipal(c)

	notifications, total, err := h.notificationService.ListForUser(c.Context(), p.UserID, unreadOnly, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list notifications")
	}

	return response.Success(c, "Notifications retrieved successfully", pagination.NewResponse(notifications, params, total))
}

// UnreadCount handles the unread badge count
func (h *NotificationHandler) UnreadCount(c *fiber.Ctx) error {
	p := middleware.GetPrincipal(c)

	count, err := h.notificationService.UnreadCount(c.Context(), p.UserID)
	if err != nil {
		return response.InternalServerError(c, "Failed to count notifications")
	}

	return response.Success(c, "Unread count retrieved successfully", fiber.Map{
		"unread": count,
	})
}

// MarkRead handles marking one notification as read
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.BadRequest(c, "Invalid notification ID")
	}

	p := middleware.GetPrincipal(c)
	if err := h.notificationService.MarkRead(c.Context(), id, p.UserID); err != nil {
		if errors.Is(err, services.ErrNotificationNotFound) {
			return response.NotFound(c, "Notification not found")
		}
		return response.InternalServerError(c, "Failed to mark notification as read")
	}

	return response.Success(c, "Notification marked as read", nil)
}

// MarkAllRead handles marking all of the caller's notifications as read
func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	p := middleware.GetPrincipal(c)

	if err := h.notificationService.MarkAllRead(c.Context(), p.UserID); err != nil {
		return response.InternalServerError(c, "Failed to mark notifications as read")
	}

	return response.Success(c, "All notifications marked as read", nil)
}
