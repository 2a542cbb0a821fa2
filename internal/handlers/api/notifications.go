package api

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"pecommunity/internal/models"
)

// NotificationStore is the in-app notification persistence.
type NotificationStore interface {
	ListNotifications(ctx context.Context, userID uuid.UUID) ([]models.Notification, int, error)
	MarkNotificationRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

// NotificationHandler serves the current user's notifications.
type NotificationHandler struct {
	db NotificationStore
}

// NewNotificationHandler creates a new notification handler.
func NewNotificationHandler(store NotificationStore) *NotificationHandler {
	return &NotificationHandler{db: store}
}

// List returns the user's notifications, newest first, with the unread count.
func (h *NotificationHandler) List(c fiber.Ctx) error {
	user := currentUser(c)
	if user == nil {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	notifications, unread, err := h.db.ListNotifications(c.Context(), user.ID)
	if err != nil {
		return handleError(c, err, "failed to fetch notifications")
	}

	return jsonSuccess(c, fiber.Map{
		"notifications": notifications,
		"unread":        unread,
	})
}

// MarkRead flags one of the user's notifications as read.
func (h *NotificationHandler) MarkRead(c fiber.Ctx) error {
	user := currentUser(c)
	if user == nil {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	id, ok := paramID(c)
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid notification id")
	}

	// Scoped to the recipient; another user's id reads as not found.
	if err := h.db.MarkNotificationRead(c.Context(), id, user.ID); err != nil {
		return handleError(c, err, "failed to update notification")
	}
	return jsonSuccess(c, fiber.Map{"message": "notification marked as read"})
}

// MarkAllRead flags every notification of the user as read.
func (h *NotificationHandler) MarkAllRead(c fiber.Ctx) error {
	user := currentUser(c)
	if user == nil {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	n, err := h.db.MarkAllNotificationsRead(c.Context(), user.ID)
	if err != nil {
		return handleError(c, err, "failed to update notifications")
	}
	return jsonSuccess(c, fiber.Map{"updated": n})
}
