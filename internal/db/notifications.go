package db

import (
	"context"

	"github.com/google/uuid"

	"pecommunity/internal/models"
)

// CreateNotification inserts an in-app notification for one recipient.
func (d *DB) CreateNotification(ctx context.Context, n *models.Notification) error {
	return d.Pool.QueryRow(ctx, `
		INSERT INTO notifications (user_id, title, message, type)
		VALUES ($1, $2, $3, $4)
		RETURNING id, is_read, created_at
	`, n.UserID, n.Title, n.Message, n.Type).Scan(&n.ID, &n.IsRead, &n.CreatedAt)
}

// ListNotifications returns a user's notifications newest first, plus the unread count.
func (d *DB) ListNotifications(ctx context.Context, userID uuid.UUID) ([]models.Notification, int, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT id, user_id, title, message, type, is_read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	notifications := []models.Notification{}
	unread := 0
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, 0, err
		}
		if !n.IsRead {
			unread++
		}
		notifications = append(notifications, n)
	}
	return notifications, unread, rows.Err()
}

// MarkNotificationRead flags one notification as read. Only the recipient may do so.
func (d *DB) MarkNotificationRead(ctx context.Context, id, userID uuid.UUID) error {
	result, err := d.Pool.Exec(ctx, `
		UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// MarkAllNotificationsRead flags every notification of a user as read.
func (d *DB) MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	result, err := d.Pool.Exec(ctx, `
		UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE
	`, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
