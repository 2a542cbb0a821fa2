package db

import (
	"context"

	"github.com/google/uuid"

	"pecommunity/internal/models"
)

// CreateMessage stores a contact-form message. FromUserID may be nil for anonymous senders.
func (d *DB) CreateMessage(ctx context.Context, m *models.Message) error {
	return d.Pool.QueryRow(ctx, `
		INSERT INTO messages (from_user_id, subject, message)
		VALUES ($1, $2, $3)
		RETURNING id, is_read, created_at
	`, m.FromUserID, m.Subject, m.Message).Scan(&m.ID, &m.IsRead, &m.CreatedAt)
}

// ListMessages returns all messages with sender email, newest first.
func (d *DB) ListMessages(ctx context.Context) ([]models.Message, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT m.id, m.from_user_id, m.subject, m.message, m.is_read, m.created_at, COALESCE(p.email, '')
		FROM messages m
		LEFT JOIN profiles p ON p.id = m.from_user_id
		ORDER BY m.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.FromUserID, &m.Subject, &m.Message, &m.IsRead, &m.CreatedAt, &m.FromUserEmail); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// MarkMessageRead flags a message as read.
func (d *DB) MarkMessageRead(ctx context.Context, id uuid.UUID) error {
	result, err := d.Pool.Exec(ctx, `UPDATE messages SET is_read = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrMessageNotFound
	}
	return nil
}
