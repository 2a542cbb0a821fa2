// Package realtime fans out database change events to connected clients.
package realtime

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Tables that emit change events.
const (
	TableContent         = "content"
	TableContentRequests = "content_requests"
	TableNotifications   = "notifications"
)

// Change types.
const (
	TypeInsert = "INSERT"
	TypeUpdate = "UPDATE"
	TypeDelete = "DELETE"
)

// Event is a single row change. Clients de-duplicate by Table and ID.
type Event struct {
	Table  string          `json:"table"`
	Type   string          `json:"type"`
	ID     string          `json:"id"`
	Record json.RawMessage `json:"record"`

	// Recipient restricts notification events to one profile.
	Recipient *uuid.UUID `json:"recipient,omitempty"`
}

// NewEvent builds an event for row, encoding it as the event record.
func NewEvent(table, typ string, id uuid.UUID, row any) (Event, error) {
	record, err := json.Marshal(row)
	if err != nil {
		return Event{}, fmt.Errorf("failed to encode %s record: %w", table, err)
	}
	return Event{Table: table, Type: typ, ID: id.String(), Record: record}, nil
}

// Viewer identifies who is watching the feed.
type Viewer struct {
	UserID uuid.UUID
	Admin  bool
}

// VisibleTo reports whether v may see e. Published content is public,
// notifications go only to their recipient and content requests only to admins.
func (e Event) VisibleTo(v Viewer) bool {
	switch e.Table {
	case TableContent:
		return true
	case TableNotifications:
		return e.Recipient != nil && *e.Recipient == v.UserID
	case TableContentRequests:
		return v.Admin
	default:
		return false
	}
}
