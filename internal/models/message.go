package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification type constants
const (
	NotificationRequestSubmitted = "request_submitted"
	NotificationRequestApproved  = "request_approved"
	NotificationRequestRejected  = "request_rejected"
)

// Message is a contact-form message addressed to the admins.
type Message struct {
	ID         uuid.UUID  `json:"id"`
	FromUserID *uuid.UUID `json:"from_user_id"`
	Subject    string     `json:"subject"`
	Message    string     `json:"message"`
	IsRead     bool       `json:"is_read"`
	CreatedAt  time.Time  `json:"created_at"`

	// Populated via JOIN for the admin inbox
	FromUserEmail string `json:"from_user_email,omitempty"`
}

// Notification is an in-app notice for a single recipient.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// DashboardStats summarizes the portal for the admin dashboard.
type DashboardStats struct {
	TotalUsers      int64 `json:"total_users"`
	TotalContent    int64 `json:"total_content"`
	TotalRequests   int64 `json:"total_requests"`
	PendingRequests int64 `json:"pending_requests"`
	UnreadMessages  int64 `json:"unread_messages"`
}
