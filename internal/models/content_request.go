package models

import (
	"time"

	"github.com/google/uuid"
)

// Request status constants
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// IsValidStatus reports whether s is a known request status.
func IsValidStatus(s string) bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// ContentRequest is a user-submitted proposal for new Content.
// Status moves from pending to approved or rejected exactly once.
type ContentRequest struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	URL             string     `json:"url"`
	Type            string     `json:"type"`
	StageID         string     `json:"stage_id"`
	CategoryID      string     `json:"category_id"`
	Status          string     `json:"status"` // pending, approved, rejected
	UserID          uuid.UUID  `json:"user_id"`
	ReviewedBy      *uuid.UUID `json:"reviewed_by"`
	ReviewedAt      *time.Time `json:"reviewed_at"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`

	// Non-DB fields, populated via JOIN for display
	AuthorName  string `json:"author_name,omitempty"`
	AuthorEmail string `json:"author_email,omitempty"`
}

// IsPending returns true if the request still awaits review.
func (r *ContentRequest) IsPending() bool {
	return r.Status == StatusPending
}

// IsTerminal returns true once the request was approved or rejected.
func (r *ContentRequest) IsTerminal() bool {
	return r.Status == StatusApproved || r.Status == StatusRejected
}

// ToContent copies the request fields into a new Content owned by the requester.
func (r *ContentRequest) ToContent() *Content {
	id := r.ID
	return &Content{
		Title:       r.Title,
		Description: r.Description,
		URL:         r.URL,
		Type:        r.Type,
		StageID:     r.StageID,
		CategoryID:  r.CategoryID,
		CreatedBy:   r.UserID,
		RequestID:   &id,
	}
}

// RequestFilter narrows a request listing. Empty fields match everything.
type RequestFilter struct {
	Status string
	UserID *uuid.UUID
}
