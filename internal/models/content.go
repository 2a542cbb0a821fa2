package models

import (
	"time"

	"github.com/google/uuid"
)

// Content type constants
const (
	TypeImage  = "image"
	TypeVideo  = "video"
	TypeFile   = "file"
	TypeTalent = "talent"
)

// ContentTypes lists every stored content type.
var ContentTypes = []string{TypeImage, TypeVideo, TypeFile, TypeTalent}

// IsValidContentType reports whether t is a stored content type.
func IsValidContentType(t string) bool {
	for _, ct := range ContentTypes {
		if ct == t {
			return true
		}
	}
	return false
}

// Content is a published educational asset.
type Content struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	URL         string     `json:"url"`
	Type        string     `json:"type"` // image, video, file, talent
	StageID     string     `json:"stage_id"`
	CategoryID  string     `json:"category_id"`
	CreatedBy   uuid.UUID  `json:"created_by"`
	RequestID   *uuid.UUID `json:"request_id,omitempty"` // set when promoted from a request
	CreatedAt   time.Time  `json:"created_at"`
}

// ContentFilter narrows a content listing. Empty fields match everything.
type ContentFilter struct {
	StageID    string
	CategoryID string
	Type       string
}

// Category is a row of the categories table.
type Category struct {
	ID          string    `json:"id"`
	StageID     string    `json:"stage_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}
