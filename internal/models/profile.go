package models

import (
	"time"

	"github.com/google/uuid"
)

// Role constants
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// ValidRoles lists the roles a profile may hold.
var ValidRoles = map[string]bool{
	RoleUser:      true,
	RoleModerator: true,
	RoleAdmin:     true,
}

// Profile represents a signed-in teacher. Profiles are never hard-deleted.
type Profile struct {
	ID                uuid.UUID `json:"id"`
	Sub               string    `json:"-"` // identity provider subject
	Email             string    `json:"email"`
	FullName          string    `json:"full_name"`
	Username          string    `json:"username"`
	Role              string    `json:"role"`
	AvatarURL         string    `json:"avatar_url"`
	School            string    `json:"school"`
	Specialization    string    `json:"specialization"`
	YearsOfExperience *int      `json:"years_of_experience"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// IsAdmin returns true if the profile has the admin role.
func (p *Profile) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// IsModerator returns true if the profile can help review content.
func (p *Profile) IsModerator() bool {
	return p != nil && (p.Role == RoleModerator || p.Role == RoleAdmin)
}

// DisplayName returns the best human-readable name for the profile.
func (p *Profile) DisplayName() string {
	switch {
	case p.FullName != "":
		return p.FullName
	case p.Username != "":
		return p.Username
	default:
		return p.Email
	}
}

// ProfileUpdate holds the self-editable profile fields.
type ProfileUpdate struct {
	FullName          string `json:"full_name" validate:"max=200"`
	Username          string `json:"username" validate:"max=100"`
	AvatarURL         string `json:"avatar_url" validate:"omitempty,url,max=2000"`
	School            string `json:"school" validate:"max=200"`
	Specialization    string `json:"specialization" validate:"max=200"`
	YearsOfExperience *int   `json:"years_of_experience" validate:"omitempty,min=0,max=80"`
}

// UserStats tracks per-profile activity counters.
type UserStats struct {
	ID            uuid.UUID  `json:"id"`
	LastLogin     *time.Time `json:"last_login"`
	TotalContent  int        `json:"total_content"`
	TotalRequests int        `json:"total_requests"`
	CreatedAt     time.Time  `json:"created_at"`
}
