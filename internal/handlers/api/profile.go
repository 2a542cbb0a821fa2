package api

import (
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"pecommunity/internal/models"
	"pecommunity/internal/validation"
)

// ProfileStore is the profile persistence used by ProfileHandler.
type ProfileStore interface {
	UpdateProfile(ctx context.Context, id uuid.UUID, upd *models.ProfileUpdate) (*models.Profile, error)
	UpdateProfileRole(ctx context.Context, id uuid.UUID, role string) error
	ListProfiles(ctx context.Context) ([]models.Profile, error)
	GetUserStats(ctx context.Context, id uuid.UUID) (*models.UserStats, error)
}

// ProfileHandler handles the current user's profile and admin user management.
type ProfileHandler struct {
	db ProfileStore
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(store ProfileStore) *ProfileHandler {
	return &ProfileHandler{db: store}
}

// Me returns the current profile. is_admin is a UI hint; every admin route
// enforces the role on the server.
func (h *ProfileHandler) Me(c fiber.Ctx) error {
	user := currentUser(c)
	if user == nil {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	stats, err := h.db.GetUserStats(c.Context(), user.ID)
	if err != nil {
		return handleError(c, err, "failed to fetch profile stats")
	}

	return jsonSuccess(c, fiber.Map{
		"profile":  user,
		"is_admin": user.IsAdmin(),
		"stats":    stats,
	})
}

// UpdateMe updates the current user's editable profile fields.
func (h *ProfileHandler) UpdateMe(c fiber.Ctx) error {
	user := currentUser(c)
	if user == nil {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var upd models.ProfileUpdate
	if err := json.Unmarshal(c.Body(), &upd); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := validation.Struct(&upd); err != nil {
		return handleError(c, err, "invalid profile")
	}

	profile, err := h.db.UpdateProfile(c.Context(), user.ID, &upd)
	if err != nil {
		return handleError(c, err, "failed to update profile")
	}
	return jsonSuccess(c, profile)
}

// ListUsers returns all profiles, newest first (admin only).
func (h *ProfileHandler) ListUsers(c fiber.Ctx) error {
	profiles, err := h.db.ListProfiles(c.Context())
	if err != nil {
		return handleError(c, err, "failed to fetch users")
	}
	return jsonSuccess(c, profiles)
}

// UpdateRole changes a profile's role (admin only).
func (h *ProfileHandler) UpdateRole(c fiber.Ctx) error {
	currentUser := currentUser(c)

	userID, ok := paramID(c)
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid user id")
	}

	var body struct {
		Role string `json:"role"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if body.Role == "" {
		return jsonError(c, fiber.StatusBadRequest, "role is required")
	}
	if !models.ValidRoles[body.Role] {
		return jsonError(c, fiber.StatusBadRequest, "invalid role")
	}

	if currentUser != nil && userID == currentUser.ID && body.Role != models.RoleAdmin {
		return jsonError(c, fiber.StatusBadRequest, "cannot change your own role")
	}

	if err := h.db.UpdateProfileRole(c.Context(), userID, body.Role); err != nil {
		return handleError(c, err, "failed to update role")
	}

	return jsonSuccess(c, fiber.Map{
		"message": "role updated successfully",
	})
}
