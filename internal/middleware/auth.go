package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/session"
	"github.com/google/uuid"

	"pecommunity/internal/db"
	"pecommunity/internal/models"
)

// ProfileStore is the profile persistence used for authentication.
type ProfileStore interface {
	UpsertProfile(ctx context.Context, p *models.Profile) error
	GetProfileBySub(ctx context.Context, sub string) (*models.Profile, error)
	RecordLogin(ctx context.Context, id uuid.UUID) error
}

// AuthMiddleware resolves the caller from the session cookie or a bearer token.
type AuthMiddleware struct {
	db      ProfileStore
	tokens  *TokenVerifier
	isAdmin func(email string) bool
}

// NewAuthMiddleware creates a new auth middleware instance. tokens may be nil
// to accept session cookies only; isAdmin may be nil to disable promotion.
func NewAuthMiddleware(store ProfileStore, tokens *TokenVerifier, isAdmin func(email string) bool) *AuthMiddleware {
	if isAdmin == nil {
		isAdmin = func(string) bool { return false }
	}
	return &AuthMiddleware{db: store, tokens: tokens, isAdmin: isAdmin}
}

// SignIn upserts the profile for a fresh sign-in, promoting it to admin when
// its email is on the bootstrap list, and records the login time.
func (m *AuthMiddleware) SignIn(ctx context.Context, p *models.Profile) error {
	if m.isAdmin(p.Email) {
		p.Role = models.RoleAdmin
	}
	if err := m.db.UpsertProfile(ctx, p); err != nil {
		return err
	}
	if err := m.db.RecordLogin(ctx, p.ID); err != nil {
		slog.Warn("failed to record login", "profile_id", p.ID, "error", err)
	}
	return nil
}

// RequireAuth ensures the caller is authenticated, responding 401 if not.
func (m *AuthMiddleware) RequireAuth(c fiber.Ctx) error {
	user, err := m.resolve(c)
	if err != nil || user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"status": "error",
			"error":  "authentication required",
		})
	}

	c.Locals("user", user)
	return c.Next()
}

// OptionalAuth loads the user if authenticated, but doesn't require authentication.
func (m *AuthMiddleware) OptionalAuth(c fiber.Ctx) error {
	if user, err := m.resolve(c); err == nil && user != nil {
		c.Locals("user", user)
	}
	return c.Next()
}

// RequireAdmin must run after RequireAuth. It responds 403 unless the
// profile's role is admin.
func (m *AuthMiddleware) RequireAdmin(c fiber.Ctx) error {
	user, _ := c.Locals("user").(*models.Profile)
	if !user.IsAdmin() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"status": "error",
			"error":  "admin role required",
		})
	}
	return c.Next()
}

// CurrentUser returns the profile stored by RequireAuth or OptionalAuth.
func CurrentUser(c fiber.Ctx) *models.Profile {
	user, _ := c.Locals("user").(*models.Profile)
	return user
}

// resolve prefers a bearer token over the session cookie.
func (m *AuthMiddleware) resolve(c fiber.Ctx) (*models.Profile, error) {
	if token, ok := bearerToken(c.Get(fiber.HeaderAuthorization)); ok {
		return m.fromToken(c.Context(), token)
	}

	sess := session.FromContext(c)
	if sess == nil {
		return nil, nil
	}
	userSub, _ := sess.Get("user_sub").(string)
	if userSub == "" {
		return nil, nil
	}

	user, err := m.db.GetProfileBySub(c.Context(), userSub)
	if err != nil {
		sess.Destroy()
		return nil, err
	}
	return user, nil
}

// fromToken verifies token and loads its profile, creating it on first use.
func (m *AuthMiddleware) fromToken(ctx context.Context, token string) (*models.Profile, error) {
	claims, err := m.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	user, err := m.db.GetProfileBySub(ctx, claims.Subject)
	switch {
	case errors.Is(err, db.ErrProfileNotFound):
		user = &models.Profile{Sub: claims.Subject, Email: claims.Email, FullName: claims.FullName()}
		if err := m.SignIn(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	case err != nil:
		return nil, err
	}

	if !user.IsAdmin() && m.isAdmin(user.Email) {
		if err := m.SignIn(ctx, user); err != nil {
			return nil, err
		}
	}
	return user, nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
