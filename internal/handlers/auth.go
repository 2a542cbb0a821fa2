package handlers

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"log"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/session"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"pecommunity/internal/config"
	"pecommunity/internal/middleware"
	"pecommunity/internal/models"
)

// SubscriptionCloser ends a user's realtime subscriptions.
type SubscriptionCloser interface {
	CloseUser(userID uuid.UUID) int
}

// AuthHandler handles OIDC authentication flows.
type AuthHandler struct {
	provider     *oidc.Provider
	oauth2Config oauth2.Config
	verifier     *oidc.IDTokenVerifier
	auth         *middleware.AuthMiddleware
	streams      SubscriptionCloser
	cfg          *config.Config
}

// NewAuthHandler creates a new auth handler with OIDC configuration.
func NewAuthHandler(ctx context.Context, cfg *config.Config, auth *middleware.AuthMiddleware, streams SubscriptionCloser) (*AuthHandler, error) {
	provider, err := oidc.NewProvider(ctx, cfg.OIDCIssuer)
	if err != nil {
		return nil, err
	}

	oauth2Config := oauth2.Config{
		ClientID:     cfg.OIDCClientID,
		ClientSecret: cfg.OIDCClientSecret,
		RedirectURL:  cfg.OIDCRedirectURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}

	verifier := provider.Verifier(&oidc.Config{ClientID: cfg.OIDCClientID})

	return &AuthHandler{
		provider:     provider,
		oauth2Config: oauth2Config,
		verifier:     verifier,
		auth:         auth,
		streams:      streams,
		cfg:          cfg,
	}, nil
}

// Login initiates the OIDC login flow.
func (h *AuthHandler) Login(c fiber.Ctx) error {
	state := generateState()

	sess := session.FromContext(c)
	if sess == nil {
		return fiber.NewError(fiber.StatusInternalServerError, "session not available")
	}
	sess.Set("oauth_state", state)

	if redirect := c.Query("redirect", ""); isLocalPath(redirect) {
		sess.Set("redirect_after_login", redirect)
	}

	url := h.oauth2Config.AuthCodeURL(state)
	return c.Redirect().To(url)
}

// Callback handles the OIDC callback after authentication.
func (h *AuthHandler) Callback(c fiber.Ctx) error {
	sess := session.FromContext(c)
	if sess == nil {
		return fiber.NewError(fiber.StatusInternalServerError, "session not available")
	}

	// Verify state
	savedState, _ := sess.Get("oauth_state").(string)
	if savedState == "" || savedState != c.Query("state") {
		return fiber.NewError(fiber.StatusBadRequest, "invalid state")
	}
	sess.Delete("oauth_state")

	oauth2Token, err := h.oauth2Config.Exchange(c.Context(), c.Query("code"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "failed to exchange code")
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, "missing id_token")
	}

	idToken, err := h.verifier.Verify(c.Context(), rawIDToken)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id_token")
	}

	claimsMap := make(map[string]any)
	if err := idToken.Claims(&claimsMap); err != nil {
		return err
	}

	// Some providers only put email and name on the userinfo endpoint
	userInfo, err := h.provider.UserInfo(c.Context(), oauth2.StaticTokenSource(oauth2Token))
	if err == nil {
		var userInfoClaims map[string]any
		if err := userInfo.Claims(&userInfoClaims); err == nil {
			for k, v := range userInfoClaims {
				claimsMap[k] = v
			}
		}
	} else {
		log.Printf("Warning: Failed to fetch userinfo: %v", err)
	}

	if h.cfg.IsDev() {
		log.Printf("OIDC claims received: %v", claimsMap)
	}

	sub, _ := claimsMap["sub"].(string)
	email, _ := claimsMap["email"].(string)
	name, _ := claimsMap["name"].(string)
	picture, _ := claimsMap["picture"].(string)
	if sub == "" {
		return fiber.NewError(fiber.StatusBadRequest, "id_token has no subject")
	}

	profile := &models.Profile{
		Sub:       sub,
		Email:     email,
		FullName:  name,
		AvatarURL: picture,
	}
	if err := h.auth.SignIn(c.Context(), profile); err != nil {
		return err
	}

	sess.Set("user_sub", sub)

	redirectURL := "/"
	if savedRedirect, ok := sess.Get("redirect_after_login").(string); ok && savedRedirect != "" {
		redirectURL = savedRedirect
		sess.Delete("redirect_after_login")
	}

	return c.Redirect().To(redirectURL)
}

// Logout clears the session and closes the user's realtime streams.
// Mount it behind OptionalAuth so the profile is known.
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	if user := middleware.CurrentUser(c); user != nil && h.streams != nil {
		h.streams.CloseUser(user.ID)
	}

	sess := session.FromContext(c)
	if sess != nil {
		sess.Destroy()
	}
	return c.Redirect().To("/")
}

// isLocalPath accepts only same-site absolute paths as post-login targets.
func isLocalPath(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") && !strings.Contains(p, "\\")
}

func generateState() string {
	b := make([]byte, 16)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
