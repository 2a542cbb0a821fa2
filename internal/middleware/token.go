package middleware

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenInvalid  = errors.New("invalid token")
	ErrTokenDisabled = errors.New("bearer tokens are not configured")
)

// Claims are the access-token claims issued by the hosted auth provider.
type Claims struct {
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	jwt.RegisteredClaims
}

// FullName returns the display name carried in the user metadata, if any.
func (c *Claims) FullName() string {
	for _, key := range []string{"full_name", "name"} {
		if v, ok := c.UserMetadata[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// TokenVerifier validates HS256 bearer tokens against a shared secret.
type TokenVerifier struct {
	secret   []byte
	audience string
}

// NewTokenVerifier returns a verifier, or nil when secret is empty.
func NewTokenVerifier(secret, audience string) *TokenVerifier {
	if secret == "" {
		return nil
	}
	return &TokenVerifier{secret: []byte(secret), audience: audience}
}

// Verify parses token and checks its signature, expiry and audience.
func (v *TokenVerifier) Verify(token string) (*Claims, error) {
	if v == nil {
		return nil, ErrTokenDisabled
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// Issue signs a token for sub. It is used by tests and local tooling.
func (v *TokenVerifier) Issue(sub, email string, ttl time.Duration) (string, error) {
	if v == nil {
		return "", ErrTokenDisabled
	}

	now := time.Now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if v.audience != "" {
		claims.Audience = jwt.ClaimStrings{v.audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
