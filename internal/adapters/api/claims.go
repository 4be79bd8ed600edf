package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/waselni/waselni-cli/internal/domain"
)

// TokenClaims is what the CLI can read from a backend token without the
// signing key. It is for display only and never trusted for authorization.
type TokenClaims struct {
	Subject   string
	Role      domain.Role
	Type      string
	ExpiresAt time.Time
}

type backendClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
	Type string `json:"type,omitempty"`
}

func ParseClaims(token string) (TokenClaims, error) {
	if token == "" {
		return TokenClaims{}, errors.New("token is empty")
	}

	var claims backendClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return TokenClaims{}, fmt.Errorf("parse token claims: %w", err)
	}

	result := TokenClaims{
		Subject: claims.Subject,
		Role:    domain.Role(claims.Role),
		Type:    claims.Type,
	}
	if claims.ExpiresAt != nil {
		result.ExpiresAt = claims.ExpiresAt.Time
	}
	return result, nil
}

// Expired reports whether the token carries an expiry that is before now.
func (c TokenClaims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}
