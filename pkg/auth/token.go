package auth

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenClaims is the subset of the backend-issued JWT the storefront reads.
type AccessTokenClaims struct {
	CustomerID json.Number `json:"customer_id,omitempty"`
	jwt.RegisteredClaims
}

// ParseAccessToken decodes the JWT without verifying its signature.
// The backend owns issuance and verification; the storefront only needs the claims.
func ParseAccessToken(tokenString string) (*AccessTokenClaims, error) {
	tokenString = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(tokenString), "Bearer "))
	if tokenString == "" {
		return nil, fmt.Errorf("token is required")
	}

	claims := &AccessTokenClaims{}
	parser := jwt.NewParser(jwt.WithJSONNumber())
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("parsing access token: %w", err)
	}
	return claims, nil
}

// Customer resolves the numeric customer id from customer_id, falling back to sub.
func (c *AccessTokenClaims) Customer() (int64, bool) {
	if c == nil {
		return 0, false
	}
	if id, err := c.CustomerID.Int64(); err == nil && id > 0 {
		return id, true
	}
	if id, err := strconv.ParseInt(strings.TrimSpace(c.Subject), 10, 64); err == nil && id > 0 {
		return id, true
	}
	return 0, false
}

// Expired reports whether exp is set and lies before now.
func (c *AccessTokenClaims) Expired(now time.Time) bool {
	if c == nil || c.ExpiresAt == nil {
		return false
	}
	return !c.ExpiresAt.After(now)
}

// TTL returns how long the token stays valid, capped at max. Zero means expired.
func (c *AccessTokenClaims) TTL(now time.Time, max time.Duration) time.Duration {
	if c == nil || c.ExpiresAt == nil {
		return max
	}
	remaining := c.ExpiresAt.Sub(now)
	if remaining <= 0 {
		return 0
	}
	if max > 0 && remaining > max {
		return max
	}
	return remaining
}
