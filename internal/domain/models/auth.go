package models

import "github.com/golang-jwt/jwt/v5"

// Claims is the JWT claim set accepted on /api routes.
type Claims struct {
	jwt.RegisteredClaims        // Standard JWT claims (sub, iss, aud, exp, iat, etc.)
	Email                string `json:"email,omitempty"`
	Role                 string `json:"role,omitempty"` // e.g. "authenticated" or "anon"
	SessionID            string `json:"session_id,omitempty"`
}

// GetUserID returns the user ID from the JWT subject claim.
func (c *Claims) GetUserID() string {
	return c.Subject
}
