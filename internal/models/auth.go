package models

import (
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims is the access token payload minted by the platform auth service.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}

// HasAnyRole reports whether the token carries one of roles. SUPERADMIN
// holds every role.
func (c *JWTClaims) HasAnyRole(roles ...UserRole) bool {
	if c == nil {
		return false
	}
	return c.Role == RoleSuperAdmin || slices.Contains(roles, c.Role)
}
