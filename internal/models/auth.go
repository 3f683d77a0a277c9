package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the bearer credential supplied by the external session
// provider: a user identity plus role set. Tokens minted against the legacy
// single-role shape carry role; newer tokens carry roles. RoleSet mirrors the
// normalization applied to stored users.
type JWTClaims struct {
	UserID   string     `json:"user_id"`
	Role     UserRole   `json:"role,omitempty"`
	Roles    []UserRole `json:"roles,omitempty"`
	Email    string     `json:"email"`
	FullName string     `json:"full_name"`
	jwt.RegisteredClaims
}

// RoleSet returns the normalized role set carried by the token.
func (c *JWTClaims) RoleSet() []UserRole {
	if c == nil {
		return nil
	}
	if len(c.Roles) > 0 {
		return c.Roles
	}
	if c.Role != "" {
		return []UserRole{c.Role}
	}
	return nil
}

// HasRole reports whether the token carries the given role.
func (c *JWTClaims) HasRole(role UserRole) bool {
	for _, r := range c.RoleSet() {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the token carries at least one of the roles.
func (c *JWTClaims) HasAnyRole(roles ...UserRole) bool {
	for _, role := range roles {
		if c.HasRole(role) {
			return true
		}
	}
	return false
}
