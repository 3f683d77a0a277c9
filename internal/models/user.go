package models

import (
	"time"

	"github.com/lib/pq"
)

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleDean    UserRole = "DEAN"
	RoleTeacher UserRole = "TEACHER"
	RoleStudent UserRole = "STUDENT"
)

// User represents an application user stored in the users table.
//
// Older records carry a single value in the legacy role column; newer records
// carry a multi-value roles array. When roles is non-empty it is authoritative
// and the legacy column is ignored. All role queries go through RoleSet so the
// rest of the codebase never branches on which shape was stored.
type User struct {
	ID           string         `db:"id" json:"id"`
	Email        string         `db:"email" json:"email"`
	FullName     string         `db:"full_name" json:"full_name"`
	Role         UserRole       `db:"role" json:"role,omitempty"`
	Roles        pq.StringArray `db:"roles" json:"roles,omitempty"`
	PrimaryRole  UserRole       `db:"primary_role" json:"primary_role,omitempty"`
	DepartmentID *string        `db:"department_id" json:"department_id,omitempty"`
	SectionID    *string        `db:"section_id" json:"section_id,omitempty"`
	Active       bool           `db:"active" json:"active"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// RoleSet returns the normalized, non-empty role set for the user. The
// multi-value roles array wins over the legacy single role when present.
func (u *User) RoleSet() []UserRole {
	if u == nil {
		return nil
	}
	if len(u.Roles) > 0 {
		set := make([]UserRole, 0, len(u.Roles))
		for _, r := range u.Roles {
			if r != "" {
				set = append(set, UserRole(r))
			}
		}
		return set
	}
	if u.Role != "" {
		return []UserRole{u.Role}
	}
	return nil
}

// HasRole reports whether the user holds the given role.
func (u *User) HasRole(role UserRole) bool {
	for _, r := range u.RoleSet() {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the user holds at least one of the given roles.
func (u *User) HasAnyRole(roles ...UserRole) bool {
	for _, role := range roles {
		if u.HasRole(role) {
			return true
		}
	}
	return false
}

// HasAllRoles reports whether the user holds every one of the given roles.
func (u *User) HasAllRoles(roles ...UserRole) bool {
	for _, role := range roles {
		if !u.HasRole(role) {
			return false
		}
	}
	return true
}

// EffectivePrimaryRole resolves the user's primary role: the explicit
// primary_role column when set, else the first entry of the role set, else
// empty.
func (u *User) EffectivePrimaryRole() UserRole {
	if u == nil {
		return ""
	}
	if u.PrimaryRole != "" {
		return u.PrimaryRole
	}
	if set := u.RoleSet(); len(set) > 0 {
		return set[0]
	}
	return ""
}

// UserRef carries display data for a user in joined listings.
type UserRef struct {
	ID       string `db:"id" json:"id"`
	FullName string `db:"full_name" json:"full_name"`
	Email    string `db:"email" json:"email"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
