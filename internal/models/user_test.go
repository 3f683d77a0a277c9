package models

import (
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestRoleSetLegacySingleRole(t *testing.T) {
	u := &User{Role: RoleTeacher}
	assert.Equal(t, []UserRole{RoleTeacher}, u.RoleSet())
}

func TestRoleSetArrayWinsOverLegacy(t *testing.T) {
	// A record migrated to the array shape keeps its stale legacy column;
	// the array is authoritative.
	u := &User{Role: RoleStudent, Roles: pq.StringArray{"TEACHER", "DEAN"}}
	assert.Equal(t, []UserRole{RoleTeacher, RoleDean}, u.RoleSet())
	assert.False(t, u.HasRole(RoleStudent))
}

func TestRoleSetSkipsEmptyEntries(t *testing.T) {
	u := &User{Roles: pq.StringArray{"", "ADMIN", ""}}
	assert.Equal(t, []UserRole{RoleAdmin}, u.RoleSet())
}

func TestRoleSetEmptyUser(t *testing.T) {
	u := &User{}
	assert.Nil(t, u.RoleSet())
	assert.False(t, u.HasRole(RoleAdmin))

	var nilUser *User
	assert.Nil(t, nilUser.RoleSet())
}

func TestHasAnyRole(t *testing.T) {
	u := &User{Roles: pq.StringArray{"TEACHER"}}
	assert.True(t, u.HasAnyRole(RoleAdmin, RoleTeacher))
	assert.False(t, u.HasAnyRole(RoleAdmin, RoleDean))
}

func TestHasAllRoles(t *testing.T) {
	u := &User{Roles: pq.StringArray{"TEACHER", "DEAN"}}
	assert.True(t, u.HasAllRoles(RoleTeacher, RoleDean))
	assert.False(t, u.HasAllRoles(RoleTeacher, RoleAdmin))
}

func TestEffectivePrimaryRole(t *testing.T) {
	explicit := &User{PrimaryRole: RoleDean, Roles: pq.StringArray{"TEACHER", "DEAN"}}
	assert.Equal(t, RoleDean, explicit.EffectivePrimaryRole())

	firstOfSet := &User{Roles: pq.StringArray{"TEACHER", "DEAN"}}
	assert.Equal(t, RoleTeacher, firstOfSet.EffectivePrimaryRole())

	legacy := &User{Role: RoleStudent}
	assert.Equal(t, RoleStudent, legacy.EffectivePrimaryRole())

	empty := &User{}
	assert.Equal(t, UserRole(""), empty.EffectivePrimaryRole())
}

func TestJWTClaimsRoleSet(t *testing.T) {
	legacy := &JWTClaims{Role: RoleTeacher}
	assert.Equal(t, []UserRole{RoleTeacher}, legacy.RoleSet())

	multi := &JWTClaims{Role: RoleStudent, Roles: []UserRole{RoleDean}}
	assert.Equal(t, []UserRole{RoleDean}, multi.RoleSet())
	assert.True(t, multi.HasAnyRole(RoleAdmin, RoleDean))
	assert.False(t, multi.HasRole(RoleStudent))
}
