package domain

import (
	"time"
)

// Membership links a user to an organization with a role. A user holds at
// most one membership at a time; assigning a new one replaces the old,
// whatever org it pointed to.
type Membership struct {
	ID        string
	UserID    string
	OrgID     string
	Role      Role
	CreatedAt time.Time
}

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// RoleFromAdminFlag maps the wire-level is_admin flag onto a Role.
func RoleFromAdminFlag(isAdmin bool) Role {
	if isAdmin {
		return RoleAdmin
	}
	return RoleMember
}
