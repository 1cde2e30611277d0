// internal/domain/models/roles.go
package models

import "strings"

// Role is the closed set of club roles. The same value drives both display
// (team page) and authorization (capability table in system/authz).
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleNodalOfficer Role = "nodal_officer"
	RoleCEO          Role = "ceo"
	RoleLead         Role = "lead"
	RoleCoLead       Role = "co_lead"
	RoleCoordinator  Role = "coordinator"
	RoleMember       Role = "member"
)

// AllRoles lists every valid role, in display order.
var AllRoles = []Role{
	RoleAdmin,
	RoleNodalOfficer,
	RoleCEO,
	RoleLead,
	RoleCoLead,
	RoleCoordinator,
	RoleMember,
}

// ParseRole normalizes a raw string to a Role. ok is false for anything
// outside the closed set.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	for _, v := range AllRoles {
		if r == v {
			return v, true
		}
	}
	return "", false
}

// IsValidRole reports whether s names a role in the closed set.
func IsValidRole(s string) bool {
	_, ok := ParseRole(s)
	return ok
}
