package domain

import "strings"

const (
	RoleOwner    = "owner"
	RoleRenter   = "renter"
	RoleOperator = "operator"
)

// DefaultRoles is the role set every dashboard stream belongs to.
func DefaultRoles() []string {
	return []string{RoleOwner, RoleRenter, RoleOperator}
}

// NormalizeRole lowercases and trims a role name taken from a URL.
func NormalizeRole(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
