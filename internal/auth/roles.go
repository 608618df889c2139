package auth

import "go_netinv/internal/model"

// Permission is an operation class checked against a role
type Permission int

const (
	PermRead Permission = iota
	PermWrite           // create and update
	PermExecute         // commands, configurations, discovery
	PermDelete
)

func (p Permission) String() string {
	switch p {
	case PermRead:
		return "read"
	case PermWrite:
		return "write"
	case PermExecute:
		return "execute"
	case PermDelete:
		return "delete"
	}
	return "unknown"
}

// Allowed reports whether role may perform p.
// admin: everything; engineer: all but delete; viewer: read only.
func Allowed(role string, p Permission) bool {
	switch role {
	case model.RoleAdmin:
		return true
	case model.RoleEngineer:
		return p != PermDelete
	case model.RoleViewer:
		return p == PermRead
	}
	return false
}
