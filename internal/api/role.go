package api

import "strings"

// Role is a user's access level.
type Role int

const (
	RoleAnonymous Role = iota
	RoleEditor
	RoleAdmin
)

// ParseRole maps the backend's access string to a Role. Unknown values
// are Anonymous.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "editor":
		return RoleEditor
	case "admin":
		return RoleAdmin
	default:
		return RoleAnonymous
	}
}

// CanEdit reports whether the role may create and delete annotations.
func (r Role) CanEdit() bool {
	return r == RoleEditor || r == RoleAdmin
}

func (r Role) String() string {
	switch r {
	case RoleEditor:
		return "editor"
	case RoleAdmin:
		return "admin"
	default:
		return "anonymous"
	}
}
