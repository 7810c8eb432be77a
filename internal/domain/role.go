package domain

import "fmt"

// Role is the closed set of roles a principal may carry.
type Role string

// Role constants define the allowed user roles.
const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// RoleNone means no role override applies.
const RoleNone Role = ""

// ValidRoles returns the set of valid user roles.
func ValidRoles() []Role {
	return []Role{RoleUser, RoleAdmin}
}

// IsValid reports whether r is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// ParseRole converts a raw role string into a Role. Unknown values are
// rejected rather than passed through.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return RoleNone, fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}
