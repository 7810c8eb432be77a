package domain

// Principal is the identity attached to a request after its token has been
// verified. It lives for one request and is never persisted.
type Principal struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// IsAdmin reports whether the principal carries the administrator role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Owned is implemented by records that have a single creating user.
type Owned interface {
	OwnerID() string
}
