package auth

import (
	"github.com/tiendatttt234/GoGo-Be/internal/domain"
	apperrors "github.com/tiendatttt234/GoGo-Be/pkg/errors"
)

// RequireOwnerOrRole allows p to act on rec when p created rec, or when
// override is set and p carries it. Pass domain.RoleNone for owner-only
// operations such as editing, so admins cannot rewrite other users' words.
func RequireOwnerOrRole(p domain.Principal, rec domain.Owned, override domain.Role) error {
	if p.ID != "" && p.ID == rec.OwnerID() {
		return nil
	}
	if override != domain.RoleNone && p.Role == override {
		return nil
	}
	if override == domain.RoleNone {
		return apperrors.Forbidden("you can only modify your own content")
	}
	return apperrors.Forbidden("you do not have permission to modify this content")
}
