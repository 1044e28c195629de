package auth

import "github.com/mrlokans/authgate/internal/entities"

// Principal is an authenticated identity, whichever way it was established.
type Principal struct {
	ID   string            `json:"id"`
	Role entities.UserRole `json:"role"`
}

// RequireAuthenticated fails with ErrAuthRequired when there is no identity.
func RequireAuthenticated(p *Principal) error {
	if p == nil || p.ID == "" {
		return ErrAuthRequired
	}
	return nil
}

// RequireRole fails unless the principal holds exactly the given role.
// There is no role hierarchy.
func RequireRole(p *Principal, role entities.UserRole) error {
	if err := RequireAuthenticated(p); err != nil {
		return err
	}
	if p.Role != role {
		return ErrForbidden
	}
	return nil
}
