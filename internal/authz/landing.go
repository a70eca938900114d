package authz

import "fmt"

// Canonical paths used by the guard when it forces a navigation.
const (
	// LoginPath receives unauthenticated users.
	LoginPath = "/auth/login"
	// CouncilsPath is the global councils list, the admin landing page.
	CouncilsPath = "/councils"
	// UnaffiliatedPath is the support screen for non-admin accounts that
	// have no affiliated council and therefore no valid landing page.
	UnaffiliatedPath = "/account/unaffiliated"
	// UnpaidPath starts the billing recovery flow.
	UnpaidPath = "/billing/unpaid"
)

// LandingPath computes the canonical landing path for a role. It is used
// both for the post-login redirect and as the fallback destination when a
// guard denies access, so it must stay deterministic and free of I/O.
//
// Admins land on the global councils list regardless of any council id.
// Every other role lands on its council's sessions list; a missing council
// id fails with ErrMissingAffiliation instead of producing a malformed path.
func LandingPath(role Role, councilID string) (string, error) {
	if !role.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	if role == RoleAdmin {
		return CouncilsPath, nil
	}
	if councilID == "" {
		return "", ErrMissingAffiliation
	}
	return fmt.Sprintf("%s/%s/sessions", CouncilsPath, councilID), nil
}
