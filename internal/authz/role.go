package authz

import (
	"fmt"
	"strings"
)

// Role is one of the closed set of privilege levels a user can hold.
type Role string

const (
	// RoleAdmin is global and not tied to any council.
	RoleAdmin Role = "ADMIN"
	// RolePresident chairs a single council.
	RolePresident Role = "PRESIDENT"
	// RoleSecretary manages sessions and matters for a single council.
	RoleSecretary Role = "SECRETARY"
	// RoleCouncilor is a voting member of a single council.
	RoleCouncilor Role = "COUNCILOR"
	// RoleAssistant supports council members with read access.
	RoleAssistant Role = "ASSISTANT"
)

// Roles returns every role in the closed enumeration.
func Roles() []Role {
	return []Role{RoleAdmin, RolePresident, RoleSecretary, RoleCouncilor, RoleAssistant}
}

// Valid reports whether r belongs to the closed enumeration.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RolePresident, RoleSecretary, RoleCouncilor, RoleAssistant:
		return true
	}
	return false
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// ParseRole converts a stored role value into a Role. Unknown values fail
// with ErrInvalidRole so that a contract breach with the identity issuer
// surfaces loudly instead of being treated as a silent deny.
func ParseRole(value string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(value)))
	if !role.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, value)
	}
	return role, nil
}
