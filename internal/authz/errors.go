package authz

import "errors"

var (
	// ErrInvalidRole indicates a role value outside the closed enumeration.
	ErrInvalidRole = errors.New("authz: invalid role")
	// ErrMissingAffiliation indicates a non-admin identity without a council.
	ErrMissingAffiliation = errors.New("authz: identity has no affiliated council")
)
