package authz

import "context"

// Council identifies the single city council a non-admin user belongs to.
type Council struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Identity describes the authenticated principal as resolved from the
// session store. Exactly one role is assigned per user; Council is nil for
// admins and required for everyone else.
type Identity struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	Email               string   `json:"email"`
	Role                Role     `json:"role"`
	Council             *Council `json:"affiliatedCouncil,omitempty"`
	AvatarURL           string   `json:"avatarUrl,omitempty"`
	AcceptNotifications bool     `json:"acceptNotifications"`
}

// CouncilID returns the affiliated council id, or "" when absent.
func (id Identity) CouncilID() string {
	if id.Council == nil {
		return ""
	}
	return id.Council.ID
}

// IsAdmin reports whether the identity holds the global admin role.
func (id Identity) IsAdmin() bool {
	return id.Role == RoleAdmin
}

type identityContextKey struct{}

// ContextWithIdentity stores the resolved identity in context. The identity
// resolver is the only writer; guards and handlers read it.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the identity resolved for this request.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}
