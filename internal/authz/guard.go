package authz

import (
	"log/slog"
	"net/http"
)

// GuardMetrics counts guard and gate outcomes. Satisfied by the
// observability metrics; nil disables counting.
type GuardMetrics interface {
	GuardDenied(reason string)
	GateChecked(outcome string)
}

// Guard wires role based route protection for HTTP handlers. Authorization
// is strict and fails closed: any doubt about the identity ends in a
// redirect, never in rendering the protected handler.
type Guard struct {
	Logger  *slog.Logger
	Metrics GuardMetrics
}

func (g Guard) denied(reason string) {
	if g.Metrics != nil {
		g.Metrics.GuardDenied(reason)
	}
}

// Require ensures the resolved identity holds one of the allowed roles.
// Unauthorized requests receive exactly one 303 redirect to the identity's
// landing path and the protected handler never runs. Unauthenticated
// requests are sent to the login page.
func (g Guard) Require(roles ...Role) func(http.Handler) http.Handler {
	allowed := make(map[Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				g.denied("unauthenticated")
				redirect(w, r, LoginPath)
				return
			}
			if !identity.Role.Valid() {
				// Contract breach with the identity issuer. Fail loudly.
				if g.Logger != nil {
					g.Logger.Error("guard: invalid role", slog.String("role", string(identity.Role)), slog.String("user_id", identity.ID))
				}
				g.denied("invalid_role")
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if _, ok := allowed[identity.Role]; ok {
				next.ServeHTTP(w, r)
				return
			}
			g.denied("role")
			path, err := LandingPath(identity.Role, identity.CouncilID())
			if err != nil {
				// A non-admin without a council has no landing page. Send
				// them to the dedicated support screen instead of looping.
				if g.Logger != nil {
					g.Logger.Warn("guard: no landing path", slog.String("user_id", identity.ID), slog.Any("error", err))
				}
				redirect(w, r, UnaffiliatedPath)
				return
			}
			redirect(w, r, path)
		})
	}
}

// RequireAdmin is shorthand for Require(RoleAdmin).
func (g Guard) RequireAdmin() func(http.Handler) http.Handler {
	return g.Require(RoleAdmin)
}

// RequireAuthenticated only demands a resolved identity, any role.
func (g Guard) RequireAuthenticated() func(http.Handler) http.Handler {
	return g.Require(Roles()...)
}

// redirect forces a client-side navigation with replace semantics: 303 plus
// Cache-Control so the denied URL never lands in history caches.
func redirect(w http.ResponseWriter, r *http.Request, path string) {
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, path, http.StatusSeeOther)
}
