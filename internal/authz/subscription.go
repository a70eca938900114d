package authz

import (
	"context"
	"log/slog"
	"net/http"
)

// SubscriptionChecker reports whether the account behind a user id has a
// billing subscription in good standing.
type SubscriptionChecker interface {
	Check(ctx context.Context, userID string) (bool, error)
}

func (g Guard) gate(outcome string) {
	if g.Metrics != nil {
		g.Metrics.GateChecked(outcome)
	}
}

// RequireActiveSubscription layers the billing gate after a role guard.
// It must only be mounted inside a Require(...) group so that role
// authorization strictly precedes subscription gating.
//
// The check is advisory, not security critical: on transport errors or a
// non-OK response it fails open and lets the request through, so an
// unreachable billing service never locks users out. Admins skip the check
// entirely.
func (g Guard) RequireActiveSubscription(checker SubscriptionChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				redirect(w, r, LoginPath)
				return
			}
			if identity.IsAdmin() {
				next.ServeHTTP(w, r)
				return
			}
			checked, err := checker.Check(r.Context(), identity.ID)
			if err != nil {
				if g.Logger != nil {
					g.Logger.Warn("subscription gate: check failed, failing open",
						slog.String("user_id", identity.ID), slog.Any("error", err))
				}
				g.gate("failopen")
				next.ServeHTTP(w, r)
				return
			}
			if !checked {
				g.gate("redirected")
				redirect(w, r, UnpaidPath)
				return
			}
			g.gate("allowed")
			next.ServeHTTP(w, r)
		})
	}
}
