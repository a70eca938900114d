package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/plenario/plenario/internal/authz"
	"github.com/plenario/plenario/internal/shared"
)

// IdentityResolver loads the identity behind the session once per request
// and injects it into the request context. It is the single writer of
// identity state; guards and handlers only read it.
type IdentityResolver struct {
	Service  *Service
	Sessions *shared.SessionManager
	Logger   *slog.Logger
}

// Middleware resolves the identity for the current session, if any. A
// failed lookup forces sign-out: the session is destroyed and the request
// proceeds unauthenticated, so the guard sends the user back to login.
func (ir *IdentityResolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil || sess.User() == "" {
			next.ServeHTTP(w, r)
			return
		}
		identity, err := ir.Service.IdentityByID(r.Context(), sess.User())
		if err != nil {
			if errors.Is(err, authz.ErrInvalidRole) {
				// Contract breach with the identity data, not a stale session.
				if ir.Logger != nil {
					ir.Logger.Error("identity resolution: invalid role", slog.String("user_id", sess.User()), slog.Any("error", err))
				}
				shared.RespondError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
				return
			}
			if ir.Logger != nil {
				ir.Logger.Warn("identity lookup failed, signing out", slog.String("user_id", sess.User()), slog.Any("error", err))
			}
			ir.Sessions.Destroy(sess)
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(authz.ContextWithIdentity(r.Context(), identity)))
	})
}
