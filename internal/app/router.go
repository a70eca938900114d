package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/plenario/plenario/internal/auth"
	"github.com/plenario/plenario/internal/authz"
	"github.com/plenario/plenario/internal/billing"
	"github.com/plenario/plenario/internal/councils"
	"github.com/plenario/plenario/internal/matters"
	"github.com/plenario/plenario/internal/notifications"
	"github.com/plenario/plenario/internal/observability"
	"github.com/plenario/plenario/internal/sessions"
	"github.com/plenario/plenario/internal/shared"
	"github.com/plenario/plenario/internal/users"
	"github.com/plenario/plenario/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Guard          authz.Guard
	Identity       *auth.IdentityResolver
	Checker        authz.SubscriptionChecker
	Processor      *billing.ProcessorClient

	AuthHandler          *auth.Handler
	UsersHandler         *users.Handler
	CouncilsHandler      *councils.Handler
	SessionsHandler      *sessions.Handler
	MattersHandler       *matters.Handler
	BillingHandler       *billing.Handler
	NotificationsHandler *notifications.Handler
	JobHandler           *jobs.Handler
	Metrics              *observability.Metrics
}

// NewRouter constructs the chi.Router with Plenario defaults. Route layout
// mirrors the console's navigation: /councils is the admin home, the
// council-scoped subtrees carry the member guard plus the subscription gate.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)
	r.Use(params.Identity.Middleware)

	guard := params.Guard

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	// Readiness covers the payment processor: the gate fails open when the
	// processor is down, so operators want to see the degradation here
	// rather than in the request path.
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if params.Processor != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := params.Processor.Ping(ctx); err != nil {
				params.Logger.Warn("readiness: payment processor unreachable", slog.Any("error", err))
				shared.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
				return
			}
		}
		shared.RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	r.Route("/auth", params.AuthHandler.MountRoutes)

	// Support screen for signed-in users without a council affiliation.
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAuthenticated())
		r.Get(authz.UnaffiliatedPath, func(w http.ResponseWriter, r *http.Request) {
			shared.RespondJSON(w, http.StatusOK, map[string]string{
				"message": "Your account is not affiliated with a council yet. Ask an administrator to assign you.",
			})
		})
	})

	r.Route("/users", func(r chi.Router) {
		// Identity refresh used by the console after authentication. The
		// record it returns is the caller-facing identity, so it stays
		// behind the guard like every other user read.
		r.Group(func(r chi.Router) {
			r.Use(guard.RequireAuthenticated())
			r.Post("/by-email", params.AuthHandler.HandleLookupByEmail)
		})
		params.UsersHandler.MountRoutes(r)
	})

	r.Route("/councils", func(r chi.Router) {
		params.CouncilsHandler.MountRoutes(r)

		// Council-scoped application area: members only, behind the
		// subscription gate. The gate is mounted after the role guard so
		// it never runs for requests the guard already turned away.
		r.Group(func(r chi.Router) {
			r.Use(guard.Require(authz.RolePresident, authz.RoleSecretary, authz.RoleCouncilor, authz.RoleAssistant, authz.RoleAdmin))
			r.Use(guard.RequireActiveSubscription(params.Checker))
			r.Route("/{councilID}/sessions", params.SessionsHandler.MountRoutes)
			r.Route("/{councilID}/matters", params.MattersHandler.MountRoutes)
		})
	})

	r.Route("/billing", func(r chi.Router) {
		r.Use(guard.RequireAuthenticated())
		params.BillingHandler.MountRoutes(r, guard.RequireAdmin())
	})
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAuthenticated())
		r.Get("/subscription/check-sub/{userID}", params.BillingHandler.HandleCheck)
	})

	r.Route("/notifications", func(r chi.Router) {
		r.Use(guard.RequireAuthenticated())
		params.NotificationsHandler.MountRoutes(r)
	})

	if params.JobHandler != nil {
		r.Route("/jobs", func(r chi.Router) {
			r.Use(guard.RequireAdmin())
			params.JobHandler.MountRoutes(r)
		})
	}

	return r
}
