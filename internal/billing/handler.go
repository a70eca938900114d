package billing

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/plenario/plenario/internal/authz"
	"github.com/plenario/plenario/internal/shared"
)

// Handler manages billing endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers billing routes. The admin group expects the admin
// guard applied by the caller.
func (h *Handler) MountRoutes(r chi.Router, adminGuard func(http.Handler) http.Handler) {
	r.Get("/plans", h.listPlans)
	r.Get("/unpaid", h.unpaid)
	r.Get("/councils/{councilID}", h.councilSubscription)
	r.Group(func(admin chi.Router) {
		admin.Use(adminGuard)
		admin.Post("/plans", h.createPlan)
		admin.Put("/plans/{planID}", h.updatePlan)
	})
}

// HandleCheck serves the subscription probe used by the gate and by the
// console. The body is always {"checked": bool}.
func (h *Handler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	checked, err := h.service.Check(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		shared.RespondServiceError(w, h.logger, "check subscription", err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, map[string]bool{"checked": checked})
}

// unpaid backs the screen members land on when their council stops paying.
func (h *Handler) unpaid(w http.ResponseWriter, r *http.Request) {
	identity, _ := authz.IdentityFromContext(r.Context())
	plans, err := h.service.ListPlans(r.Context(), identity)
	if err != nil {
		shared.RespondServiceError(w, h.logger, "list plans", err)
		return
	}
	if plans == nil {
		plans = []Plan{}
	}
	shared.RespondJSON(w, http.StatusOK, map[string]any{
		"message": "This council's subscription is not active. Contact your administrator to restore access.",
		"plans":   plans,
	})
}

func (h *Handler) councilSubscription(w http.ResponseWriter, r *http.Request) {
	identity, _ := authz.IdentityFromContext(r.Context())
	sub, err := h.service.CouncilSubscription(r.Context(), identity, chi.URLParam(r, "councilID"))
	if err != nil {
		shared.RespondServiceError(w, h.logger, "get council subscription", err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, sub)
}

func (h *Handler) listPlans(w http.ResponseWriter, r *http.Request) {
	identity, _ := authz.IdentityFromContext(r.Context())
	plans, err := h.service.ListPlans(r.Context(), identity)
	if err != nil {
		shared.RespondServiceError(w, h.logger, "list plans", err)
		return
	}
	if plans == nil {
		plans = []Plan{}
	}
	shared.RespondJSON(w, http.StatusOK, map[string][]Plan{"plans": plans})
}

type planRequest struct {
	Name       string `json:"name" validate:"required"`
	PriceCents int    `json:"priceCents" validate:"gte=0"`
	MaxUsers   int    `json:"maxUsers" validate:"gt=0"`
	Active     bool   `json:"active"`
}

func (h *Handler) createPlan(w http.ResponseWriter, r *http.Request) {
	identity, _ := authz.IdentityFromContext(r.Context())
	var req planRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondError(w, http.StatusBadRequest, "Malformed request body.")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondError(w, http.StatusBadRequest, "Plan name and a positive user limit are required.")
		return
	}
	plan, err := h.service.CreatePlan(r.Context(), identity, PlanInput{
		Name: req.Name, PriceCents: req.PriceCents, MaxUsers: req.MaxUsers, Active: req.Active,
	})
	if err != nil {
		shared.RespondServiceError(w, h.logger, "create plan", err)
		return
	}
	shared.RespondJSON(w, http.StatusCreated, plan)
}

func (h *Handler) updatePlan(w http.ResponseWriter, r *http.Request) {
	identity, _ := authz.IdentityFromContext(r.Context())
	var req planRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondError(w, http.StatusBadRequest, "Malformed request body.")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondError(w, http.StatusBadRequest, "Plan name and a positive user limit are required.")
		return
	}
	plan, err := h.service.UpdatePlan(r.Context(), identity, chi.URLParam(r, "planID"), PlanInput{
		Name: req.Name, PriceCents: req.PriceCents, MaxUsers: req.MaxUsers, Active: req.Active,
	})
	if err != nil {
		shared.RespondServiceError(w, h.logger, "update plan", err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, plan)
}
