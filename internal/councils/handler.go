package councils

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/plenario/plenario/internal/authz"
	"github.com/plenario/plenario/internal/shared"
)

// Handler manages council endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	guard     authz.Guard
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard authz.Guard) *Handler {
	return &Handler{logger: logger, service: service, guard: guard, validator: validator.New()}
}

// MountRoutes registers council routes. The listing and all mutations are
// the admin console; a single council is readable by its members.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAdmin())
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Put("/{councilID}", h.update)
		r.Delete("/{councilID}", h.deactivate)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAuthenticated())
		r.Get("/{councilID}", h.get)
	})
}

type listResponse struct {
	Councils   []Council         `json:"councils"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	identity, _ := authz.IdentityFromContext(r.Context())
	page, perPage := shared.PageFromRequest(r)
	list, pagination, err := h.service.List(r.Context(), identity, page, perPage)
	if err != nil {
		shared.RespondServiceError(w, h.logger, "list councils", err)
		return
	}
	if list == nil {
		list = []Council{}
	}
	shared.RespondJSON(w, http.StatusOK, listResponse{Councils: list, Pagination: pagination})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	identity, _ := authz.IdentityFromContext(r.Context())
	council, err := h.service.Get(r.Context(), identity, chi.URLParam(r, "councilID"))
	if err != nil {
		shared.RespondServiceError(w, h.logger, "get council", err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, council)
}

type councilRequest struct {
	Name  string `json:"name" validate:"required"`
	City  string `json:"city" validate:"required"`
	State string `json:"state" validate:"required,len=2"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	identity, _ := authz.IdentityFromContext(r.Context())
	var req councilRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondError(w, http.StatusBadRequest, "Malformed request body.")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondError(w, http.StatusBadRequest, "Name, city and a two-letter state are required.")
		return
	}
	council, err := h.service.Create(r.Context(), identity, CouncilInput{Name: req.Name, City: req.City, State: req.State})
	if err != nil {
		shared.RespondServiceError(w, h.logger, "create council", err)
		return
	}
	shared.RespondJSON(w, http.StatusCreated, council)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	identity, _ := authz.IdentityFromContext(r.Context())
	var req councilRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondError(w, http.StatusBadRequest, "Malformed request body.")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondError(w, http.StatusBadRequest, "Name, city and a two-letter state are required.")
		return
	}
	council, err := h.service.Update(r.Context(), identity, chi.URLParam(r, "councilID"), CouncilInput{Name: req.Name, City: req.City, State: req.State})
	if err != nil {
		shared.RespondServiceError(w, h.logger, "update council", err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, council)
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	identity, _ := authz.IdentityFromContext(r.Context())
	if err := h.service.Deactivate(r.Context(), identity, chi.URLParam(r, "councilID")); err != nil {
		shared.RespondServiceError(w, h.logger, "deactivate council", err)
		return
	}
	shared.RespondJSON(w, http.StatusNoContent, nil)
}
