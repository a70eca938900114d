package users

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/plenario/plenario/internal/authz"
	"github.com/plenario/plenario/internal/shared"
)

// Handler manages user management endpoints.
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

// MountRoutes registers user routes. The directory and account creation are
// admin screens; individual profiles are reachable by any authenticated
// role, with the capability table deciding row access.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAdmin())
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Put("/{id}/role", h.assignRole)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAuthenticated())
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.deactivate)
	})
}

type listResponse struct {
	Users      []User            `json:"users"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	identity, _ := authz.IdentityFromContext(r.Context())
	page, perPage := shared.PageFromRequest(r)
	list, pagination, err := h.service.List(r.Context(), identity, r.URL.Query().Get("councilId"), page, perPage)
	if err != nil {
		h.respondErr(w, err, "list users")
		return
	}
	if list == nil {
		list = []User{}
	}
	shared.RespondJSON(w, http.StatusOK, listResponse{Users: list, Pagination: pagination})
}

type createRequest struct {
	Name      string `json:"name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	Role      string `json:"role" validate:"required"`
	CouncilID string `json:"councilId"`
	AvatarURL string `json:"avatarUrl"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	identity, _ := authz.IdentityFromContext(r.Context())
	var req createRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondError(w, http.StatusBadRequest, "Malformed request body.")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondError(w, http.StatusBadRequest, "Name, email, password and role are required.")
		return
	}
	user, err := h.service.Create(r.Context(), identity, CreateUserInput{
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		Role:      req.Role,
		CouncilID: req.CouncilID,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		h.respondErr(w, err, "create user")
		return
	}
	shared.RespondJSON(w, http.StatusCreated, user)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	identity, _ := authz.IdentityFromContext(r.Context())
	user, err := h.service.Get(r.Context(), identity, chi.URLParam(r, "id"))
	if err != nil {
		h.respondErr(w, err, "get user")
		return
	}
	shared.RespondJSON(w, http.StatusOK, user)
}

type updateRequest struct {
	Name                *string `json:"name"`
	AvatarURL           *string `json:"avatarUrl"`
	AcceptNotifications *bool   `json:"acceptNotifications"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	identity, _ := authz.IdentityFromContext(r.Context())
	var req updateRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondError(w, http.StatusBadRequest, "Malformed request body.")
		return
	}
	user, err := h.service.UpdateProfile(r.Context(), identity, chi.URLParam(r, "id"), UpdateUserInput{
		Name:                req.Name,
		AvatarURL:           req.AvatarURL,
		AcceptNotifications: req.AcceptNotifications,
	})
	if err != nil {
		h.respondErr(w, err, "update user")
		return
	}
	shared.RespondJSON(w, http.StatusOK, user)
}

type assignRoleRequest struct {
	Role      string `json:"role" validate:"required"`
	CouncilID string `json:"councilId"`
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	identity, _ := authz.IdentityFromContext(r.Context())
	var req assignRoleRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondError(w, http.StatusBadRequest, "Malformed request body.")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondError(w, http.StatusBadRequest, "Role is required.")
		return
	}
	user, err := h.service.AssignRole(r.Context(), identity, chi.URLParam(r, "id"), req.Role, req.CouncilID)
	if err != nil {
		h.respondErr(w, err, "assign role")
		return
	}
	shared.RespondJSON(w, http.StatusOK, user)
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	identity, _ := authz.IdentityFromContext(r.Context())
	if err := h.service.Deactivate(r.Context(), identity, chi.URLParam(r, "id")); err != nil {
		h.respondErr(w, err, "deactivate user")
		return
	}
	shared.RespondJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) respondErr(w http.ResponseWriter, err error, op string) {
	shared.RespondServiceError(w, h.logger, op, err)
}
