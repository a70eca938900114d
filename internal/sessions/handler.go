package sessions

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/plenario/plenario/internal/authz"
	"github.com/plenario/plenario/internal/shared"
)

// Handler manages session endpoints, mounted under a council route.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers session routes. The surrounding router supplies the
// guard and the {councilID} parameter.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{sessionID}", h.get)
	r.Put("/{sessionID}", h.update)
	r.Put("/{sessionID}/status", h.transition)
}

type listResponse struct {
	Sessions   []Session         `json:"sessions"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	identity, _ := authz.IdentityFromContext(r.Context())
	page, perPage := shared.PageFromRequest(r)
	filter := ListFilter{
		CouncilID: chi.URLParam(r, "councilID"),
		Status:    Status(r.URL.Query().Get("status")),
		SortDesc:  r.URL.Query().Get("sort") == "desc",
	}
	list, pagination, err := h.service.List(r.Context(), identity, filter, page, perPage)
	if err != nil {
		h.respondErr(w, err, "list sessions")
		return
	}
	if list == nil {
		list = []Session{}
	}
	shared.RespondJSON(w, http.StatusOK, listResponse{Sessions: list, Pagination: pagination})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	identity, _ := authz.IdentityFromContext(r.Context())
	sess, err := h.service.Get(r.Context(), identity, chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondErr(w, err, "get session")
		return
	}
	shared.RespondJSON(w, http.StatusOK, sess)
}

type sessionRequest struct {
	Number      int       `json:"number" validate:"required,gt=0"`
	Kind        string    `json:"kind" validate:"required"`
	ScheduledAt time.Time `json:"scheduledAt" validate:"required"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	identity, _ := authz.IdentityFromContext(r.Context())
	var req sessionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondError(w, http.StatusBadRequest, "Malformed request body.")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondError(w, http.StatusBadRequest, "Number, kind and scheduled time are required.")
		return
	}
	sess, err := h.service.Create(r.Context(), identity, chi.URLParam(r, "councilID"), SessionInput{
		Number:      req.Number,
		Kind:        Kind(req.Kind),
		ScheduledAt: req.ScheduledAt,
	})
	if err != nil {
		h.respondErr(w, err, "create session")
		return
	}
	shared.RespondJSON(w, http.StatusCreated, sess)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	identity, _ := authz.IdentityFromContext(r.Context())
	var req sessionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondError(w, http.StatusBadRequest, "Malformed request body.")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondError(w, http.StatusBadRequest, "Number, kind and scheduled time are required.")
		return
	}
	sess, err := h.service.Update(r.Context(), identity, chi.URLParam(r, "sessionID"), SessionInput{
		Number:      req.Number,
		Kind:        Kind(req.Kind),
		ScheduledAt: req.ScheduledAt,
	})
	if err != nil {
		h.respondErr(w, err, "update session")
		return
	}
	shared.RespondJSON(w, http.StatusOK, sess)
}

type transitionRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request) {
	identity, _ := authz.IdentityFromContext(r.Context())
	var req transitionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondError(w, http.StatusBadRequest, "Malformed request body.")
		return
	}
	sess, err := h.service.Transition(r.Context(), identity, chi.URLParam(r, "sessionID"), Status(req.Status))
	if err != nil {
		h.respondErr(w, err, "transition session")
		return
	}
	shared.RespondJSON(w, http.StatusOK, sess)
}

func (h *Handler) respondErr(w http.ResponseWriter, err error, op string) {
	if errors.Is(err, ErrBadTransition) {
		shared.RespondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	shared.RespondServiceError(w, h.logger, op, err)
}
