package matters

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/plenario/plenario/internal/authz"
	"github.com/plenario/plenario/internal/shared"
)

// Handler manages matter endpoints, mounted under a council route.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers matter routes. The surrounding router supplies the
// guard and the {councilID} parameter.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{matterID}", h.get)
	r.Put("/{matterID}", h.update)
}

type listResponse struct {
	Matters    []Matter          `json:"matters"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	identity, _ := authz.IdentityFromContext(r.Context())
	page, perPage := shared.PageFromRequest(r)
	query := r.URL.Query()
	filter := ListFilter{
		CouncilID: chi.URLParam(r, "councilID"),
		SessionID: query.Get("sessionId"),
		Status:    Status(query.Get("status")),
		Search:    query.Get("q"),
		SortBy:    query.Get("sortBy"),
		SortDesc:  query.Get("sort") == "desc",
	}
	list, pagination, err := h.service.List(r.Context(), identity, filter, page, perPage)
	if err != nil {
		shared.RespondServiceError(w, h.logger, "list matters", err)
		return
	}
	if list == nil {
		list = []Matter{}
	}
	shared.RespondJSON(w, http.StatusOK, listResponse{Matters: list, Pagination: pagination})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	identity, _ := authz.IdentityFromContext(r.Context())
	matter, err := h.service.Get(r.Context(), identity, chi.URLParam(r, "matterID"))
	if err != nil {
		shared.RespondServiceError(w, h.logger, "get matter", err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, matter)
}

type matterRequest struct {
	SessionID string `json:"sessionId"`
	Code      string `json:"code" validate:"required"`
	Title     string `json:"title" validate:"required"`
	Summary   string `json:"summary"`
	Author    string `json:"author"`
	Status    string `json:"status"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	identity, _ := authz.IdentityFromContext(r.Context())
	var req matterRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondError(w, http.StatusBadRequest, "Malformed request body.")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondError(w, http.StatusBadRequest, "Code and title are required.")
		return
	}
	matter, err := h.service.Create(r.Context(), identity, chi.URLParam(r, "councilID"), MatterInput{
		SessionID: req.SessionID,
		Code:      req.Code,
		Title:     req.Title,
		Summary:   req.Summary,
		Author:    req.Author,
		Status:    Status(req.Status),
	})
	if err != nil {
		shared.RespondServiceError(w, h.logger, "create matter", err)
		return
	}
	shared.RespondJSON(w, http.StatusCreated, matter)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	identity, _ := authz.IdentityFromContext(r.Context())
	var req matterRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondError(w, http.StatusBadRequest, "Malformed request body.")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondError(w, http.StatusBadRequest, "Code and title are required.")
		return
	}
	matter, err := h.service.Update(r.Context(), identity, chi.URLParam(r, "matterID"), MatterInput{
		SessionID: req.SessionID,
		Code:      req.Code,
		Title:     req.Title,
		Summary:   req.Summary,
		Author:    req.Author,
		Status:    Status(req.Status),
	})
	if err != nil {
		shared.RespondServiceError(w, h.logger, "update matter", err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, matter)
}
