package notifications

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/plenario/plenario/internal/authz"
	"github.com/plenario/plenario/internal/shared"
)

// Handler manages the notification feed endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers notification routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/stream", h.stream)
	r.Post("/read-all", h.markAllRead)
	r.Post("/{notificationID}/read", h.markRead)
}

type listResponse struct {
	Notifications []Notification    `json:"notifications"`
	Pagination    shared.Pagination `json:"pagination"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	identity, _ := authz.IdentityFromContext(r.Context())
	page, perPage := shared.PageFromRequest(r)
	list, pagination, err := h.service.ListForUser(r.Context(), identity, page, perPage)
	if err != nil {
		shared.RespondServiceError(w, h.logger, "list notifications", err)
		return
	}
	if list == nil {
		list = []Notification{}
	}
	shared.RespondJSON(w, http.StatusOK, listResponse{Notifications: list, Pagination: pagination})
}

// stream pushes live council events as server-sent events. The connection
// stays open until the client goes away or the request times out.
func (h *Handler) stream(w http.ResponseWriter, r *http.Request) {
	identity, _ := authz.IdentityFromContext(r.Context())
	flusher, ok := w.(http.Flusher)
	if !ok {
		shared.RespondError(w, http.StatusInternalServerError, "Streaming is not supported.")
		return
	}

	events := make(chan Event, 16)
	err := h.service.StreamEvents(r.Context(), identity, func(event Event) {
		// Drop rather than block: a stalled tab must not back up the hub.
		select {
		case events <- event:
		default:
		}
	})
	if err != nil {
		shared.RespondServiceError(w, h.logger, "open notification stream", err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event := <-events:
			raw, err := json.Marshal(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", raw)
			flusher.Flush()
		}
	}
}

func (h *Handler) markRead(w http.ResponseWriter, r *http.Request) {
	identity, _ := authz.IdentityFromContext(r.Context())
	if err := h.service.MarkRead(r.Context(), identity, chi.URLParam(r, "notificationID")); err != nil {
		shared.RespondServiceError(w, h.logger, "mark notification read", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) markAllRead(w http.ResponseWriter, r *http.Request) {
	identity, _ := authz.IdentityFromContext(r.Context())
	if err := h.service.MarkAllRead(r.Context(), identity); err != nil {
		shared.RespondServiceError(w, h.logger, "mark notifications read", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
