package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/plenario/plenario/internal/authz"
	"github.com/plenario/plenario/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:         logger,
		service:        service,
		sessionManager: sessions,
		csrfManager:    csrf,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Get("/csrf", h.handleCSRF)
	r.Get("/me", h.handleMe)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginResponse struct {
	Identity   authz.Identity `json:"identity"`
	RedirectTo string         `json:"redirectTo"`
	CSRFToken  string         `json:"csrfToken"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondError(w, http.StatusBadRequest, "Malformed request body.")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondError(w, http.StatusBadRequest, "Email and password are required.")
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		shared.RespondError(w, http.StatusUnauthorized, shared.UserSafeMessage(shared.ErrInvalidCredentials))
		return
	}
	identity, err := identityOf(user)
	if err != nil {
		h.logger.Error("login: invalid role on account", slog.String("user_id", user.ID), slog.Any("error", err))
		shared.RespondError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		shared.RespondError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}
	sess.SetUser(user.ID)
	token, _ := h.csrfManager.EnsureToken(sess)

	expiresAt := nowFunc().Add(h.sessionManager.TTL())
	if err := h.service.RegisterSession(r.Context(), sess.ID, user.ID, expiresAt, clientIP(r), r.UserAgent()); err != nil {
		h.logger.Warn("register session", slog.Any("error", err))
	}

	redirectTo, err := authz.LandingPath(identity.Role, identity.CouncilID())
	if err != nil {
		// Misconfigured non-admin account without a council: let the login
		// succeed but land on the support screen.
		redirectTo = authz.UnaffiliatedPath
	}

	shared.RespondJSON(w, http.StatusOK, loginResponse{Identity: identity, RedirectTo: redirectTo, CSRFToken: token})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
			h.logger.Warn("remove session", slog.Any("error", err))
		}
		h.sessionManager.Destroy(sess)
	}
	shared.RespondJSON(w, http.StatusOK, map[string]string{"redirectTo": authz.LoginPath})
}

func (h *Handler) handleCSRF(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		shared.RespondError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}
	token, err := h.csrfManager.EnsureToken(sess)
	if err != nil {
		shared.RespondError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}
	shared.RespondJSON(w, http.StatusOK, map[string]string{"csrfToken": token})
}

// handleMe returns the identity resolved for the current session, plus the
// canonical landing path the console should navigate to.
func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := authz.IdentityFromContext(r.Context())
	if !ok {
		shared.RespondError(w, http.StatusUnauthorized, "Not signed in.")
		return
	}
	redirectTo, err := authz.LandingPath(identity.Role, identity.CouncilID())
	if err != nil {
		if errors.Is(err, authz.ErrMissingAffiliation) {
			redirectTo = authz.UnaffiliatedPath
		} else {
			shared.RespondError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
			return
		}
	}
	shared.RespondJSON(w, http.StatusOK, loginResponse{Identity: identity, RedirectTo: redirectTo})
}

type byEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// HandleLookupByEmail resolves an identity record by email. The console
// calls it right after authentication; a failed lookup means the session no
// longer maps to a valid account, so it is destroyed before responding.
func (h *Handler) HandleLookupByEmail(w http.ResponseWriter, r *http.Request) {
	var req byEmailRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondError(w, http.StatusBadRequest, "Malformed request body.")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondError(w, http.StatusBadRequest, "A valid email is required.")
		return
	}
	identity, err := h.service.IdentityByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			if sess := shared.SessionFromContext(r.Context()); sess != nil {
				h.sessionManager.Destroy(sess)
			}
			shared.RespondError(w, http.StatusUnauthorized, "Account not found.")
			return
		}
		h.logger.Error("lookup by email", slog.Any("error", err))
		shared.RespondError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}
	shared.RespondJSON(w, http.StatusOK, identity)
}

func clientIP(r *http.Request) string {
	return r.RemoteAddr
}
