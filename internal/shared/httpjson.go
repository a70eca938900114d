package shared

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/plenario/plenario/internal/authz"
)

// ErrorResponse is the uniform JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RespondJSON writes v as a JSON response with the given status.
func RespondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// RespondError writes a JSON error envelope with a user-safe message.
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, ErrorResponse{Error: message})
}

// DecodeJSON parses the request body into dst, rejecting unknown fields and
// oversized payloads.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	// Trailing garbage after the JSON document is a malformed request.
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// RespondServiceError maps service errors onto HTTP statuses with user-safe
// messages, logging only the unexpected ones.
func RespondServiceError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		RespondError(w, http.StatusNotFound, UserSafeMessage(err))
	case errors.Is(err, ErrForbidden):
		RespondError(w, http.StatusForbidden, http.StatusText(http.StatusForbidden))
	case errors.Is(err, ErrConflict):
		RespondError(w, http.StatusConflict, UserSafeMessage(err))
	case errors.Is(err, authz.ErrInvalidRole), errors.Is(err, authz.ErrMissingAffiliation):
		RespondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		if logger != nil {
			logger.Error(op, slog.Any("error", err))
		}
		RespondError(w, http.StatusInternalServerError, UserSafeMessage(err))
	}
}
