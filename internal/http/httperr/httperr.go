// Package httperr maps domain error kinds onto JSON error responses.
package httperr

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrJamesThe3rd/expensa/internal/identity"
	"github.com/MrJamesThe3rd/expensa/internal/ledger"
)

type body struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Status returns the HTTP status code for err.
func Status(err error) int {
	var verr *ledger.ValidationError

	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, identity.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ledger.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Write renders err as a JSON error body. Server-side failures are logged.
// An aborted operation keeps its message; any other unclassified error is
// hidden from the client.
func Write(w http.ResponseWriter, r *http.Request, err error) {
	status := Status(err)
	resp := body{Error: err.Error()}

	var verr *ledger.ValidationError
	if errors.As(err, &verr) {
		resp.Error = "validation failed"
		resp.Fields = verr.Fields
	}

	if status == http.StatusInternalServerError {
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)

		if !errors.Is(err, ledger.ErrOperationFailed) {
			resp.Error = "internal error"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// Invalid writes a 400 for a single malformed field.
func Invalid(w http.ResponseWriter, r *http.Request, field, msg string) {
	Write(w, r, &ledger.ValidationError{Fields: map[string]string{field: msg}})
}
