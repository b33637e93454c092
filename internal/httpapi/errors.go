package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"upscaled/internal/manager"
	"upscaled/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// errorStatus maps a service error to a status code and the reason sent to
// the client. Causes stay in the logs.
func errorStatus(err error) (int, string) {
	var se *manager.ScaleError
	if errors.As(err, &se) {
		return se.StatusCode(), se.Reason
	}
	if manager.IsTooBusy(err) {
		return http.StatusTooManyRequests, "too busy"
	}
	var he HTTPError
	if errors.As(err, &he) {
		return he.StatusCode(), he.Error()
	}
	return http.StatusInternalServerError, "internal error"
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Status: reason, Code: status})
}
