package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sensewear/sensewear-core/internal/authz"
	"github.com/sensewear/sensewear-core/internal/enrollment"
	"github.com/sensewear/sensewear-core/internal/operation"
	"github.com/sensewear/sensewear-core/internal/sensor"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeNotFound     = "not_found"
	ErrCodeUnauthorized = "unauthorised"
	ErrCodeForbidden    = "forbidden"
	ErrCodeInternal     = "internal_error"
	ErrCodeValidation   = "validation_error"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeUnauthorized writes a 401 error response.
func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// writeForbidden writes a 403 error response.
func writeForbidden(w http.ResponseWriter, message string) {
	writeError(w, http.StatusForbidden, ErrCodeForbidden, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeDomainError maps a domain error to its HTTP response.
//
// The ordering matters in one place: an authorization check that could
// not be carried out (ErrAuthorizationFailed) is a 500, never a 403 —
// a store outage must not look like a deliberate denial, and must not
// be retried by clients as if changing credentials would help.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authz.ErrAccessDenied):
		writeForbidden(w, "access denied")
	case errors.Is(err, authz.ErrAuthorizationFailed):
		writeInternalError(w, "authorization check failed")
	case errors.Is(err, enrollment.ErrDeviceNotFound):
		writeNotFound(w, "device not found")
	case errors.Is(err, enrollment.ErrPairingNotFound):
		writeNotFound(w, "pairing not found")
	case errors.Is(err, enrollment.ErrInvalidIdentity),
		errors.Is(err, operation.ErrInvalidDevice),
		errors.Is(err, sensor.ErrUnsupportedSensorType):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	default:
		writeInternalError(w, "internal server error")
	}
}
