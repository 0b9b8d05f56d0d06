package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/adr-core/internal/adr"
	"github.com/nerrad567/adr-core/internal/instrument"
	"github.com/nerrad567/adr-core/internal/peripheral"
	"github.com/nerrad567/adr-core/internal/recording"
	"github.com/nerrad567/adr-core/internal/state"
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
	ErrCodeConflict     = "conflict"
	ErrCodeInternal     = "internal_error"
	ErrCodeValidation   = "validation_error"
	ErrCodeUnavailable  = "peripheral_unavailable"
	ErrCodeInstrument   = "instrument_error"
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

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeConflict writes a 409 error response.
func writeConflict(w http.ResponseWriter, message string) {
	writeError(w, http.StatusConflict, ErrCodeConflict, message)
}

// writeControllerError maps a controller error to its HTTP response.
func writeControllerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, adr.ErrUnknownUnit),
		errors.Is(err, peripheral.ErrUnknownPeripheral):
		writeNotFound(w, err.Error())
	case errors.Is(err, state.ErrUnknownKey),
		errors.Is(err, state.ErrInvalidValue),
		errors.Is(err, state.ErrKindMismatch),
		errors.Is(err, state.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, recording.ErrAlreadyRecording),
		errors.Is(err, recording.ErrNotRecording):
		writeConflict(w, err.Error())
	case errors.Is(err, instrument.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, err.Error())
	case errors.Is(err, instrument.ErrCommunication):
		writeError(w, http.StatusBadGateway, ErrCodeInstrument, err.Error())
	default:
		writeInternalError(w, err.Error())
	}
}
