package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/gray-logic-ledd/internal/endpoint"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest     = "bad_request"
	ErrCodeNotFound       = "not_found"
	ErrCodeInternal       = "internal_error"
	ErrCodeMethodNotAllow = "method_not_allowed"
	ErrCodeTooLarge       = "request_too_large"
	ErrCodeNotReady       = "not_ready"
	ErrCodeHardware       = "hardware_fault"
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

func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeEndpointError maps an endpoint failure to a response.
func (s *Server) writeEndpointError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, endpoint.ErrNotReady):
		writeError(w, http.StatusServiceUnavailable, ErrCodeNotReady, "endpoint not ready")
	case errors.Is(err, endpoint.ErrHardware):
		s.logger.Error("hardware fault", "error", err, "request_id", requestID(r))
		writeError(w, http.StatusBadGateway, ErrCodeHardware, "LED line did not accept the level")
	default:
		s.logger.Error("endpoint request failed", "error", err, "request_id", requestID(r))
		writeInternalError(w, "endpoint request failed")
	}
}
