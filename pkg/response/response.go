package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/diagnosis/cinelist/pkg/apperr"
	"github.com/diagnosis/cinelist/pkg/logger"
)

// ErrorResponse represents a structured JSON error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Common error codes
const (
	CodeInvalidInput       = "INVALID_INPUT"
	CodeNotFound           = "NOT_FOUND"
	CodeDuplicateEntry     = "DUPLICATE_ENTRY"
	CodeOTPMismatch        = "OTP_MISMATCH"
	CodeOTPExpired         = "OTP_EXPIRED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeEmailNotVerified   = "EMAIL_NOT_VERIFIED"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeRateLimit          = "RATE_LIMIT_EXCEEDED"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeUnavailable        = "SERVICE_UNAVAILABLE"
)

func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

// WriteError writes a structured JSON error response
func WriteError(w http.ResponseWriter, statusCode int, message, code string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message, Code: code})
}

// Status maps an error kind to its HTTP status and machine code.
func Status(kind apperr.Kind) (int, string) {
	switch kind {
	case apperr.Validation:
		return http.StatusBadRequest, CodeInvalidInput
	case apperr.NotFound:
		return http.StatusNotFound, CodeNotFound
	case apperr.Conflict:
		return http.StatusBadRequest, CodeDuplicateEntry
	case apperr.Mismatch:
		return http.StatusBadRequest, CodeOTPMismatch
	case apperr.Expired:
		return http.StatusBadRequest, CodeOTPExpired
	case apperr.InvalidCredential:
		return http.StatusUnauthorized, CodeInvalidCredentials
	case apperr.Unverified:
		return http.StatusUnauthorized, CodeEmailNotVerified
	case apperr.Unauthenticated:
		return http.StatusUnauthorized, CodeUnauthorized
	case apperr.Forbidden:
		return http.StatusForbidden, CodeForbidden
	case apperr.RateLimited:
		return http.StatusTooManyRequests, CodeRateLimit
	default:
		return http.StatusInternalServerError, CodeInternalError
	}
}

// FromError writes err as a JSON error. Internal errors are logged and
// answered with a generic message.
func FromError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status, code := Status(kind)

	if kind == apperr.Internal {
		logger.ErrorContext(r.Context(), "request failed", "error", err, "path", r.URL.Path)
		WriteError(w, status, "Internal server error", code)
		return
	}

	WriteError(w, status, message(err), code)
}

func message(err error) string {
	var e *apperr.Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// Convenience functions for common errors
func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message, CodeUnauthorized)
}

func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message, CodeInternalError)
}

func RateLimit(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusTooManyRequests, message, CodeRateLimit)
}

func ServiceUnavailable(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusServiceUnavailable, message, CodeUnavailable)
}
