package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"catalog-admin/internal/domain"

	"go.uber.org/zap"
)

// ErrorResponse represents a structured error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp string                 `json:"timestamp"`
}

// RespondWithError sends a structured error response
func RespondWithError(w http.ResponseWriter, statusCode int, message string) {
	RespondWithErrorDetails(w, statusCode, message, nil)
}

// RespondWithErrorDetails sends a structured error response with additional details
func RespondWithErrorDetails(w http.ResponseWriter, statusCode int, message string, details map[string]interface{}) {
	writeError(w, statusCode, http.StatusText(statusCode), message, details)
}

// RespondWithDomainError maps a catalog error to its status code and writes
// the error kind as the response code. Storage failures are logged and their
// cause is not exposed to the client.
func RespondWithDomainError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var domainErr *domain.Error
	if !errors.As(err, &domainErr) {
		logger.Error("Unclassified error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, string(domain.KindStorage), "internal server error", nil)
		return
	}

	status := domainErr.Kind.HTTPStatus()
	if status >= http.StatusInternalServerError {
		logger.Error("Storage failure", zap.Error(err))
		writeError(w, status, string(domainErr.Kind), domainErr.Message, nil)
		return
	}

	writeError(w, status, string(domainErr.Kind), domainErr.Message, domainErr.Details)
}

func writeError(w http.ResponseWriter, statusCode int, code, message string, details map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error: ErrorDetail{
			Code:      code,
			Message:   message,
			Details:   details,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	json.NewEncoder(w).Encode(response)
}

// RespondWithValidationErrors sends validation error response
func RespondWithValidationErrors(w http.ResponseWriter, errors []ValidationError) {
	details := make(map[string]interface{})
	details["validation_errors"] = errors

	writeError(w, http.StatusBadRequest, string(domain.KindValidation), "validation failed", details)
}

// ErrorHandlingMiddleware catches panics and converts them to 500 errors
func ErrorHandlingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("Panic recovered",
						zap.Any("error", err),
						zap.String("path", r.URL.Path),
						zap.String("method", r.Method),
					)

					RespondWithError(w, http.StatusInternalServerError, "internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// RespondWithJSON sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}
