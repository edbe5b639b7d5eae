package http

import (
	"errors"
	"net/http"

	"git-repository-manager/internal/database"
	"git-repository-manager/internal/git"
	"git-repository-manager/internal/validation"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// Error writes an error response to the client. Known git and database
// errors override statusCode.
func Error(w http.ResponseWriter, err error, statusCode int) {
	// Parse validation errors
	var validationErr *validation.ValidationErrors
	if errors.As(err, &validationErr) {
		JSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "Validation failed",
			Details: validationErr.Errors,
			Code:    "VALIDATION_ERROR",
		})
		return
	}

	// Parse database errors
	var dbErr *validation.DatabaseError
	if errors.As(err, &dbErr) {
		status := mapDatabaseErrorToHTTPStatus(dbErr)
		JSON(w, status, ErrorResponse{
			Error:   dbErr.Message,
			Code:    dbErr.Type,
			Details: map[string]string{"field": dbErr.Field},
		})
		return
	}

	if status, code, ok := mapKnownError(err); ok {
		JSON(w, status, ErrorResponse{
			Error: err.Error(),
			Code:  code,
		})
		return
	}

	// Default error response
	JSON(w, statusCode, ErrorResponse{
		Error: err.Error(),
	})
}

// mapKnownError maps sentinel errors to HTTP status codes
func mapKnownError(err error) (int, string, bool) {
	switch {
	case errors.Is(err, git.ErrInvalidDestination):
		return http.StatusBadRequest, "INVALID_DESTINATION", true
	case errors.Is(err, git.ErrAuthentication):
		return http.StatusUnauthorized, "AUTHENTICATION_FAILED", true
	case errors.Is(err, git.ErrTransport):
		return http.StatusBadGateway, "TRANSPORT_ERROR", true
	case errors.Is(err, git.ErrNotCloned):
		return http.StatusNotFound, "NOT_CLONED", true
	case errors.Is(err, git.ErrUnreadableRepository):
		return http.StatusInternalServerError, "UNREADABLE_REPOSITORY", true
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound, validation.ErrorTypeNotFound, true
	default:
		return 0, "", false
	}
}

// mapDatabaseErrorToHTTPStatus maps database error types to HTTP status codes
func mapDatabaseErrorToHTTPStatus(dbErr *validation.DatabaseError) int {
	switch dbErr.Type {
	case validation.ErrorTypeUniqueViolation:
		return http.StatusConflict
	case validation.ErrorTypeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
