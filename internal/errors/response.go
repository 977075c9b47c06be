package errors

import "net/http"

// ErrorDetail is the error payload surfaced to API consumers. The internal
// cause never leaves the process; only the hint and details do.
type ErrorDetail struct {
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ErrorResponse is the standard error envelope for all API endpoints.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// NewErrorResponse builds the API payload for an error. The message prefers
// the hint; errors without one fall back to a generic message keyed off the
// mark so internal wording stays internal.
func NewErrorResponse(err error) *ErrorResponse {
	message := Hint(err)
	if message == "" {
		switch {
		case IsNotFound(err):
			message = "Requested resource was not found"
		case IsValidation(err):
			message = "Request validation failed"
		case IsAlreadyExists(err):
			message = "Resource already exists"
		case IsInvalidOperation(err):
			message = "Operation not allowed in the current state"
		case IsPermissionDenied(err):
			message = "Permission denied"
		default:
			message = "An internal error occurred"
		}
	}
	return &ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Message: message,
			Details: ReportableDetails(err),
		},
	}
}

// HTTPStatusFromErr maps an error's mark to an HTTP status code.
func HTTPStatusFromErr(err error) int {
	switch {
	case IsNotFound(err):
		return http.StatusNotFound
	case IsValidation(err):
		return http.StatusBadRequest
	case IsAlreadyExists(err):
		return http.StatusConflict
	case IsInvalidOperation(err):
		return http.StatusBadRequest
	case IsPermissionDenied(err):
		return http.StatusForbidden
	case Is(err, ErrHTTPClient):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
