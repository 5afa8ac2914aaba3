package errors

const (
	HttpInternalError       = "internal_error"
	HttpInvalidJsonError    = "invalid_json"
	HttpValidationError     = "validation_failed"
	HttpNotFoundError       = "not_found"
	HttpDuplicateError      = "duplicate"
	HttpUnavailableError    = "unavailable"
	HttpInvalidRequestError = "invalid_request"
)

// ErrorResponse is the error response body for every HTTP endpoint.
type ErrorResponse struct {
	ErrorType string      `json:"error_type"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}
