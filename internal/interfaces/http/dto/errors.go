package dto

import "net/http"

// Error codes returned in the error envelope. Domain errors carry these
// codes directly; the handler layer maps them to HTTP statuses.

// General error codes
const (
	ErrCodeInternal   = "SERVER_ERROR"
	ErrCodeBadRequest = "BAD_REQUEST"
	ErrCodeValidation = "VALIDATION_ERROR"
)

// Authentication and authorization error codes
const (
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeTokenExpired = "TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "INVALID_TOKEN"
	ErrCodeTokenRevoked = "TOKEN_REVOKED"
)

// Resource error codes
const (
	ErrCodeNotFound               = "NOT_FOUND"
	ErrCodeAlreadyExists          = "ALREADY_EXISTS"
	ErrCodeConflict               = "CONFLICT"
	ErrCodeConcurrencyConflict    = "CONCURRENCY_CONFLICT"
	ErrCodeConcurrentModification = "CONCURRENT_MODIFICATION"
)

// Business rule error codes
const (
	ErrCodeInvalidState        = "INVALID_STATE"
	ErrCodeInvalidInput        = "INVALID_INPUT"
	ErrCodeInsufficientStock   = "INSUFFICIENT_STOCK"
	ErrCodeProductUnavailable  = "PRODUCT_UNAVAILABLE"
	ErrCodeCartEmpty           = "CART_EMPTY"
	ErrCodeCannotCancel        = "CANNOT_CANCEL"
	ErrCodeReturnWindowExpired = "RETURN_WINDOW_EXPIRED"
)

// Rate limiting error codes
const (
	ErrCodeRateLimited = "RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeBadRequest: http.StatusBadRequest,
	ErrCodeValidation: http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,
	ErrCodeTokenRevoked: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,

	ErrCodeNotFound:               http.StatusNotFound,
	ErrCodeAlreadyExists:          http.StatusConflict,
	ErrCodeConflict:               http.StatusConflict,
	ErrCodeConcurrencyConflict:    http.StatusConflict,
	ErrCodeConcurrentModification: http.StatusConflict,

	ErrCodeInvalidState:        http.StatusUnprocessableEntity,
	ErrCodeInvalidInput:        http.StatusBadRequest,
	ErrCodeInsufficientStock:   http.StatusConflict,
	ErrCodeProductUnavailable:  http.StatusConflict,
	ErrCodeCartEmpty:           http.StatusUnprocessableEntity,
	ErrCodeCannotCancel:        http.StatusUnprocessableEntity,
	ErrCodeReturnWindowExpired: http.StatusUnprocessableEntity,

	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not mapped.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
