package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// Machine-readable error codes returned to API callers
const (
	CodeBadRequest       = "bad_request"
	CodeInvalidInput     = "invalid_input"
	CodeUnauthorized     = "unauthorized"
	CodeForbidden        = "forbidden"
	CodeNotFound         = "not_found"
	CodeConflict         = "conflict"
	CodeInternal         = "internal_server_error"
	CodeUnavailable      = "service_unavailable"
	CodeInvalidSignature = "invalid_signature"
)

// AppError represents an application error
type AppError struct {
	Status  int         `json:"-"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Err     error       `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails attaches caller-facing details and returns the same error
func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

// NewAppError creates a new AppError
func NewAppError(status int, code, message string, err error) *AppError {
	return &AppError{
		Status:  status,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// BadRequestError creates a 400 Bad Request error
func BadRequestError(message string, err error) *AppError {
	return NewAppError(http.StatusBadRequest, CodeBadRequest, message, err)
}

// InvalidInputError creates a 422 error for input that parses but breaks a rule
func InvalidInputError(message string, err error) *AppError {
	return NewAppError(http.StatusUnprocessableEntity, CodeInvalidInput, message, err)
}

// UnauthorizedError creates a 401 Unauthorized error
func UnauthorizedError(message string, err error) *AppError {
	return NewAppError(http.StatusUnauthorized, CodeUnauthorized, message, err)
}

// ForbiddenError creates a 403 Forbidden error
func ForbiddenError(message string, err error) *AppError {
	return NewAppError(http.StatusForbidden, CodeForbidden, message, err)
}

// NotFoundError creates a 404 Not Found error
func NotFoundError(message string, err error) *AppError {
	return NewAppError(http.StatusNotFound, CodeNotFound, message, err)
}

// ConflictError creates a 409 Conflict error
func ConflictError(message string, err error) *AppError {
	return NewAppError(http.StatusConflict, CodeConflict, message, err)
}

// InternalError creates a 500 error; the wrapped cause is logged, never returned
func InternalError(message string, err error) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeInternal, message, err)
}

// ServiceUnavailableError creates a 503 Service Unavailable error
func ServiceUnavailableError(message string, err error) *AppError {
	return NewAppError(http.StatusServiceUnavailable, CodeUnavailable, message, err)
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	return GetAppError(err) != nil
}

// GetAppError returns the AppError if the error is or wraps an AppError
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// WrapError wraps an error with additional context
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

func hasCode(err error, code string) bool {
	if appErr := GetAppError(err); appErr != nil {
		return appErr.Code == code
	}
	return false
}

// IsNotFoundError checks if an error is a "not found" error
func IsNotFoundError(err error) bool {
	return hasCode(err, CodeNotFound)
}

// IsInvalidInputError checks if an error is a validation error
func IsInvalidInputError(err error) bool {
	return hasCode(err, CodeInvalidInput)
}

// IsConflictError checks if an error is a conflict error
func IsConflictError(err error) bool {
	return hasCode(err, CodeConflict)
}

// IsUnauthorizedError checks if an error is an unauthorized error
func IsUnauthorizedError(err error) bool {
	return hasCode(err, CodeUnauthorized)
}

// IsBadRequestError checks if an error is a bad request error
func IsBadRequestError(err error) bool {
	return hasCode(err, CodeBadRequest)
}
