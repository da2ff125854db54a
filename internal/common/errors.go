package common

import (
	"errors"
	"net/http"
)

// Error codes shared across the pricing modules.
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeConfiguration     = "CONFIGURATION_ERROR"
	CodeNamespaceNotFound = "NAMESPACE_NOT_FOUND"
	CodeInternal          = "INTERNAL_ERROR"
)

// AppError represents an error with an attached code and HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// NewValidationError flags input rejected before any catalog resolution is attempted.
func NewValidationError(message string, details any) *AppError {
	return &AppError{Code: CodeValidation, Message: message, HTTPStatus: http.StatusBadRequest, Details: details}
}

// NewConfigurationError flags a configuration referencing catalog entries that
// do not resolve. Fatal for the calculation in progress; never retried and
// never substituted with a default price.
func NewConfigurationError(message string) *AppError {
	return &AppError{Code: CodeConfiguration, Message: message, HTTPStatus: http.StatusUnprocessableEntity}
}

// IsAppError checks whether the error is an AppError.
func IsAppError(err error) bool {
	var target *AppError
	return errors.As(err, &target)
}

// AsAppError extracts the AppError from an error chain, falling back to a
// generic internal error so handlers always have a code and status to render.
func AsAppError(err error) *AppError {
	var target *AppError
	if errors.As(err, &target) {
		return target
	}
	return &AppError{Code: CodeInternal, Message: "internal error", HTTPStatus: http.StatusInternalServerError, Err: err}
}
