// Package apperrors defines the typed error kinds returned by the lifecycle,
// token, and gatekeeper services. The HTTP layer maps kinds to status codes;
// services never encode transport concerns themselves.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType identifies the kind of failure
type ErrorType string

const (
	ErrorTypeInvalidRequest       ErrorType = "invalid_request"
	ErrorTypeMissingCredential    ErrorType = "missing_credential"
	ErrorTypeInvalidCredential    ErrorType = "invalid_credential"
	ErrorTypeInactiveKey          ErrorType = "inactive_key"
	ErrorTypeWrongKeyType         ErrorType = "wrong_key_type"
	ErrorTypeSubscriptionExpired  ErrorType = "subscription_expired"
	ErrorTypeAlreadyActive        ErrorType = "subscription_already_active"
	ErrorTypeSubscriptionNotFound ErrorType = "subscription_not_found"
	ErrorTypeTokenExpired         ErrorType = "token_expired"
	ErrorTypeTokenRevoked         ErrorType = "token_revoked"
	ErrorTypeTokenMalformed       ErrorType = "token_malformed"
	ErrorTypeWrongTokenType       ErrorType = "wrong_token_type"
	ErrorTypeNotFound             ErrorType = "not_found"
	ErrorTypeStorageFailure       ErrorType = "storage_failure"
)

// AppError carries the error kind plus a caller-safe message
type AppError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work through the wrapped cause
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates an AppError of the given kind
func New(errType ErrorType, message string) *AppError {
	return &AppError{Type: errType, Message: message}
}

// Wrap creates an AppError of the given kind around an underlying cause
func Wrap(errType ErrorType, message string, err error) *AppError {
	return &AppError{Type: errType, Message: message, Err: err}
}

// Storage wraps a persistence failure; the cause stays internal
func Storage(err error) *AppError {
	return &AppError{Type: ErrorTypeStorageFailure, Message: "storage operation failed", Err: err}
}

// IsType reports whether err is an AppError of the given kind
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}

// HTTPStatus maps an error kind to the HTTP status code the handlers respond with
func HTTPStatus(err error) int {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError
	}
	switch appErr.Type {
	case ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case ErrorTypeMissingCredential, ErrorTypeInvalidCredential,
		ErrorTypeTokenExpired, ErrorTypeTokenRevoked, ErrorTypeTokenMalformed,
		ErrorTypeWrongTokenType:
		return http.StatusUnauthorized
	case ErrorTypeInactiveKey, ErrorTypeWrongKeyType, ErrorTypeSubscriptionExpired:
		return http.StatusForbidden
	case ErrorTypeSubscriptionNotFound, ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeAlreadyActive:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
