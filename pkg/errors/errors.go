package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors sharing the same code so clones compare equal to their template.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Case lifecycle errors.
var (
	ErrNotFound            = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrInvalidStatus       = New("INVALID_STATUS", http.StatusUnprocessableEntity, "status is unknown or inactive")
	ErrValidation          = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInvalidEmail        = New("INVALID_EMAIL", http.StatusBadRequest, "email address is invalid")
	ErrUnknownOrganisation = New("UNKNOWN_ORGANISATION", http.StatusNotFound, "organisation not found")
	ErrCaseClosed          = New("CASE_CLOSED", http.StatusConflict, "case is closed")
	ErrInvalidTenantToken  = New("INVALID_TENANT_TOKEN", http.StatusBadRequest, "intake link is invalid")
)

// Access and platform errors.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrInactiveAccount    = New("ACCOUNT_INACTIVE", http.StatusForbidden, "account is inactive")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Internal wraps err as an INTERNAL_ERROR carrying message.
func Internal(err error, message string) *Error {
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, message)
}
