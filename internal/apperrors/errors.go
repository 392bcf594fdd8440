// Package apperrors defines the error taxonomy surfaced by the auth API.
package apperrors

import (
	"errors"
	"net/http"
)

// Error is an error that knows how it should be rendered to a client.
type Error struct {
	Code       string `json:"error"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Details    any    `json:"details,omitempty"`
	cause      error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Wrap returns a copy of e carrying cause for logging. The cause is never
// rendered to the client.
func (e *Error) Wrap(cause error) *Error {
	cp := *e
	cp.cause = cause
	return &cp
}

// WithDetails returns a copy of the error with additional details.
func (e *Error) WithDetails(details any) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

func Validation(message string) *Error {
	return &Error{Code: "validation_error", Message: message, StatusCode: http.StatusBadRequest}
}

func Unauthenticated(message string) *Error {
	return &Error{Code: "unauthenticated", Message: message, StatusCode: http.StatusUnauthorized}
}

func Forbidden(message string) *Error {
	return &Error{Code: "forbidden", Message: message, StatusCode: http.StatusForbidden}
}

func NotFound(message string) *Error {
	return &Error{Code: "not_found", Message: message, StatusCode: http.StatusNotFound}
}

func RateLimited(message string) *Error {
	return &Error{Code: "rate_limited", Message: message, StatusCode: http.StatusTooManyRequests}
}

// Provider reports an identity provider failure caused by the caller, such as
// an expired authorization code.
func Provider(message string) *Error {
	return &Error{Code: "provider_error", Message: message, StatusCode: http.StatusBadRequest}
}

// ProviderMisconfigured reports a provider failure caused by server configuration.
func ProviderMisconfigured(message string) *Error {
	return &Error{Code: "provider_misconfigured", Message: message, StatusCode: http.StatusInternalServerError}
}

func Internal(message string) *Error {
	return &Error{Code: "internal_error", Message: message, StatusCode: http.StatusInternalServerError}
}

var (
	ErrInvalidCredentials = Unauthenticated("Invalid credentials")
	ErrAuthRequired       = Unauthenticated("Authentication required")
	ErrAdminRequired      = Forbidden("Admin access required")
	ErrEmailRegistered    = Validation("Email already registered")
)

// From converts err into an *Error. Anything outside the taxonomy becomes a
// generic internal error that keeps err as its cause.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("An internal error occurred").Wrap(err)
}

// Is reports whether err is an *Error with the given code.
func Is(err error, code string) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Code == code
}
