// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package apperr defines the centralized error handling framework for Resona.

It provides a rich error type that bridges the gap between low-level
storage/filesystem errors and the result objects returned by the library
reconciliation engine.

Architecture:

  - AppError: A struct containing machine-readable ErrorCode and user-friendly messages.
  - Taxonomy: NotFound, Conflict, Validation, Unprocessable, Internal — the
    terminal/terminal/partial classes the engine distinguishes.
  - Mapping: Explicit mapping from AppError to standard HTTP Status Codes for
    the thin admin surface.

Every error that leaves a service layer should be wrapped as an [AppError] to
ensure consistent classification.
*/
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is the canonical error type for the Resona engine.
//
// It carries an HTTP status code, a machine-readable code, a client-safe
// message, and an optional slice of field-level validation errors.
//
// # Security
//
// The Cause field is for server-side logging only and is never sent to clients
// to avoid leaking internal implementation details (e.g., SQL queries, paths).
type AppError struct {
	// Code is a machine-readable error identifier (e.g. "NOT_FOUND", "CONFLICT").
	Code string `json:"code"`
	// Message is a human-readable description safe to return to the client.
	Message string `json:"error"`
	// HTTPStatus is the HTTP response status code.
	HTTPStatus int `json:"-"`
	// Cause is the underlying error, used for server-side logging only.
	Cause error `json:"-"`
	// Details holds per-field validation errors for VALIDATION_ERROR responses.
	Details []FieldError `json:"details,omitempty"`
}

// FieldError represents a single field-level validation failure.
type FieldError struct {
	// Field is the JSON field name that failed validation.
	Field string `json:"field"`
	// Message is the human-readable description of the failure.
	Message string `json:"message"`
}

// Error implements the error interface. It returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// # Client Errors (4xx)

// NotFound creates a 404 [AppError] for a named resource.
//
// Example:
//
//	apperr.NotFound("Release") // Returns "Release not found"
func NotFound(resource string) *AppError {
	return &AppError{
		Code:       "NOT_FOUND",
		Message:    resource + " not found",
		HTTPStatus: http.StatusNotFound,
	}
}

// Conflict creates a 409 [AppError] for duplicate or unique-constraint
// violations, including rename targets already occupied by another entity.
func Conflict(msg string) *AppError {
	return &AppError{
		Code:       "CONFLICT",
		Message:    msg,
		HTTPStatus: http.StatusConflict,
	}
}

// Locked creates a 423 [AppError] for an entity whose advisory lease is
// currently held by another scan/merge/import operation.
func Locked(resource string) *AppError {
	return &AppError{
		Code:       "LOCKED",
		Message:    resource + " is locked by another operation",
		HTTPStatus: http.StatusLocked,
	}
}

// ValidationError creates a 400 [AppError] with optional per-field details.
func ValidationError(msg string, details ...FieldError) *AppError {
	return &AppError{
		Code:       "VALIDATION_ERROR",
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

// Unprocessable creates a 422 [AppError] for semantically invalid input,
// such as an externally supplied collection list that cannot be parsed.
func Unprocessable(msg string) *AppError {
	return &AppError{
		Code:       "UNPROCESSABLE",
		Message:    msg,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// # Server Errors (5xx)

// Internal creates a 500 [AppError] wrapping an unexpected server-side error.
// The cause is stored for logging but is never sent to the client.
func Internal(cause error) *AppError {
	return &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// # Partial Failures

// PartialIO wraps an individual file operation failure that was logged and
// skipped without aborting the enclosing scan/merge. It is accumulated into
// the operation result rather than terminating it.
func PartialIO(path string, cause error) *AppError {
	return &AppError{
		Code:       "PARTIAL_IO_FAILURE",
		Message:    fmt.Sprintf("File operation failed: %s", path),
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// MetadataMalformed wraps an unreadable or invalid audio tag failure. Files
// carrying it are skipped and never counted as tracks.
func MetadataMalformed(path string, cause error) *AppError {
	return &AppError{
		Code:       "METADATA_MALFORMED",
		Message:    fmt.Sprintf("Unreadable audio metadata: %s", path),
		HTTPStatus: http.StatusUnprocessableEntity,
		Cause:      cause,
	}
}

// # Helpers

// IsAppError reports whether err (or any error in its chain) is an [*AppError].
func IsAppError(err error) bool {
	var ae *AppError
	return errors.As(err, &ae)
}

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// IsNotFound reports whether err carries the NOT_FOUND code.
func IsNotFound(err error) bool {
	ae := As(err)
	return ae != nil && ae.Code == "NOT_FOUND"
}
