// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package opresult defines the result envelope returned by every public entry
point of the reconciliation engine (scan, merge, import).

Architecture:

  - Result[T]: Carries success flags, a data payload, elapsed time, and the
    non-fatal errors accumulated during per-item loops.
  - Callers are expected to inspect IsSuccess rather than rely on returned
    Go errors; partial failures inside a scan or merge never abort the
    overall operation.
*/
package opresult

import (
	"time"

	"github.com/taibuivan/resona/internal/platform/apperr"
)

// Result is the outcome of one engine operation.
//
// # Partial Failure Semantics
//
// Errors holds every non-fatal error caught inside per-item loops (one file,
// one collection tuple, one merge sub-step). A populated Errors slice with
// IsSuccess=true means the operation completed but skipped items.
type Result[T any] struct {
	// Data is the operation payload (summary counts, touched ids, ...).
	Data T `json:"data"`

	// Elapsed is the wall-clock duration of the operation.
	Elapsed time.Duration `json:"elapsed_ms"`

	// Errors holds accumulated non-fatal errors, rendered as messages.
	Errors []error `json:"-"`

	// IsSuccess reports whether the operation as a whole completed.
	IsSuccess bool `json:"is_success"`

	// IsNotFound reports whether the operation target did not exist.
	IsNotFound bool `json:"is_not_found"`
}

// Ok builds a successful result.
func Ok[T any](data T, elapsed time.Duration, errs []error) Result[T] {
	return Result[T]{Data: data, Elapsed: elapsed, Errors: errs, IsSuccess: true}
}

// Fail builds a failed result carrying the terminal error.
func Fail[T any](elapsed time.Duration, errs ...error) Result[T] {
	return Result[T]{Elapsed: elapsed, Errors: errs}
}

// NotFound builds a failed result for a missing operation target.
//
// The terminal [apperr.AppError] is classified from err when possible.
func NotFound[T any](elapsed time.Duration, err error) Result[T] {
	return Result[T]{Elapsed: elapsed, Errors: []error{err}, IsNotFound: true}
}

// Classify builds a failed result from a terminal error, setting IsNotFound
// when the error chain carries the NOT_FOUND code.
func Classify[T any](elapsed time.Duration, err error) Result[T] {
	if apperr.IsNotFound(err) {
		return NotFound[T](elapsed, err)
	}
	return Fail[T](elapsed, err)
}

// ErrorMessages renders the accumulated errors as plain strings for
// serialization in API responses and audit logs.
func (r Result[T]) ErrorMessages() []string {
	if len(r.Errors) == 0 {
		return nil
	}

	messages := make([]string, len(r.Errors))
	for i, err := range r.Errors {
		messages[i] = err.Error()
	}
	return messages
}

// FirstError returns the first accumulated error, or nil.
func (r Result[T]) FirstError() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return r.Errors[0]
}

// View is the JSON projection of a [Result] for API responses.
type View[T any] struct {
	Data      T        `json:"data"`
	ElapsedMS int64    `json:"elapsed_ms"`
	Errors    []string `json:"errors,omitempty"`
	IsSuccess bool     `json:"is_success"`
}

// View projects the result into its wire form.
func (r Result[T]) View() View[T] {
	return View[T]{
		Data:      r.Data,
		ElapsedMS: r.Elapsed.Milliseconds(),
		Errors:    r.ErrorMessages(),
		IsSuccess: r.IsSuccess,
	}
}
