// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

package shop

import (
	"errors"
	"fmt"

	"github.com/tomtom215/liveshop/internal/store"
	"github.com/tomtom215/liveshop/internal/validation"
)

// Error classes. Match with errors.Is.
var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrBadRequest  = errors.New("bad request")
	ErrUnavailable = errors.New("service unavailable")
)

// Error is a classified error with a client-facing detail.
type Error struct {
	Kind   error
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Detail == "" {
		return e.Err.Error()
	}
	return e.Detail
}

func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.Err }

func newError(kind error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// NotFound builds an ErrNotFound error.
func NotFound(format string, args ...interface{}) error {
	return newError(ErrNotFound, format, args...)
}

// BadRequest builds an ErrBadRequest error.
func BadRequest(format string, args ...interface{}) error {
	return newError(ErrBadRequest, format, args...)
}

// Unavailable wraps a downstream failure as ErrUnavailable.
func Unavailable(err error, format string, args ...interface{}) error {
	e := newError(ErrUnavailable, format, args...)
	e.Err = err
	return e
}

// ValidationError carries the per-field messages of a rejected request.
type ValidationError struct {
	*validation.RequestValidationError
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalid reports a single field failure.
func Invalid(field, message string) error {
	return &ValidationError{validation.NewRequestValidationError(field, message)}
}

// validate runs the struct validator and wraps its result.
func validate(v interface{}) error {
	if verr := validation.ValidateStruct(v); verr != nil {
		return &ValidationError{verr}
	}
	return nil
}

// fromStore classifies store errors; what names the missing document.
func fromStore(err error, what string) error {
	var conflict *store.ConflictError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return &Error{Kind: ErrNotFound, Detail: what + " not found", Err: err}
	case errors.As(err, &conflict):
		return &Error{Kind: ErrConflict, Detail: conflict.Error(), Err: err}
	default:
		return err
	}
}
