package domain

import (
	"errors"
	"net/http"
)

// HTTPError is implemented by errors that know which status code they map to.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors, match with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
)

// ValidationError indicates invalid input. Details carries per-field messages when available.
type ValidationError struct {
	Message string
	Details any
}

// NotFoundError indicates the resource does not exist or is not owned by the caller.
type NotFoundError struct {
	Message string
}

// UnauthorizedError indicates a missing or invalid session token.
type UnauthorizedError struct {
	Message string
}

func (e *ValidationError) Error() string   { return e.Message }
func (e *NotFoundError) Error() string     { return e.Message }
func (e *UnauthorizedError) Error() string { return e.Message }

func (e *ValidationError) StatusCode() int   { return http.StatusBadRequest }
func (e *NotFoundError) StatusCode() int     { return http.StatusNotFound }
func (e *UnauthorizedError) StatusCode() int { return http.StatusUnauthorized }

func (e *ValidationError) Is(target error) bool   { return target == ErrValidation }
func (e *NotFoundError) Is(target error) bool     { return target == ErrNotFound }
func (e *UnauthorizedError) Is(target error) bool { return target == ErrUnauthorized }

// NewValidation is a shorthand for a ValidationError without details.
func NewValidation(msg string) error { return &ValidationError{Message: msg} }

// NewNotFound is a shorthand for a NotFoundError.
func NewNotFound(msg string) error { return &NotFoundError{Message: msg} }
