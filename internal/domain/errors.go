package domain

import (
	"errors"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
// Implementing this interface enables extensible error handling (OCP compliance).
type HTTPError interface {
	error
	StatusCode() int
}

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates a resource was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}

	// TransportError indicates the generation channel failed or timed out
	TransportError struct {
		Message string
	}
)

// Error implementations
func (e *NotFoundError) Error() string   { return e.Message }
func (e *ValidationError) Error() string { return e.Message }
func (e *TransportError) Error() string  { return e.Message }

// StatusCode implementations (HTTPError interface)
func (e *NotFoundError) StatusCode() int   { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int { return http.StatusBadRequest }
func (e *TransportError) StatusCode() int  { return http.StatusBadGateway }

// Is implementations so errors.Is() matches the corresponding sentinel
func (e *NotFoundError) Is(target error) bool   { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
func (e *TransportError) Is(target error) bool  { return target == ErrTransport }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrPrecondition = errors.New("precondition violated")
	ErrTransport    = errors.New("generation transport failed")
)

// PreconditionError represents a rejected state transition: the operation was
// legal to request but the target record is not in a state that allows it
// (approve a non-pending draft, promote an unapproved or incomplete draft).
// No state mutation occurs when this error is returned.
type PreconditionError struct {
	Message string // Human-readable reason
	Current string // State the record was actually in
}

// Error implements the error interface
func (e *PreconditionError) Error() string {
	return e.Message
}

// StatusCode implements the HTTPError interface
func (e *PreconditionError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is() to match against ErrPrecondition
func (e *PreconditionError) Is(target error) bool {
	return target == ErrPrecondition
}
