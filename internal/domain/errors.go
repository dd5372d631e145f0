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
	// NotFoundError indicates a resource, version, or path did not resolve
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}

	// UnauthorizedError indicates authentication failure
	UnauthorizedError struct {
		Message string
	}

	// ForbiddenError indicates the actor lacks the required permission level.
	// Never downgraded silently; always surfaced to the caller.
	ForbiddenError struct {
		Message string
	}

	// InvalidReferenceError indicates a cross-entity mismatch, e.g. a rollback
	// target version that does not belong to the claimed resource
	InvalidReferenceError struct {
		Message string
	}

	// StructuralError indicates an operation that would violate the resource
	// tree shape: deleting a protected root outside a cascade, or creating a
	// non-root resource without a parent
	StructuralError struct {
		Message string
	}
)

// Error implementations
func (e *NotFoundError) Error() string         { return e.Message }
func (e *ValidationError) Error() string       { return e.Message }
func (e *UnauthorizedError) Error() string     { return e.Message }
func (e *ForbiddenError) Error() string        { return e.Message }
func (e *InvalidReferenceError) Error() string { return e.Message }
func (e *StructuralError) Error() string       { return e.Message }

// StatusCode implementations (HTTPError interface)
func (e *NotFoundError) StatusCode() int         { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int       { return http.StatusBadRequest }
func (e *UnauthorizedError) StatusCode() int     { return http.StatusUnauthorized }
func (e *ForbiddenError) StatusCode() int        { return http.StatusForbidden }
func (e *InvalidReferenceError) StatusCode() int { return http.StatusUnprocessableEntity }
func (e *StructuralError) StatusCode() int       { return http.StatusConflict }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("already exists")
	ErrValidation       = errors.New("validation failed")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidReference = errors.New("invalid reference")
	ErrStructural       = errors.New("structural violation")
)

// Is allows errors.Is() matching between typed errors and sentinels
func (e *NotFoundError) Is(target error) bool         { return target == ErrNotFound }
func (e *ForbiddenError) Is(target error) bool        { return target == ErrPermissionDenied }
func (e *InvalidReferenceError) Is(target error) bool { return target == ErrInvalidReference }
func (e *StructuralError) Is(target error) bool       { return target == ErrStructural }
func (e *ValidationError) Is(target error) bool       { return target == ErrValidation }
func (e *UnauthorizedError) Is(target error) bool     { return target == ErrUnauthorized }

// ConflictError represents a resource conflict with details about the existing resource
type ConflictError struct {
	Message      string // Human-readable error message
	ResourceType string // Type of resource (resource, permission, version)
	ResourceID   string // ID of the existing/conflicting resource
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	return e.Message
}

// StatusCode implements the HTTPError interface
func (e *ConflictError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
