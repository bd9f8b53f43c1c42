// Package errors provides standardized domain errors with codes for the kanban API.
//
// Usage:
//
//	// In services - return typed errors
//	if !member {
//	    return errors.AccessDenied("not a member of this workspace")
//	}
//
//	// In handlers - check with errors.Is
//	if errors.Is(err, errors.ErrForeignItem) {
//	    ...
//	}
//
//	// Or use the Code directly for switch statements
//	var domainErr *errors.Error
//	if errors.As(err, &domainErr) {
//	    switch domainErr.Code {
//	    case errors.CodeIncompleteOrder:
//	        ...
//	    }
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	CodeNotFound        Code = "NOT_FOUND"
	CodeAlreadyExists   Code = "ALREADY_EXISTS"
	CodeUnauthorized    Code = "UNAUTHORIZED"
	CodeAccessDenied    Code = "ACCESS_DENIED"
	CodeValidation      Code = "VALIDATION"
	CodeForeignItem     Code = "FOREIGN_ITEM"
	CodeIncompleteOrder Code = "INCOMPLETE_ORDER"
	CodeCrossWorkspace  Code = "CROSS_WORKSPACE"
	CodeConflict        Code = "CONFLICT"
	CodeInternal        Code = "INTERNAL"
	CodeTokenExpired    Code = "TOKEN_EXPIRED"
	CodeRateLimited     Code = "RATE_LIMITED"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists, CodeConflict:
		return http.StatusConflict
	case CodeUnauthorized, CodeTokenExpired:
		return http.StatusUnauthorized
	case CodeAccessDenied:
		return http.StatusForbidden
	case CodeValidation:
		return http.StatusBadRequest
	case CodeForeignItem, CodeIncompleteOrder, CodeCrossWorkspace:
		return http.StatusUnprocessableEntity
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error  // unexported, for wrapping
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// GetStatus satisfies huma.StatusError so handlers can return domain errors
// directly.
func (e *Error) GetStatus() int {
	return e.HTTPStatus()
}

// WithDetails returns a new error with additional details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		cause:   e.cause,
	}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		cause:   err,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrNotFound        = &Error{Code: CodeNotFound, Message: "not found"}
	ErrAlreadyExists   = &Error{Code: CodeAlreadyExists, Message: "already exists"}
	ErrUnauthorized    = &Error{Code: CodeUnauthorized, Message: "unauthorized"}
	ErrAccessDenied    = &Error{Code: CodeAccessDenied, Message: "access denied"}
	ErrValidation      = &Error{Code: CodeValidation, Message: "validation error"}
	ErrForeignItem     = &Error{Code: CodeForeignItem, Message: "item does not belong to scope"}
	ErrIncompleteOrder = &Error{Code: CodeIncompleteOrder, Message: "order is not a permutation of the scope"}
	ErrCrossWorkspace  = &Error{Code: CodeCrossWorkspace, Message: "cannot move across workspaces"}
	ErrConflict        = &Error{Code: CodeConflict, Message: "conflict"}
	ErrInternal        = &Error{Code: CodeInternal, Message: "internal error"}
	ErrTokenExpired    = &Error{Code: CodeTokenExpired, Message: "token expired"}
)

// ForeignItemDetails identifies the item that was not a member of the scope being ordered.
type ForeignItemDetails struct {
	ItemID    string `json:"item_id"`
	ScopeID   string `json:"scope_id"`
	ScopeKind string `json:"scope_kind"`
}

// IncompleteOrderDetails describes how a submitted order differs from the scope's membership.
type IncompleteOrderDetails struct {
	Expected   int      `json:"expected"`
	Got        int      `json:"got"`
	Missing    []string `json:"missing,omitempty"`
	Duplicates []string `json:"duplicates,omitempty"`
}

// Constructor functions for creating errors with custom messages.

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// AlreadyExists creates an already exists error.
func AlreadyExists(msg string) *Error {
	return &Error{Code: CodeAlreadyExists, Message: msg}
}

// AlreadyExistsf creates an already exists error with formatted message.
func AlreadyExistsf(format string, args ...any) *Error {
	return &Error{Code: CodeAlreadyExists, Message: fmt.Sprintf(format, args...)}
}

// Unauthorized creates an unauthorized error.
func Unauthorized(msg string) *Error {
	return &Error{Code: CodeUnauthorized, Message: msg}
}

// AccessDenied creates an access denied error.
func AccessDenied(msg string) *Error {
	return &Error{Code: CodeAccessDenied, Message: msg}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// ForeignItem reports that itemID is not currently a member of the scope.
func ForeignItem(itemID, scopeKind, scopeID string) *Error {
	return &Error{
		Code:    CodeForeignItem,
		Message: fmt.Sprintf("item %s does not belong to %s %s", itemID, scopeKind, scopeID),
		Details: ForeignItemDetails{ItemID: itemID, ScopeID: scopeID, ScopeKind: scopeKind},
	}
}

// IncompleteOrder reports a submitted order that is not a permutation of the scope's members.
func IncompleteOrder(details IncompleteOrderDetails) *Error {
	return &Error{
		Code:    CodeIncompleteOrder,
		Message: fmt.Sprintf("order has %d items, scope has %d", details.Got, details.Expected),
		Details: details,
	}
}

// CrossWorkspace creates a cross workspace error.
func CrossWorkspace(msg string) *Error {
	return &Error{Code: CodeCrossWorkspace, Message: msg}
}

// Conflictf creates a conflict error with formatted message.
func Conflictf(format string, args ...any) *Error {
	return &Error{Code: CodeConflict, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// TokenExpired creates a token expired error.
func TokenExpired(msg string) *Error {
	return &Error{Code: CodeTokenExpired, Message: msg}
}
