// Package apperr holds the errors the HTTP API renders as
// {"code": ..., "message": ..., ...extras}.
package apperr

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

const (
	CodeNotFound       = "NOT_FOUND"
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeInternalError  = "INTERNAL_ERROR"
	CodeImportRejected = "IMPORT_REJECTED"
	CodeConflict       = "CONFLICT"
	CodeUnavailable    = "UNAVAILABLE"
)

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = New(fiber.StatusNotFound, CodeNotFound, "resource not found with given parameters")

	// ErrInvalidReq is returned when a request is invalid.
	ErrInvalidReq = New(fiber.StatusBadRequest, CodeInvalidRequest, "invalid request: some or all request parameters are invalid")

	// ErrInternalError is returned when an internal error occurs.
	ErrInternalError = New(fiber.StatusInternalServerError, CodeInternalError, "internal server error occurred")

	// ErrImportRejected is returned when uploaded results could not be imported. The
	// errors extra lists every problem found.
	ErrImportRejected = New(fiber.StatusUnprocessableEntity, CodeImportRejected, "the uploaded files could not be imported")

	// ErrConflict is returned when another request holds the resource.
	ErrConflict = New(fiber.StatusConflict, CodeConflict, "the resource is being modified by another request")

	// ErrUnavailable is returned when a dependency is not healthy.
	ErrUnavailable = New(fiber.StatusServiceUnavailable, CodeUnavailable, "service unavailable")
)

type Extras map[string]any

// Error is immutable: Msg and WithExtras return modified copies.
type Error struct {
	StatusCode int
	ErrorCode  string
	Message    string
	Extras     Extras
}

func New(statusCode int, errorCode string, message string) *Error {
	return &Error{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

func (e Error) Msg(format string, parts ...any) *Error {
	e.Message = fmt.Sprintf(format, parts...)
	return &e
}

func (e Error) WithExtras(extras Extras) *Error {
	merged := make(Extras, len(e.Extras)+len(extras))
	for k, v := range e.Extras {
		merged[k] = v
	}
	for k, v := range extras {
		merged[k] = v
	}
	e.Extras = merged
	return &e
}

func NewInvalidViolations(violations any) *Error {
	return ErrInvalidReq.WithExtras(Extras{
		"violations": violations,
	})
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.ErrorCode, e.Message)
}
