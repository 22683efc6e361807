package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes shared by every layer.
const (
	CodeInternal        = "INTERNAL"
	CodeNotFound        = "NOT_FOUND"
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeConflict        = "CONFLICT"
)

// ErrTransient marks a conflict that may clear on retry: a held lock or a stale version.
var ErrTransient = errors.New("transient conflict")

// AppError carries a code that the HTTP layer maps onto a status.
type AppError struct {
	code    string
	message string
	err     error
}

func (e *AppError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s", e.message, e.err.Error())
	}
	return e.message
}

func (e *AppError) Code() string {
	return e.code
}

func (e *AppError) Message() string {
	return e.message
}

func (e *AppError) Unwrap() error {
	return e.err
}

// New creates an AppError with the given code.
func New(code, message string, err error) *AppError {
	return &AppError{code: code, message: message, err: err}
}

func NotFound(format string, args ...interface{}) *AppError {
	return New(CodeNotFound, fmt.Sprintf(format, args...), nil)
}

func InvalidArgument(format string, args ...interface{}) *AppError {
	return New(CodeInvalidArgument, fmt.Sprintf(format, args...), nil)
}

func Conflict(format string, args ...interface{}) *AppError {
	return New(CodeConflict, fmt.Sprintf(format, args...), nil)
}

// Wrap keeps the code of an existing AppError and otherwise marks the error as internal.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return New(appErr.Code(), message, err)
	}
	return New(CodeInternal, message, err)
}

// CodeOf returns the code of the first AppError in the chain, or CodeInternal.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code()
	}
	return CodeInternal
}

func IsNotFound(err error) bool { return err != nil && CodeOf(err) == CodeNotFound }

func IsInvalidArgument(err error) bool { return err != nil && CodeOf(err) == CodeInvalidArgument }

func IsConflict(err error) bool { return err != nil && CodeOf(err) == CodeConflict }

// IsTransient reports whether err is a conflict that a retry may resolve.
func IsTransient(err error) bool { return IsConflict(err) && errors.Is(err, ErrTransient) }

// ToHTTPStatus maps an error code onto an HTTP status.
func ToHTTPStatus(code string) int {
	switch code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
