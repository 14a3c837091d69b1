package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode classifies engine failures
type ErrorCode string

const (
	CodeValidation  ErrorCode = "validation"
	CodeNotFound    ErrorCode = "not_found"
	CodeConflict    ErrorCode = "conflict"
	CodePersistence ErrorCode = "persistence"
)

// Error is the structured error every engine operation returns
type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch {
	case e.Op != "" && e.Message != "":
		return fmt.Sprintf("%s: %s (%s)", e.Op, e.Message, e.Code)
	case e.Op != "":
		return fmt.Sprintf("%s (%s)", e.Op, e.Code)
	case e.Message != "":
		return fmt.Sprintf("%s (%s)", e.Message, e.Code)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError builds an error with an explicit code and operation
func NewError(code ErrorCode, op, message string, cause error) error {
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

// NewValidationError reports malformed or missing input
func NewValidationError(op, format string, args ...interface{}) error {
	return NewError(CodeValidation, op, fmt.Sprintf(format, args...), nil)
}

// NewNotFoundError reports a missing lot, garment, worker or responsible
func NewNotFoundError(op, format string, args ...interface{}) error {
	return NewError(CodeNotFound, op, fmt.Sprintf(format, args...), nil)
}

// NewConflictError reports a state or uniqueness conflict
func NewConflictError(op, format string, args ...interface{}) error {
	return NewError(CodeConflict, op, fmt.Sprintf(format, args...), nil)
}

// NewPersistenceError wraps a storage failure
func NewPersistenceError(op string, cause error) error {
	msg := "storage failure"
	if cause != nil {
		msg = cause.Error()
	}
	return NewError(CodePersistence, op, msg, cause)
}

// CodeOf returns the code carried by err. Untyped errors count as persistence failures.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodePersistence
}

// IsCode reports whether err carries code
func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// MessageOf returns the human readable detail of err
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
