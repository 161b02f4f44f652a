// Package errors provides structured error types for the Garmushka engine.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the engine, CLI and HTTP API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// The engine recovers every measurement condition locally and reports it
// through a code rather than a failure:
//   - INVALID_CALIBRATION_INPUT: declared length is non-positive or not a number
//   - DEGENERATE_GEOMETRY: zero-length calibration segment or too few points
//   - HISTORY_UNDERFLOW: undo past the first snapshot (clamped, never fatal)
//
// The remaining codes are used by storage and transport collaborators.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidCalibration, "length must be positive, got %v", v)
//	if errors.Is(err, errors.ErrCodeInvalidCalibration) {
//	    // Re-prompt the user
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeStorage, origErr, "save session %s", id)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Measurement errors
	ErrCodeInvalidCalibration Code = "INVALID_CALIBRATION_INPUT"
	ErrCodeDegenerateGeometry Code = "DEGENERATE_GEOMETRY"
	ErrCodeHistoryUnderflow   Code = "HISTORY_UNDERFLOW"
	ErrCodeInvalidState       Code = "INVALID_STATE"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidUnit   Code = "INVALID_UNIT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"

	// Resource not found errors
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeSessionNotFound Code = "SESSION_NOT_FOUND"

	// Collaborator errors
	ErrCodeStorage Code = "STORAGE_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// HTTPStatus maps an error code to the HTTP status the API answers with.
func HTTPStatus(code Code) int {
	switch code {
	case ErrCodeInvalidCalibration, ErrCodeDegenerateGeometry, ErrCodeInvalidInput,
		ErrCodeInvalidFormat, ErrCodeInvalidUnit, ErrCodeInvalidConfig:
		return 400
	case ErrCodeNotFound, ErrCodeSessionNotFound:
		return 404
	case ErrCodeInvalidState, ErrCodeHistoryUnderflow:
		return 409
	case ErrCodeTimeout:
		return 504
	case ErrCodeUnsupported:
		return 501
	case "":
		return 200
	default:
		return 500
	}
}
