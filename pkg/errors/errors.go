// Package errors provides structured error types for the dendro library.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and the library packages
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages that name the failing stage
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Precondition violations detected before a search starts
//   - MISSING_*: Data-integrity failures detected during scoring
//   - DELEGATE_*: External solver process failures
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeTooFewLeaves, "need at least 4 leaves, got %d", n)
//	if errors.Is(err, errors.ErrCodeTooFewLeaves) {
//	    // Handle precondition violation
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeDelegateFailed, origErr, "solver %s exited", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Precondition violations (matrix validation, tree construction)
	ErrCodeInvalidMatrix    Code = "INVALID_MATRIX"
	ErrCodeAsymmetricMatrix Code = "ASYMMETRIC_MATRIX"
	ErrCodeTooFewLeaves     Code = "TOO_FEW_LEAVES"
	ErrCodeInvalidTree      Code = "INVALID_TREE"
	ErrCodeInvalidOptions   Code = "INVALID_OPTIONS"
	ErrCodeInvalidFormat    Code = "INVALID_FORMAT"

	// Data-integrity errors (detected during scoring)
	ErrCodeMissingDistance Code = "MISSING_DISTANCE"

	// External solver errors (delegate strategy)
	ErrCodeDelegateNotFound Code = "DELEGATE_NOT_FOUND"
	ErrCodeDelegateFailed   Code = "DELEGATE_FAILED"
	ErrCodeDelegateOutput   Code = "DELEGATE_OUTPUT"

	// Search execution errors
	ErrCodeSearchFailed Code = "SEARCH_FAILED"

	// Resource not found errors
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
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

// IsPrecondition reports whether the error is a precondition violation
// (invalid matrix, too few leaves, bad options). Precondition violations
// are reported immediately and never retried.
func IsPrecondition(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidMatrix, ErrCodeAsymmetricMatrix, ErrCodeTooFewLeaves,
		ErrCodeInvalidTree, ErrCodeInvalidOptions, ErrCodeInvalidFormat:
		return true
	}
	return false
}
