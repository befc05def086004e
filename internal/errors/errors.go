package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new AppError with a formatted message
func Newf(code, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an error with additional context. The code of a wrapped
// AppError is preserved.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   err,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// IsAppError checks if an error is (or wraps) an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetCode returns the code of the outermost AppError in the chain, otherwise "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// HasCode reports whether any AppError in the chain carries code.
func HasCode(err error, code string) bool {
	for err != nil {
		if appErr, ok := err.(*AppError); ok && appErr.Code == code {
			return true
		}
		err = stderrors.Unwrap(err)
	}
	return false
}

// As and Is forward to the standard library so callers need one errors import.
func As(err error, target interface{}) bool { return stderrors.As(err, target) }

func Is(err, target error) bool { return stderrors.Is(err, target) }

// Predefined error codes
const (
	CodeUnknownSubcommand = "UnknownSubcommand"
	CodeNoValidNumbers    = "NoValidNumbers"
	CodeInsufficientData  = "InsufficientData"
	CodeInvalidParameter  = "InvalidParameter"

	CodeConfigInvalid = "ConfigInvalid"
	CodeInvalidInput  = "InvalidInput"
	CodeInternalError = "InternalError"
)

// UnknownSubcommand reports an operation name the dispatcher does not route.
func UnknownSubcommand(name string) *AppError {
	return Newf(CodeUnknownSubcommand, "unknown subcommand %q", name)
}

// NoValidNumbers reports an input that yielded an empty numeric sample.
func NoValidNumbers(message string) *AppError {
	return New(CodeNoValidNumbers, message)
}

// InsufficientData reports a sample below a law's statistical floor.
func InsufficientData(format string, args ...interface{}) *AppError {
	return Newf(CodeInsufficientData, format, args...)
}

// InvalidParameter reports an option value outside of its valid range.
func InvalidParameter(name string, value interface{}, constraint string) *AppError {
	return Newf(CodeInvalidParameter, "invalid %s %v: %s", name, value, constraint)
}

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}
