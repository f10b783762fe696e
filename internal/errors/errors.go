package errors

import (
	"errors"
	"fmt"
)

// Exit codes for forage-ports
const (
	ExitSuccess             = 0
	ExitGeneralError        = 1
	ExitInvalidArgument     = 2
	ExitStorage             = 3
	ExitCorruptState        = 4
	ExitExhausted           = 5
	ExitVerificationTimeout = 6
	ExitConfigError         = 7
	ExitNotFound            = 8
)

// ForageError is the base error type for forage-ports
type ForageError struct {
	Code    int
	Message string
	Cause   error
}

func (e *ForageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ForageError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a ForageError with the same code.
// This lets the sentinels below match any error of their kind.
func (e *ForageError) Is(target error) bool {
	var t *ForageError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code && t.Code != ExitGeneralError
}

// ExitCode returns the exit code for this error
func (e *ForageError) ExitCode() int {
	return e.Code
}

// Sentinels for errors.Is matching by kind.
var (
	ErrInvalidArgument     = New(ExitInvalidArgument, "invalid argument")
	ErrStorage             = New(ExitStorage, "storage error")
	ErrCorruptState        = New(ExitCorruptState, "corrupt state")
	ErrExhausted           = New(ExitExhausted, "port range exhausted")
	ErrVerificationTimeout = New(ExitVerificationTimeout, "verification timeout")
	ErrConfig              = New(ExitConfigError, "configuration error")
	ErrNotFound            = New(ExitNotFound, "not found")
)

// New creates a new ForageError
func New(code int, message string) *ForageError {
	return &ForageError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a ForageError
func Wrap(code int, message string, cause error) *ForageError {
	return &ForageError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Common error constructors

// InvalidArgument returns an error for a rejected request
func InvalidArgument(format string, args ...any) *ForageError {
	return New(ExitInvalidArgument, fmt.Sprintf(format, args...))
}

// StorageError returns an error for lock or state file I/O failures
func StorageError(message string, cause error) *ForageError {
	return Wrap(ExitStorage, message, cause)
}

// CorruptState returns an error for a state file that cannot be trusted
func CorruptState(path string, cause error) *ForageError {
	return Wrap(ExitCorruptState, fmt.Sprintf("corrupt state file %s", path), cause)
}

// Exhausted returns an error when no range of the requested size was found
func Exhausted(size, low, high int) *ForageError {
	return New(ExitExhausted, fmt.Sprintf("no free range of %d ports in [%d, %d)", size, low, high))
}

// VerificationTimeout returns an error for a bind probe that ran out of time
func VerificationTimeout(port int, cause error) *ForageError {
	return Wrap(ExitVerificationTimeout, fmt.Sprintf("probe of port %d timed out", port), cause)
}

// ConfigError returns an error for configuration issues
func ConfigError(message string, cause error) *ForageError {
	return Wrap(ExitConfigError, message, cause)
}

// LeaseNotFound returns an error for a base port with no live lease
func LeaseNotFound(base int) *ForageError {
	return New(ExitNotFound, fmt.Sprintf("no lease at base port %d", base))
}

// ValidationError returns an error for CLI input validation failures
func ValidationError(message string) *ForageError {
	return New(ExitInvalidArgument, message)
}

// GetExitCode extracts the exit code from an error
func GetExitCode(err error) int {
	var forageErr *ForageError
	if errors.As(err, &forageErr) {
		return forageErr.ExitCode()
	}
	return ExitGeneralError
}

// Is checks if an error is of a specific type
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target any) bool {
	return errors.As(err, target)
}
