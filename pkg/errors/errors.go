package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCancelled    ErrorCode = "CANCELLED"

	// Configuration errors, always fatal and always pre-mutation
	ErrConfigInvalid ErrorCode = "CONFIG_INVALID"
	ErrRootAccess    ErrorCode = "ROOT_ACCESS"
	ErrMoveTarget    ErrorCode = "MOVE_TARGET"

	// Per-file I/O errors, non-fatal and recorded in the run report
	ErrFileAccess ErrorCode = "FILE_ACCESS"
	ErrHashFail   ErrorCode = "HASH_FAIL"

	// Executor errors, non-fatal and per-intent
	ErrDeleteFail   ErrorCode = "DELETE_FAIL"
	ErrMoveFail     ErrorCode = "MOVE_FAIL"
	ErrLinkFail     ErrorCode = "LINK_FAIL"
	ErrTargetExists ErrorCode = "TARGET_EXISTS"

	// Integrity errors cover a post-copy verification mismatch; the specific
	// intent is aborted without deleting the source
	ErrIntegrity ErrorCode = "INTEGRITY"
)

// DedupError represents a structured error with code and details
type DedupError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *DedupError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *DedupError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *DedupError) Is(target error) bool {
	var targetErr *DedupError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new DedupError with the given code and message
func New(code ErrorCode, message string) *DedupError {
	return &DedupError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new DedupError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *DedupError {
	return &DedupError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a DedupError
func Wrap(err error, code ErrorCode, message string) *DedupError {
	if err == nil {
		return nil
	}
	return &DedupError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *DedupError {
	if err == nil {
		return nil
	}
	return &DedupError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *DedupError) WithDetail(key string, value interface{}) *DedupError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var dedupErr *DedupError
	if errors.As(err, &dedupErr) {
		return dedupErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a DedupError
func GetErrorCode(err error) ErrorCode {
	var dedupErr *DedupError
	if errors.As(err, &dedupErr) {
		return dedupErr.Code
	}
	return ErrUnknown
}

// IsFatal reports whether an error must abort the whole run before any
// mutation begins. Per-file and per-intent errors are never fatal.
func IsFatal(err error) bool {
	switch GetErrorCode(err) {
	case ErrConfigInvalid, ErrRootAccess, ErrMoveTarget:
		return true
	}
	return false
}
