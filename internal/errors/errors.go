package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrCode represents an error code
type ErrCode string

const (
	ErrCodeNotFound       ErrCode = "NOT_FOUND"
	ErrCodeInvalidInput   ErrCode = "INVALID_INPUT"
	ErrCodeConfig         ErrCode = "CONFIG"
	ErrCodeTransient      ErrCode = "TRANSIENT"
	ErrCodeFatal          ErrCode = "FATAL"
	ErrCodeRetryExhausted ErrCode = "RETRY_EXHAUSTED"
	ErrCodeInternal       ErrCode = "INTERNAL_ERROR"
)

// AppError represents an application error
type AppError struct {
	Code    ErrCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// NewInvalidInputError reports a malformed dump line or other corrupt input.
func NewInvalidInputError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidInput,
		Message: message,
		Err:     err,
	}
}

// NewConfigError creates a new configuration error
func NewConfigError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeConfig,
		Message: message,
		Err:     err,
	}
}

// NewTransientError marks a remote failure that may succeed when retried.
func NewTransientError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeTransient,
		Message: message,
		Err:     err,
	}
}

// NewFatalError marks a remote failure that retrying cannot fix.
func NewFatalError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeFatal,
		Message: message,
		Err:     err,
	}
}

// NewInternalError creates an error for a server-side failure, such as a
// corrupt release file
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
		Err:     err,
	}
}

// NewRetryExhaustedError creates an error for a job that used its whole retry budget
func NewRetryExhaustedError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeRetryExhausted,
		Message: message,
		Err:     err,
	}
}

// HasCode reports whether any AppError in err's chain carries code.
func HasCode(err error, code ErrCode) bool {
	for err != nil {
		var appErr *AppError
		if !stderrors.As(err, &appErr) {
			return false
		}
		if appErr.Code == code {
			return true
		}
		err = appErr.Err
	}
	return false
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return HasCode(err, ErrCodeNotFound)
}

// IsTransient checks if the error is worth retrying
func IsTransient(err error) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == ErrCodeTransient
	}
	return false
}

// IsFatal reports whether err must abort the run. Anything that is not
// explicitly transient is treated as fatal.
func IsFatal(err error) bool {
	return err != nil && !IsTransient(err)
}
