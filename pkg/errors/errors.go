package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrBadRequest
	ErrUnauthorized
	ErrForbidden
	ErrInternal
)

// Assignment-engine conflict codes. These are expected outcomes under
// concurrency, not bugs: two movers racing to claim the same job will
// produce exactly one winner and one of these for everyone else.
const (
	ErrNotEligible ErrorCode = iota + 2000
	ErrAlreadyResolved
	ErrAlreadyAssigned
	ErrAlreadyClaimed
	ErrNotClaimed
)

// Error constructors
func NewNotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func NewBadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

func NewInternal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

// Common errors
func NotFound(resource string, err error) *AppError {
	return NewNotFound(resource, err)
}

func BadRequest(message string, err error) *AppError {
	return NewBadRequest(message, err)
}

func Internal(err error) *AppError {
	return NewInternal(err)
}

func Unauthorized(err error) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Message: "unauthorized",
		Err:     err,
	}
}

// NotEligible signals dispatch preconditions were not met.
func NotEligible(message string) *AppError {
	return &AppError{Code: ErrNotEligible, Message: message}
}

// AlreadyResolved signals a response landed on a terminal-status alert.
func AlreadyResolved() *AppError {
	return &AppError{Code: ErrAlreadyResolved, Message: "alert has already been resolved"}
}

// AlreadyAssigned signals the claim race was lost: the job is bound to
// another mover.
func AlreadyAssigned() *AppError {
	return &AppError{Code: ErrAlreadyAssigned, Message: "this job was already claimed"}
}

// AlreadyClaimed signals a claim attempt on an alert that already won.
func AlreadyClaimed() *AppError {
	return &AppError{Code: ErrAlreadyClaimed, Message: "alert has already been claimed"}
}

// NotClaimed signals a completion attempt on an alert that never won the job.
func NotClaimed() *AppError {
	return &AppError{Code: ErrNotClaimed, Message: "alert is not in claimed state"}
}

// CodeOf extracts the ErrorCode from err, if it wraps an AppError.
func CodeOf(err error) (ErrorCode, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code, true
	}
	return 0, false
}

// IsConflict reports whether err is one of the expected state-machine
// conflicts the HTTP layer maps to 409.
func IsConflict(err error) bool {
	code, ok := CodeOf(err)
	if !ok {
		return false
	}
	switch code {
	case ErrNotEligible, ErrAlreadyResolved, ErrAlreadyAssigned, ErrAlreadyClaimed, ErrNotClaimed:
		return true
	}
	return false
}
