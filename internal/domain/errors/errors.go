package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents different types of domain errors
type ErrorCode string

const (
	// Lookup errors
	ErrCodeUserNotFound  ErrorCode = "USER_NOT_FOUND"
	ErrCodePhotoNotFound ErrorCode = "PHOTO_NOT_FOUND"
	ErrCodeLikeNotFound  ErrorCode = "LIKE_NOT_FOUND"

	// Conflict errors
	ErrCodeUserAlreadyExists ErrorCode = "USER_ALREADY_EXISTS"
	ErrCodeLikeAlreadyExists ErrorCode = "LIKE_ALREADY_EXISTS"
	ErrCodeRestrictedDelete  ErrorCode = "RESTRICTED_DELETE"
	ErrCodeMainPhoto         ErrorCode = "MAIN_PHOTO_REQUIRED"

	// Validation errors
	ErrCodeInvalidArgument  ErrorCode = "INVALID_ARGUMENT"
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// Store errors
	ErrCodeStoreFailure ErrorCode = "STORE_FAILURE"

	// Application errors
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// DomainError represents a domain-specific error with context
type DomainError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error wrapping
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison for errors.Is
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// WithContext returns a copy of the error carrying an extra context value.
// The predefined errors below are shared, so they are never mutated in place.
func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	ctx := make(map[string]interface{}, len(e.Context)+1)
	for k, v := range e.Context {
		ctx[k] = v
	}
	ctx[key] = value
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Cause:   e.Cause,
		Context: ctx,
	}
}

// NewDomainError creates a new domain error
func NewDomainError(code ErrorCode, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Context: make(map[string]interface{}),
	}
}

// NewDomainErrorWithCause creates a new domain error with an underlying cause
func NewDomainErrorWithCause(code ErrorCode, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// InvalidArgument creates an INVALID_ARGUMENT error naming the offending argument
func InvalidArgument(name, message string) *DomainError {
	return NewDomainError(ErrCodeInvalidArgument, message).WithContext("argument", name)
}

// StoreFailure wraps a failure from the backing store. Causes that already
// carry a domain code are returned unchanged.
func StoreFailure(message string, cause error) error {
	var domainErr *DomainError
	if errors.As(cause, &domainErr) {
		return cause
	}
	return NewDomainErrorWithCause(ErrCodeStoreFailure, message, cause)
}

// Predefined domain errors
var (
	ErrUserNotFound      = NewDomainError(ErrCodeUserNotFound, "user not found")
	ErrPhotoNotFound     = NewDomainError(ErrCodePhotoNotFound, "photo not found")
	ErrLikeNotFound      = NewDomainError(ErrCodeLikeNotFound, "like not found")
	ErrUserAlreadyExists = NewDomainError(ErrCodeUserAlreadyExists, "username already exists")
	ErrLikeAlreadyExists = NewDomainError(ErrCodeLikeAlreadyExists, "you already like this user")
	ErrRestrictedDelete  = NewDomainError(ErrCodeRestrictedDelete, "entity is still referenced")
	ErrMainPhoto         = NewDomainError(ErrCodeMainPhoto, "you cannot delete your main photo")
	ErrInvalidArgument   = NewDomainError(ErrCodeInvalidArgument, "invalid argument")
	ErrValidationFailed  = NewDomainError(ErrCodeValidationFailed, "validation failed")
	ErrStoreFailure      = NewDomainError(ErrCodeStoreFailure, "store failure")
	ErrInternalError     = NewDomainError(ErrCodeInternalError, "internal error")
)

// IsNotFound checks if the error is any of the not found errors
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrPhotoNotFound) ||
		errors.Is(err, ErrLikeNotFound)
}

// IsUserNotFound checks if the error is a user not found error
func IsUserNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == ErrCodeValidationFailed ||
			domainErr.Code == ErrCodeInvalidArgument
	}
	return false
}

// IsStoreFailure checks if the error came from the backing store
func IsStoreFailure(err error) bool {
	return errors.Is(err, ErrStoreFailure)
}
