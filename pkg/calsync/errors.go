package calsync

import (
	"errors"
	"fmt"
	"strings"
)

// Category buckets an error for retry decisions and reporting.
type Category string

const (
	CategoryValidation Category = "validation"
	CategoryNetwork    Category = "network"
	CategoryPermission Category = "permission"
	CategorySync       Category = "sync"
	CategoryData       Category = "data"
	CategoryUnknown    Category = "unknown"
)

// ValidationError marks bad input or a malformed record shape. It is never
// retried and is surfaced immediately.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// DataError marks a referential problem such as an entity that no longer
// exists. It is not retried.
type DataError struct {
	Message string
}

func (e *DataError) Error() string { return e.Message }

func NewDataError(format string, args ...any) *DataError {
	return &DataError{Message: fmt.Sprintf(format, args...)}
}

// NetworkError marks a transient transport failure.
type NetworkError struct {
	Message string
	Err     error
}

func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *NetworkError) Unwrap() error { return e.Err }

// SyncError marks a transient failure inside a synchronization step.
type SyncError struct {
	Op  string
	Err error
}

func (e *SyncError) Error() string { return fmt.Sprintf("sync %s: %v", e.Op, e.Err) }

func (e *SyncError) Unwrap() error { return e.Err }

// PermissionError marks an authorization failure. It is never retried.
type PermissionError struct {
	Message string
}

func (e *PermissionError) Error() string { return e.Message }

// Classify determines the Category of an error, inspecting the error type
// first and falling back to message patterns for errors raised outside this
// package.
func Classify(err error) Category {
	if err == nil {
		return CategoryUnknown
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return CategoryValidation
	}
	var permissionErr *PermissionError
	if errors.As(err, &permissionErr) {
		return CategoryPermission
	}
	var dataErr *DataError
	if errors.As(err, &dataErr) {
		return CategoryData
	}
	var networkErr *NetworkError
	if errors.As(err, &networkErr) {
		return CategoryNetwork
	}
	var syncErr *SyncError
	if errors.As(err, &syncErr) {
		return CategorySync
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "network", "connection", "timeout", "unreachable", "fetch"):
		return CategoryNetwork
	case containsAny(msg, "permission", "unauthorized", "forbidden", "denied"):
		return CategoryPermission
	case containsAny(msg, "validation", "invalid", "required", "malformed"):
		return CategoryValidation
	case containsAny(msg, "not found", "no such", "does not exist"):
		return CategoryData
	case containsAny(msg, "sync", "conflict"):
		return CategorySync
	}
	return CategoryUnknown
}

// IsRetryable reports whether an error is transient. Only network and sync
// failures are worth retrying; validation, permission, and data errors will
// fail the same way every time.
func IsRetryable(err error) bool {
	category := Classify(err)
	return category == CategoryNetwork || category == CategorySync
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
