package device

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode categorizes band errors.
type ErrorCode string

const (
	// ErrCodeValidation indicates a command with missing or out-of-range fields.
	ErrCodeValidation ErrorCode = "VALIDATION"

	// ErrCodeCapacity indicates the reminder store is full.
	ErrCodeCapacity ErrorCode = "CAPACITY_EXCEEDED"

	// ErrCodeNotFound indicates a reminder id with no matching slot.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeStorage indicates a persistence read or write failure.
	ErrCodeStorage ErrorCode = "STORAGE"

	// ErrCodeLockTimeout indicates a bounded lock acquisition expired.
	ErrCodeLockTimeout ErrorCode = "LOCK_TIMEOUT"

	// ErrCodeLinkClosed indicates a notify attempt without a connected peer.
	ErrCodeLinkClosed ErrorCode = "LINK_CLOSED"
)

// Error is a band error with a machine-readable code.
//
// Every failure mode on the band maps to one code. None of them escalate:
// commands are dropped with a diagnostic, storage failures leave memory
// authoritative, lock timeouts skip a cycle. The only fatal error in the
// whole program is storage open at boot, and that is decided by the caller,
// not here.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error // wrapped cause, optional
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewValidationError creates an Error for a malformed command.
func NewValidationError(format string, args ...any) *Error {
	return &Error{Code: ErrCodeValidation, Message: fmt.Sprintf(format, args...)}
}

// NewCapacityError creates an Error for a full reminder store.
func NewCapacityError(capacity int) *Error {
	return &Error{
		Code:    ErrCodeCapacity,
		Message: fmt.Sprintf("reminder store full (%d slots)", capacity),
	}
}

// NewNotFoundError creates an Error for an unknown reminder id.
func NewNotFoundError(id int) *Error {
	return &Error{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("no reminder with id %d", id),
	}
}

// NewStorageError wraps a persistence failure.
func NewStorageError(op string, err error) *Error {
	return &Error{Code: ErrCodeStorage, Message: op, Err: err}
}

// NewLockTimeoutError creates an Error for a bounded lock acquisition that
// expired. Callers treat it as advisory: skip the cycle, retry on the next.
func NewLockTimeoutError(name string, timeout time.Duration) *Error {
	return &Error{
		Code:    ErrCodeLockTimeout,
		Message: fmt.Sprintf("%s lock not acquired within %s", name, timeout),
	}
}

// NewLinkClosedError creates an Error for a notify without a connected peer.
func NewLinkClosedError() *Error {
	return &Error{Code: ErrCodeLinkClosed, Message: "command link not connected"}
}

// hasCode reports whether err is or wraps an Error with the given code.
func hasCode(err error, code ErrorCode) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// IsValidation returns true if the error is a validation error.
// Uses errors.As to handle wrapped errors.
func IsValidation(err error) bool { return hasCode(err, ErrCodeValidation) }

// IsCapacity returns true if the error is a capacity error.
func IsCapacity(err error) bool { return hasCode(err, ErrCodeCapacity) }

// IsNotFound returns true if the error is a not-found error.
func IsNotFound(err error) bool { return hasCode(err, ErrCodeNotFound) }

// IsStorage returns true if the error is a storage error.
func IsStorage(err error) bool { return hasCode(err, ErrCodeStorage) }

// IsLockTimeout returns true if the error is a lock timeout.
func IsLockTimeout(err error) bool { return hasCode(err, ErrCodeLockTimeout) }

// IsLinkClosed returns true if the error is a closed-link error.
func IsLinkClosed(err error) bool { return hasCode(err, ErrCodeLinkClosed) }
