package environment

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes environment errors.
type ErrorCode string

const (
	// ErrCodeNoRelationship indicates no parent-child condition between
	// the providers involved.
	ErrCodeNoRelationship ErrorCode = "NO_RELATIONSHIP"

	// ErrCodeNoRootCondition indicates a root operation on a container
	// without a root condition.
	ErrCodeNoRootCondition ErrorCode = "NO_ROOT_CONDITION"

	// ErrCodeUnknownBackend indicates a provider declared with an
	// unsupported storage backend.
	ErrCodeUnknownBackend ErrorCode = "UNKNOWN_BACKEND"
)

// Error is returned by Environment operations.
type Error struct {
	Code    ErrorCode
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// HasCode reports whether err is an *Error with the given code.
func HasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsNoRelationship reports whether err is an ErrCodeNoRelationship error.
func IsNoRelationship(err error) bool {
	return HasCode(err, ErrCodeNoRelationship)
}
