package basecfg

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes registry errors.
type ErrorCode string

const (
	// ErrCodeUnexpectedParentProvider indicates a parent id whose provider
	// is not the parent provider of the relationship.
	ErrCodeUnexpectedParentProvider ErrorCode = "UNEXPECTED_PARENT_PROVIDER"

	// ErrCodeParentNotFound indicates a parent id that resolves to no record.
	ErrCodeParentNotFound ErrorCode = "PARENT_NOT_FOUND"

	// ErrCodeNoCondition indicates no relationship between the parent
	// provider and the current provider.
	ErrCodeNoCondition ErrorCode = "NO_CONDITION"

	// ErrCodeInvalidParentID indicates an unparsable "pid" parameter.
	ErrCodeInvalidParentID ErrorCode = "INVALID_PARENT_ID"
)

// Error reports why a base configuration could not be built.
type Error struct {
	Code    ErrorCode
	Message string

	// Parent is the serialized parent id involved, if any.
	Parent string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Parent != "" {
		return fmt.Sprintf("%s: %s (parent=%s)", e.Code, e.Message, e.Parent)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// HasCode reports whether err is a registry Error with the given code.
func HasCode(err error, code ErrorCode) bool {
	var be *Error
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}

// IsUnexpectedParentProvider returns true if err reports a parent from the
// wrong provider.
func IsUnexpectedParentProvider(err error) bool {
	return HasCode(err, ErrCodeUnexpectedParentProvider)
}

// IsParentNotFound returns true if err reports a missing parent record.
func IsParentNotFound(err error) bool {
	return HasCode(err, ErrCodeParentNotFound)
}
