package condition

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes condition errors.
type ErrorCode string

const (
	// ErrCodeMalformedSetter indicates setters that are absent or lack the
	// required field combination.
	ErrCodeMalformedSetter ErrorCode = "MALFORMED_SETTER"

	// ErrCodeMalformedTemplate indicates a template node that cannot be bound.
	ErrCodeMalformedTemplate ErrorCode = "MALFORMED_TEMPLATE"

	// ErrCodeMissingFilter indicates a parent-child condition without a
	// filter template.
	ErrCodeMissingFilter ErrorCode = "MISSING_FILTER"

	// ErrCodeNoInverseFilter indicates a parent lookup on a condition that
	// has no inverse template.
	ErrCodeNoInverseFilter ErrorCode = "NO_INVERSE_FILTER"

	// ErrCodeMissingContext indicates a binding call without a required
	// record.
	ErrCodeMissingContext ErrorCode = "MISSING_CONTEXT"
)

// Error reports a misconfigured condition or a misuse of one.
type Error struct {
	Code    ErrorCode
	Message string

	// Source and Destination identify the parent-child condition, if any.
	Source      string
	Destination string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Source != "" || e.Destination != "" {
		return fmt.Sprintf("%s: %s (%s -> %s)", e.Code, e.Message, e.Source, e.Destination)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// HasCode reports whether err is a condition Error with the given code.
// Uses errors.As to handle wrapped errors.
func HasCode(err error, code ErrorCode) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// IsMalformedSetter returns true if err reports unusable setters.
func IsMalformedSetter(err error) bool {
	return HasCode(err, ErrCodeMalformedSetter)
}

// IsMissingContext returns true if err reports a missing record.
func IsMissingContext(err error) bool {
	return HasCode(err, ErrCodeMissingContext)
}
