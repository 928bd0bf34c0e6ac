package filterbuilder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/relate/internal/filter"
)

// ErrorCode categorizes builder errors.
type ErrorCode string

const (
	// ErrCodeInvalidOperation indicates an operation outside the seven
	// valid ones, or one used in the wrong place.
	ErrCodeInvalidOperation ErrorCode = "INVALID_OPERATION"

	// ErrCodeInvalidRule indicates a rule missing its operand.
	ErrCodeInvalidRule ErrorCode = "INVALID_RULE"

	// ErrCodeRootBuilder indicates a non-root operation on a root builder.
	ErrCodeRootBuilder ErrorCode = "ROOT_BUILDER"

	// ErrCodeUnboundReference indicates a parent field reference where a
	// plain filter was requested.
	ErrCodeUnboundReference ErrorCode = "UNBOUND_REFERENCE"
)

// Error reports a misuse of the builder.
type Error struct {
	Code    ErrorCode
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// HasCode reports whether err is a builder Error with the given code.
func HasCode(err error, code ErrorCode) bool {
	var be *Error
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}

// IsValidOperation reports whether op is one of AND, OR, =, >, <, IN, LIKE.
func IsValidOperation(op string) bool {
	return filter.Operator(op).Valid()
}

// CheckValidOperation returns an error unless IsValidOperation(op).
func CheckValidOperation(op string) error {
	if IsValidOperation(op) {
		return nil
	}
	names := make([]string, len(filter.Operators))
	for i, o := range filter.Operators {
		names[i] = string(o)
	}
	return &Error{
		Code:    ErrCodeInvalidOperation,
		Message: fmt.Sprintf("invalid operation %q, expected one of %s", op, strings.Join(names, ", ")),
	}
}
