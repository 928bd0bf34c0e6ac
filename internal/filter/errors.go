package filter

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes filter errors.
type ErrorCode string

const (
	// ErrCodeUnknownOperator indicates an operation outside the known set.
	ErrCodeUnknownOperator ErrorCode = "UNKNOWN_OPERATOR"

	// ErrCodeUnsupportedOperator indicates a known operation that cannot be
	// evaluated (LIKE).
	ErrCodeUnsupportedOperator ErrorCode = "UNSUPPORTED_OPERATOR"

	// ErrCodeMissingOperand indicates a comparison without a usable left
	// operand.
	ErrCodeMissingOperand ErrorCode = "MISSING_OPERAND"

	// ErrCodeInvalidOperand indicates a comparison with both a property and a
	// remote value.
	ErrCodeInvalidOperand ErrorCode = "INVALID_OPERAND"

	// ErrCodeInvalidNode indicates a nil node or a malformed array rule.
	ErrCodeInvalidNode ErrorCode = "INVALID_NODE"

	// ErrCodeMissingRecord indicates a field lookup without a record.
	ErrCodeMissingRecord ErrorCode = "MISSING_RECORD"
)

// Error reports a malformed or unevaluable predicate tree.
type Error struct {
	Code    ErrorCode
	Message string

	// Node is the offending node, when one is available.
	Node Node
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Node != nil {
		return fmt.Sprintf("%s: %s (node=%s)", e.Code, e.Message, Format(e.Node))
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// HasCode reports whether err is a filter Error with the given code.
// Uses errors.As to handle wrapped errors.
func HasCode(err error, code ErrorCode) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code == code
	}
	return false
}

// IsUnknownOperator returns true if err reports an unknown operation.
func IsUnknownOperator(err error) bool {
	return HasCode(err, ErrCodeUnknownOperator)
}

// IsUnsupportedOperator returns true if err reports an unsupported operation.
func IsUnsupportedOperator(err error) bool {
	return HasCode(err, ErrCodeUnsupportedOperator)
}
