package filter

import (
	"fmt"

	"github.com/roach88/relate/internal/model"
	"github.com/roach88/relate/internal/value"
)

// Evaluate reports whether record satisfies node.
//
// record may be nil when the tree only compares literals.
func Evaluate(record model.Model, node Node) (bool, error) {
	switch n := node.(type) {
	case *Conjunction:
		return evaluateConjunction(record, n)
	case *Comparison:
		return evaluateComparison(record, n)
	case nil:
		return false, &Error{Code: ErrCodeInvalidNode, Message: "nil filter node"}
	default:
		return false, &Error{Code: ErrCodeInvalidNode, Message: fmt.Sprintf("unexpected node type %T", node)}
	}
}

func evaluateConjunction(record model.Model, n *Conjunction) (bool, error) {
	switch n.Op {
	case OpAnd:
		for _, child := range n.Children {
			ok, err := Evaluate(record, child)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case OpOr:
		for _, child := range n.Children {
			ok, err := Evaluate(record, child)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, unknownOperation(n, n.Op)
	}
}

func evaluateComparison(record model.Model, n *Comparison) (bool, error) {
	switch n.Op {
	case OpEquals, OpGreater, OpLess, OpIn:
	case OpLike:
		return false, &Error{
			Code:    ErrCodeUnsupportedOperator,
			Message: "LIKE is not supported by the in-memory evaluator",
			Node:    n,
		}
	default:
		return false, unknownOperation(n, n.Op)
	}

	left, err := resolveOperand(record, n)
	if err != nil {
		return false, err
	}
	right := n.Value
	if right == nil {
		right = value.Null{}
	}

	switch n.Op {
	case OpEquals:
		return value.Equal(left, right), nil
	case OpGreater:
		return value.Compare(left, right) > 0, nil
	case OpLess:
		return value.Compare(left, right) < 0, nil
	default: // OpIn
		return value.Contains(right, left), nil
	}
}

func resolveOperand(record model.Model, n *Comparison) (value.Value, error) {
	if e := checkOperand(n.Left); e != nil {
		e.Node = n
		return nil, e
	}
	switch l := n.Left.(type) {
	case Literal:
		return l.Value, nil
	case FieldRef:
		if record == nil {
			return nil, &Error{
				Code:    ErrCodeMissingRecord,
				Message: fmt.Sprintf("property %q read without a record", l.Name),
				Node:    n,
			}
		}
		return record.Property(l.Name), nil
	default:
		return nil, &Error{Code: ErrCodeInvalidNode, Message: fmt.Sprintf("unexpected operand type %T", n.Left), Node: n}
	}
}

func unknownOperation(n Node, op Operator) *Error {
	return &Error{
		Code:    ErrCodeUnknownOperator,
		Message: fmt.Sprintf("unknown operation %q", op),
		Node:    n,
	}
}
