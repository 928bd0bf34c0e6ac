package filter

import (
	"fmt"

	"github.com/roach88/relate/internal/value"
)

// Operator names a conjunction or comparison operation.
type Operator string

const (
	OpAnd     Operator = "AND"
	OpOr      Operator = "OR"
	OpEquals  Operator = "="
	OpGreater Operator = ">"
	OpLess    Operator = "<"
	OpIn      Operator = "IN"

	// OpLike is accepted when building a tree but is never evaluated in
	// memory. Evaluate reports ErrCodeUnsupportedOperator for it.
	OpLike Operator = "LIKE"
)

// Operators lists every valid operator in declaration order.
var Operators = []Operator{OpAnd, OpOr, OpEquals, OpGreater, OpLess, OpIn, OpLike}

// Valid reports whether o is one of the seven known operators.
func (o Operator) Valid() bool {
	return o.IsConjunction() || o.IsComparison()
}

// IsConjunction reports whether o combines child nodes.
func (o Operator) IsConjunction() bool {
	return o == OpAnd || o == OpOr
}

// IsComparison reports whether o compares an operand against a value.
func (o Operator) IsComparison() bool {
	switch o {
	case OpEquals, OpGreater, OpLess, OpIn, OpLike:
		return true
	}
	return false
}

// ParseOperator converts s to an Operator, failing for unknown names.
func ParseOperator(s string) (Operator, error) {
	op := Operator(s)
	if !op.Valid() {
		return "", &Error{
			Code:    ErrCodeUnknownOperator,
			Message: fmt.Sprintf("unknown operation %q", s),
		}
	}
	return op, nil
}

// Node is one element of a predicate tree.
//
// This is a sealed interface - only *Conjunction and *Comparison implement it.
type Node interface {
	filterNode()
}

// Conjunction combines child nodes with AND or OR.
//
// An AND with no children is vacuously true; an OR with no children is
// false.
type Conjunction struct {
	Op       Operator
	Children []Node
}

func (*Conjunction) filterNode() {}

// Comparison compares its left operand against Value.
//
// For OpIn, Value holds the candidate set as a value.List; a scalar Value is
// treated as a one-element set.
type Comparison struct {
	Op    Operator
	Left  Operand
	Value value.Value
}

func (*Comparison) filterNode() {}

// Operand is the left side of a Comparison.
//
// This is a sealed interface - only FieldRef and Literal implement it.
type Operand interface {
	operand()
}

// FieldRef reads the named property from the record under evaluation.
type FieldRef struct {
	Name string
}

func (FieldRef) operand() {}

// Literal is a value fixed at tree-construction time.
type Literal struct {
	Value value.Value
}

func (Literal) operand() {}

// And returns a conjunction requiring every child.
func And(children ...Node) *Conjunction {
	return &Conjunction{Op: OpAnd, Children: children}
}

// Or returns a conjunction requiring any child.
func Or(children ...Node) *Conjunction {
	return &Conjunction{Op: OpOr, Children: children}
}

// NewComparison validates and builds a comparison node.
func NewComparison(op Operator, left Operand, v value.Value) (*Comparison, error) {
	if !op.IsComparison() {
		return nil, &Error{
			Code:    ErrCodeUnknownOperator,
			Message: fmt.Sprintf("%q is not a comparison operation", op),
		}
	}
	if e := checkOperand(left); e != nil {
		return nil, e
	}
	if v == nil {
		v = value.Null{}
	}
	return &Comparison{Op: op, Left: left, Value: v}, nil
}

func checkOperand(left Operand) *Error {
	switch l := left.(type) {
	case nil:
		return &Error{Code: ErrCodeMissingOperand, Message: "comparison has neither property nor remote value"}
	case FieldRef:
		if l.Name == "" {
			return &Error{Code: ErrCodeMissingOperand, Message: "comparison property name is empty"}
		}
	case Literal:
		if l.Value == nil {
			return &Error{Code: ErrCodeMissingOperand, Message: "comparison remote value is nil"}
		}
	}
	return nil
}

// Field returns a FieldRef operand.
func Field(name string) FieldRef {
	return FieldRef{Name: name}
}

// Equals returns field = v.
func Equals(field string, v value.Value) *Comparison {
	return &Comparison{Op: OpEquals, Left: FieldRef{Name: field}, Value: v}
}

// Greater returns field > v.
func Greater(field string, v value.Value) *Comparison {
	return &Comparison{Op: OpGreater, Left: FieldRef{Name: field}, Value: v}
}

// Less returns field < v.
func Less(field string, v value.Value) *Comparison {
	return &Comparison{Op: OpLess, Left: FieldRef{Name: field}, Value: v}
}

// In returns field IN (values...).
func In(field string, values ...value.Value) *Comparison {
	return &Comparison{Op: OpIn, Left: FieldRef{Name: field}, Value: value.List(values)}
}

// Like returns field LIKE pattern.
func Like(field string, pattern string) *Comparison {
	return &Comparison{Op: OpLike, Left: FieldRef{Name: field}, Value: value.String(pattern)}
}

// LiteralEquals returns left = right with both sides fixed.
func LiteralEquals(left, right value.Value) *Comparison {
	return &Comparison{Op: OpEquals, Left: Literal{Value: left}, Value: right}
}
