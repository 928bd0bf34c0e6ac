package filter

import (
	"fmt"

	"github.com/roach88/relate/internal/value"
)

// Keys of the array form of a predicate rule.
const (
	KeyOperation   = "operation"
	KeyProperty    = "property"
	KeyValue       = "value"
	KeyRemoteValue = "remote_value"
	KeyChildren    = "children"
)

// FromArray converts a list of rules in array form into nodes.
//
// Each rule is a map with an "operation" key. Conjunction rules carry
// "children"; comparison rules carry "value" plus exactly one of "property"
// or "remote_value".
func FromArray(rules []any) ([]Node, error) {
	nodes := make([]Node, 0, len(rules))
	for i, rule := range rules {
		m, ok := rule.(map[string]any)
		if !ok {
			return nil, &Error{Code: ErrCodeInvalidNode, Message: fmt.Sprintf("rule[%d]: expected map, got %T", i, rule)}
		}
		node, err := FromMap(m)
		if err != nil {
			return nil, fmt.Errorf("rule[%d]: %w", i, err)
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// FromMap converts one rule in array form into a node.
func FromMap(rule map[string]any) (Node, error) {
	rawOp, ok := rule[KeyOperation].(string)
	if !ok {
		return nil, &Error{Code: ErrCodeInvalidNode, Message: "rule has no operation"}
	}
	op, err := ParseOperator(rawOp)
	if err != nil {
		return nil, err
	}

	if op.IsConjunction() {
		var rawChildren []any
		if c, present := rule[KeyChildren]; present && c != nil {
			list, ok := c.([]any)
			if !ok {
				return nil, &Error{Code: ErrCodeInvalidNode, Message: fmt.Sprintf("%s children must be a list, got %T", op, c)}
			}
			rawChildren = list
		}
		children, err := FromArray(rawChildren)
		if err != nil {
			return nil, err
		}
		return &Conjunction{Op: op, Children: children}, nil
	}

	v, err := value.From(rule[KeyValue])
	if err != nil {
		return nil, &Error{Code: ErrCodeInvalidNode, Message: err.Error()}
	}

	property, hasProperty := rule[KeyProperty]
	remote, hasRemote := rule[KeyRemoteValue]
	var left Operand
	switch {
	case hasProperty && hasRemote:
		return nil, &Error{Code: ErrCodeInvalidOperand, Message: "rule sets both property and remote_value"}
	case hasProperty:
		name, ok := property.(string)
		if !ok {
			return nil, &Error{Code: ErrCodeInvalidNode, Message: fmt.Sprintf("property must be a string, got %T", property)}
		}
		left = FieldRef{Name: name}
	case hasRemote:
		rv, err := value.From(remote)
		if err != nil {
			return nil, &Error{Code: ErrCodeInvalidNode, Message: err.Error()}
		}
		left = Literal{Value: rv}
	}

	return NewComparison(op, left, v)
}

// ToArray converts nodes into array form.
func ToArray(nodes []Node) []any {
	out := make([]any, 0, len(nodes))
	for _, n := range nodes {
		if m := ToMap(n); m != nil {
			out = append(out, m)
		}
	}
	return out
}

// ToMap converts one node into array form. ToMap(nil) is nil.
func ToMap(node Node) map[string]any {
	switch n := node.(type) {
	case *Conjunction:
		return map[string]any{
			KeyOperation: string(n.Op),
			KeyChildren:  ToArray(n.Children),
		}
	case *Comparison:
		m := map[string]any{
			KeyOperation: string(n.Op),
			KeyValue:     value.Native(n.Value),
		}
		switch l := n.Left.(type) {
		case FieldRef:
			m[KeyProperty] = l.Name
		case Literal:
			m[KeyRemoteValue] = value.Native(l.Value)
		}
		return m
	default:
		return nil
	}
}
