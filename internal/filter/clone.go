package filter

import "github.com/roach88/relate/internal/value"

// Clone returns a deep copy of node. Clone(nil) is nil.
func Clone(node Node) Node {
	switch n := node.(type) {
	case *Conjunction:
		return cloneConjunction(n)
	case *Comparison:
		return &Comparison{Op: n.Op, Left: cloneOperand(n.Left), Value: cloneValue(n.Value)}
	default:
		return nil
	}
}

func cloneConjunction(n *Conjunction) *Conjunction {
	c := &Conjunction{Op: n.Op}
	if n.Children != nil {
		c.Children = make([]Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = Clone(child)
		}
	}
	return c
}

func cloneOperand(o Operand) Operand {
	if l, ok := o.(Literal); ok {
		return Literal{Value: cloneValue(l.Value)}
	}
	return o
}

// cloneValue copies list values; scalars are immutable.
func cloneValue(v value.Value) value.Value {
	l, ok := v.(value.List)
	if !ok {
		return v
	}
	out := make(value.List, len(l))
	for i, item := range l {
		out[i] = cloneValue(item)
	}
	return out
}
