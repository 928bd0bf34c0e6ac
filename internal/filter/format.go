package filter

import (
	"strings"

	"github.com/roach88/relate/internal/value"
)

// Format renders node as a single-line expression, e.g.
//
//	(pid = 42 AND (type = "text" OR type = "image"))
//
// Empty AND renders as TRUE and empty OR as FALSE.
func Format(node Node) string {
	var b strings.Builder
	writeNode(&b, node)
	return b.String()
}

func writeNode(b *strings.Builder, node Node) {
	switch n := node.(type) {
	case *Conjunction:
		if len(n.Children) == 0 {
			switch n.Op {
			case OpAnd:
				b.WriteString("TRUE")
			case OpOr:
				b.WriteString("FALSE")
			default:
				b.WriteString("(" + string(n.Op) + ")")
			}
			return
		}
		b.WriteByte('(')
		for i, child := range n.Children {
			if i > 0 {
				b.WriteString(" " + string(n.Op) + " ")
			}
			writeNode(b, child)
		}
		b.WriteByte(')')
	case *Comparison:
		switch l := n.Left.(type) {
		case FieldRef:
			b.WriteString(l.Name)
		case Literal:
			writeValue(b, l.Value)
		default:
			b.WriteString("?")
		}
		b.WriteString(" " + string(n.Op) + " ")
		writeValue(b, n.Value)
	case nil:
		b.WriteString("<nil>")
	}
}

func writeValue(b *strings.Builder, v value.Value) {
	if v == nil {
		v = value.Null{}
	}
	data, err := value.MarshalCanonical(v)
	if err != nil {
		b.WriteString(value.Format(v))
		return
	}
	b.Write(data)
}
