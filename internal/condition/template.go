package condition

import (
	"fmt"

	"github.com/roach88/relate/internal/filter"
	"github.com/roach88/relate/internal/value"
)

// Template is a predicate tree whose leaves are bound to records later.
//
// This is a sealed interface - only *TemplateGroup and *TemplateRule
// implement it.
type Template interface {
	templateNode()
}

// TemplateGroup combines child templates with AND or OR.
type TemplateGroup struct {
	Op       filter.Operator
	Children []Template
}

func (*TemplateGroup) templateNode() {}

// TemplateRule is one templated comparison.
//
// When bound to a parent (FilterFor), the rule becomes
//
//	child.ChildField <Op> parentSide
//
// where parentSide is the parent's ParentField property if ParentField is
// set, else ParentValue if set and not null, else Value.
//
// When bound to a child through an inverse template (InverseFilterFor), the
// rule becomes
//
//	parent.ParentField <Op> childSide
//
// where childSide is the child's ChildField property if ChildField is set,
// else Value.
type TemplateRule struct {
	Op          filter.Operator
	ChildField  string
	ParentField string
	ParentValue value.Value
	Value       value.Value
}

func (*TemplateRule) templateNode() {}

// AllOf returns an AND template group.
func AllOf(children ...Template) *TemplateGroup {
	return &TemplateGroup{Op: filter.OpAnd, Children: children}
}

// AnyOf returns an OR template group.
func AnyOf(children ...Template) *TemplateGroup {
	return &TemplateGroup{Op: filter.OpOr, Children: children}
}

// FieldEquals returns a rule requiring child[childField] = parent[parentField].
func FieldEquals(childField, parentField string) *TemplateRule {
	return &TemplateRule{Op: filter.OpEquals, ChildField: childField, ParentField: parentField}
}

// ValueEquals returns a rule requiring child[childField] = v.
func ValueEquals(childField string, v value.Value) *TemplateRule {
	return &TemplateRule{Op: filter.OpEquals, ChildField: childField, Value: v}
}

// bindFunc turns one rule into a concrete comparison.
type bindFunc func(rule *TemplateRule) (filter.Node, error)

func bindTemplate(t Template, bind bindFunc) (filter.Node, error) {
	switch n := t.(type) {
	case *TemplateGroup:
		if !n.Op.IsConjunction() {
			return nil, &Error{Code: ErrCodeMalformedTemplate, Message: fmt.Sprintf("template group has operation %q", n.Op)}
		}
		children := make([]filter.Node, 0, len(n.Children))
		for _, child := range n.Children {
			bound, err := bindTemplate(child, bind)
			if err != nil {
				return nil, err
			}
			children = append(children, bound)
		}
		return &filter.Conjunction{Op: n.Op, Children: children}, nil
	case *TemplateRule:
		if !n.Op.IsComparison() {
			return nil, &Error{Code: ErrCodeMalformedTemplate, Message: fmt.Sprintf("template rule has operation %q", n.Op)}
		}
		return bind(n)
	case nil:
		return nil, &Error{Code: ErrCodeMalformedTemplate, Message: "nil template node"}
	default:
		return nil, &Error{Code: ErrCodeMalformedTemplate, Message: fmt.Sprintf("unexpected template type %T", t)}
	}
}

func orNull(v value.Value) value.Value {
	if v == nil {
		return value.Null{}
	}
	return v
}

// CloneTemplate returns a deep copy of t.
func CloneTemplate(t Template) Template {
	switch n := t.(type) {
	case *TemplateGroup:
		g := &TemplateGroup{Op: n.Op}
		if n.Children != nil {
			g.Children = make([]Template, len(n.Children))
			for i, child := range n.Children {
				g.Children[i] = CloneTemplate(child)
			}
		}
		return g
	case *TemplateRule:
		r := *n
		r.ParentValue = cloneValue(n.ParentValue)
		r.Value = cloneValue(n.Value)
		return &r
	default:
		return nil
	}
}

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
