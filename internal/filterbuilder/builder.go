// Package filterbuilder assembles well-formed predicate trees fluently.
//
// A Builder always holds a synthetic AND root that new predicates attach
// to. Root builders describe root-record filters and may only compare
// record fields against literals. Non-root builders describe parent-child
// templates and may also reference parent fields.
//
//	b := filterbuilder.New(false)
//	b.Root().
//		AndRemotePropertyEquals("pid", "id").
//		AndPropertyEquals("ptable", value.String("tl_article"))
//	tmpl, err := b.Template()
//
// Invalid calls do not panic; the first error is kept and returned by
// Filter, Template and AllAsArray.
package filterbuilder

import (
	"fmt"

	"github.com/roach88/relate/internal/condition"
	"github.com/roach88/relate/internal/filter"
	"github.com/roach88/relate/internal/value"
)

// Builder holds the tree under construction.
type Builder struct {
	root bool
	top  *condition.TemplateGroup
	err  error
}

// New creates an empty builder. root selects a root-condition builder.
func New(root bool) *Builder {
	return &Builder{root: root, top: condition.AllOf()}
}

// FromArray creates a builder holding rules.
//
// Root builders read the filter array form (property / value /
// remote_value); non-root builders read the template array form (local /
// remote / remote_value / value).
func FromArray(rules []any, root bool) (*Builder, error) {
	b := New(root)
	if root {
		nodes, err := filter.FromArray(rules)
		if err != nil {
			return nil, err
		}
		for _, n := range nodes {
			b.top.Children = append(b.top.Children, templateFromNode(n))
		}
		return b, nil
	}

	tmpl, err := condition.TemplateFromArray(rules)
	if err != nil {
		return nil, err
	}
	b.top = tmpl.(*condition.TemplateGroup)
	return b, nil
}

// IsRoot reports whether b builds a root-condition filter.
func (b *Builder) IsRoot() bool {
	return b.root
}

// Root returns the handle of the synthetic AND root.
func (b *Builder) Root() *Group {
	return &Group{b: b, node: b.top}
}

// Err returns the first error recorded by the builder.
func (b *Builder) Err() error {
	return b.err
}

// EncapsulateOr moves everything under the AND root into a new OR node, so
// that predicates added through the returned handle become alternatives to
// the existing ones.
//
// With an empty root the OR node starts empty.
func (b *Builder) EncapsulateOr() *Group {
	or := condition.AnyOf()
	if len(b.top.Children) > 0 {
		or.Children = append(or.Children, condition.AllOf(b.top.Children...))
	}
	b.top.Children = []condition.Template{or}
	return &Group{b: b, node: or}
}

// AllAsArray returns the children of the AND root in array form: filter
// form for root builders, template form otherwise.
func (b *Builder) AllAsArray() ([]any, error) {
	if b.err != nil {
		return nil, b.err
	}
	if !b.root {
		return condition.TemplateToArray(condition.CloneTemplate(b.top)), nil
	}
	node, err := b.Filter()
	if err != nil {
		return nil, err
	}
	return filter.ToArray(node.(*filter.Conjunction).Children), nil
}

// Filter returns the tree as a filter. Parent field references cannot be
// expressed in a filter and are rejected.
func (b *Builder) Filter() (filter.Node, error) {
	if b.err != nil {
		return nil, b.err
	}
	return nodeFromTemplate(b.top)
}

// Template returns the tree as a parent-child template. Only non-root
// builders produce templates.
func (b *Builder) Template() (condition.Template, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.root {
		return nil, &Error{Code: ErrCodeRootBuilder, Message: "root builders do not produce parent-child templates"}
	}
	return condition.CloneTemplate(b.top), nil
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

func templateFromNode(n filter.Node) condition.Template {
	switch node := n.(type) {
	case *filter.Conjunction:
		g := &condition.TemplateGroup{Op: node.Op, Children: make([]condition.Template, 0, len(node.Children))}
		for _, child := range node.Children {
			g.Children = append(g.Children, templateFromNode(child))
		}
		return g
	case *filter.Comparison:
		r := &condition.TemplateRule{Op: node.Op, Value: node.Value}
		switch left := node.Left.(type) {
		case filter.FieldRef:
			r.ChildField = left.Name
		case filter.Literal:
			r.ParentValue = left.Value
		}
		return r
	default:
		return nil
	}
}

func nodeFromTemplate(t condition.Template) (filter.Node, error) {
	switch n := t.(type) {
	case *condition.TemplateGroup:
		out := &filter.Conjunction{Op: n.Op, Children: make([]filter.Node, 0, len(n.Children))}
		for _, child := range n.Children {
			node, err := nodeFromTemplate(child)
			if err != nil {
				return nil, err
			}
			out.Children = append(out.Children, node)
		}
		return out, nil
	case *condition.TemplateRule:
		if n.ParentField != "" {
			return nil, &Error{
				Code:    ErrCodeUnboundReference,
				Message: fmt.Sprintf("%s references parent field %q", n.ChildField, n.ParentField),
			}
		}
		if n.ChildField == "" {
			// remote_value compared against value, both literal.
			if n.ParentValue == nil {
				return nil, &Error{Code: ErrCodeInvalidRule, Message: "rule has neither property nor remote value"}
			}
			return filter.NewComparison(n.Op, filter.Literal{Value: n.ParentValue}, n.Value)
		}
		// A null remote value falls through to Value.
		v := n.Value
		if n.ParentValue != nil && (!value.IsNull(n.ParentValue) || v == nil) {
			v = n.ParentValue
		}
		return filter.NewComparison(n.Op, filter.Field(n.ChildField), v)
	default:
		return nil, &Error{Code: ErrCodeInvalidRule, Message: fmt.Sprintf("unexpected template type %T", t)}
	}
}
