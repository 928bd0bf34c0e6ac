package filterbuilder

import (
	"fmt"

	"github.com/roach88/relate/internal/condition"
	"github.com/roach88/relate/internal/filter"
	"github.com/roach88/relate/internal/value"
)

// Group is a handle to one AND or OR node of a builder. Every method adds
// a child to that node and returns the same handle.
type Group struct {
	b    *Builder
	node *condition.TemplateGroup
}

// Builder returns the owning builder.
func (g *Group) Builder() *Builder {
	return g.b
}

// Op returns the operation of the group.
func (g *Group) Op() filter.Operator {
	return g.node.Op
}

// Add appends a comparison after validating op.
func (g *Group) Add(op string, property string, v value.Value) *Group {
	if err := CheckValidOperation(op); err != nil {
		g.b.fail(err)
		return g
	}
	operator := filter.Operator(op)
	if operator.IsConjunction() {
		g.b.fail(&Error{
			Code:    ErrCodeInvalidOperation,
			Message: fmt.Sprintf("%s is a conjunction; use AndEncapsulate or OrEncapsulate", op),
		})
		return g
	}
	if property == "" {
		g.b.fail(&Error{Code: ErrCodeInvalidRule, Message: fmt.Sprintf("%s rule has no property", op)})
		return g
	}
	g.node.Children = append(g.node.Children, &condition.TemplateRule{Op: operator, ChildField: property, Value: v})
	return g
}

// AndPropertyEquals requires property = v.
func (g *Group) AndPropertyEquals(property string, v value.Value) *Group {
	return g.Add(string(filter.OpEquals), property, v)
}

// AndPropertyGreaterThan requires property > v.
func (g *Group) AndPropertyGreaterThan(property string, v value.Value) *Group {
	return g.Add(string(filter.OpGreater), property, v)
}

// AndPropertyLessThan requires property < v.
func (g *Group) AndPropertyLessThan(property string, v value.Value) *Group {
	return g.Add(string(filter.OpLess), property, v)
}

// AndPropertyValueIn requires property to be one of values.
func (g *Group) AndPropertyValueIn(property string, values ...value.Value) *Group {
	return g.Add(string(filter.OpIn), property, value.List(values))
}

// AndPropertyValueLike requires property LIKE pattern.
func (g *Group) AndPropertyValueLike(property, pattern string) *Group {
	return g.Add(string(filter.OpLike), property, value.String(pattern))
}

// AndRemotePropertyEquals requires property to equal the parent's
// remoteProperty. Root builders reject it.
func (g *Group) AndRemotePropertyEquals(property, remoteProperty string) *Group {
	if g.b.root {
		g.b.fail(&Error{
			Code:    ErrCodeRootBuilder,
			Message: fmt.Sprintf("root builders cannot reference parent field %q", remoteProperty),
		})
		return g
	}
	if property == "" || remoteProperty == "" {
		g.b.fail(&Error{Code: ErrCodeInvalidRule, Message: "remote property rule needs both field names"})
		return g
	}
	g.node.Children = append(g.node.Children, condition.FieldEquals(property, remoteProperty))
	return g
}

// AndRemoteValueEquals requires property to equal the parent-side literal
// remoteValue.
func (g *Group) AndRemoteValueEquals(property string, remoteValue value.Value) *Group {
	if property == "" {
		g.b.fail(&Error{Code: ErrCodeInvalidRule, Message: "remote value rule has no property"})
		return g
	}
	if remoteValue == nil {
		remoteValue = value.Null{}
	}
	g.node.Children = append(g.node.Children, &condition.TemplateRule{
		Op:          filter.OpEquals,
		ChildField:  property,
		ParentValue: remoteValue,
	})
	return g
}

// AndEncapsulate adds an AND subgroup and returns its handle.
func (g *Group) AndEncapsulate() *Group {
	return g.encapsulate(filter.OpAnd)
}

// OrEncapsulate adds an OR subgroup and returns its handle.
func (g *Group) OrEncapsulate() *Group {
	return g.encapsulate(filter.OpOr)
}

func (g *Group) encapsulate(op filter.Operator) *Group {
	child := &condition.TemplateGroup{Op: op}
	g.node.Children = append(g.node.Children, child)
	return &Group{b: g.b, node: child}
}
