package condition

import (
	"fmt"
	"slices"

	"github.com/roach88/relate/internal/filter"
	"github.com/roach88/relate/internal/model"
	"github.com/roach88/relate/internal/value"
)

// ParentChildCondition relates records of the Source (parent) provider to
// records of the Destination (child) provider.
type ParentChildCondition struct {
	Source      string
	Destination string

	// Filter is bound to a parent to select its children.
	Filter Template

	// Inverse is bound to a child to select its parent. Optional.
	Inverse Template

	// Setters stamp the relationship onto a child.
	Setters []Setter

	// CopyDeclaredSource makes CopyFrom read each setter's FromField from the
	// sibling. By default CopyFrom reads ToField, the field being written.
	CopyDeclaredSource bool
}

// FilterFor returns the filter selecting the children of parent. The
// filter is evaluated against destination records.
func (c *ParentChildCondition) FilterFor(parent model.Model) (filter.Node, error) {
	if parent == nil {
		return nil, c.errorf(ErrCodeMissingContext, "filter requested without a parent record")
	}
	if c.Filter == nil {
		return nil, c.errorf(ErrCodeMissingFilter, "condition has no filter")
	}
	node, err := bindTemplate(c.Filter, func(r *TemplateRule) (filter.Node, error) {
		if r.ChildField == "" {
			return nil, c.errorf(ErrCodeMalformedTemplate, "filter rule has no child field")
		}
		return filter.NewComparison(r.Op, filter.Field(r.ChildField), c.parentSide(r, parent))
	})
	if err != nil {
		return nil, c.wrap(err)
	}
	return node, nil
}

// InverseFilterFor returns the filter selecting the parent of child. The
// filter is evaluated against source records.
func (c *ParentChildCondition) InverseFilterFor(child model.Model) (filter.Node, error) {
	if child == nil {
		return nil, c.errorf(ErrCodeMissingContext, "inverse filter requested without a child record")
	}
	if c.Inverse == nil {
		return nil, c.errorf(ErrCodeNoInverseFilter, "condition has no inverse filter")
	}
	node, err := bindTemplate(c.Inverse, func(r *TemplateRule) (filter.Node, error) {
		if r.ParentField == "" {
			return nil, c.errorf(ErrCodeMalformedTemplate, "inverse rule has no parent field")
		}
		childSide := orNull(r.Value)
		if r.ChildField != "" {
			childSide = child.Property(r.ChildField)
		}
		return filter.NewComparison(r.Op, filter.Field(r.ParentField), childSide)
	})
	if err != nil {
		return nil, c.wrap(err)
	}
	return node, nil
}

// Matches reports whether child is a child of parent.
//
// Every rule is bound to literals on both sides, with the same operand
// order as FilterFor, so Matches(p, c) agrees with evaluating
// FilterFor(p) against c.
func (c *ParentChildCondition) Matches(parent, child model.Model) (bool, error) {
	if parent == nil || child == nil {
		return false, c.errorf(ErrCodeMissingContext, "match requested without both parent and child records")
	}
	if c.Filter == nil {
		return false, c.errorf(ErrCodeMissingFilter, "condition has no filter")
	}
	node, err := bindTemplate(c.Filter, func(r *TemplateRule) (filter.Node, error) {
		if r.ChildField == "" {
			return nil, c.errorf(ErrCodeMalformedTemplate, "filter rule has no child field")
		}
		left := filter.Literal{Value: child.Property(r.ChildField)}
		return filter.NewComparison(r.Op, left, c.parentSide(r, parent))
	})
	if err != nil {
		return false, c.wrap(err)
	}
	return filter.Evaluate(parent, node)
}

// ApplyTo stamps the relationship onto child so that it becomes a child of
// parent.
func (c *ParentChildCondition) ApplyTo(parent, child model.Model) error {
	if parent == nil || child == nil {
		return c.errorf(ErrCodeMissingContext, "setters applied without both parent and child records")
	}
	if err := c.checkSetters(); err != nil {
		return err
	}
	for _, s := range c.Setters {
		if s.FromField != "" {
			child.SetProperty(s.ToField, parent.Property(s.FromField))
		} else {
			child.SetProperty(s.ToField, s.Value)
		}
	}
	return nil
}

// CopyFrom copies the relationship fields from sibling onto dest, making
// dest a child of the same parent.
//
// For setters with a FromField, the value is read from sibling[ToField]
// unless CopyDeclaredSource is set, in which case sibling[FromField] is read.
func (c *ParentChildCondition) CopyFrom(sibling, dest model.Model) error {
	if sibling == nil || dest == nil {
		return c.errorf(ErrCodeMissingContext, "copy requested without both sibling and destination records")
	}
	if err := c.checkSetters(); err != nil {
		return err
	}
	for _, s := range c.Setters {
		switch {
		case s.FromField == "":
			dest.SetProperty(s.ToField, s.Value)
		case c.CopyDeclaredSource:
			dest.SetProperty(s.ToField, sibling.Property(s.FromField))
		default:
			dest.SetProperty(s.ToField, sibling.Property(s.ToField))
		}
	}
	return nil
}

// Clone returns a deep copy of c.
func (c *ParentChildCondition) Clone() *ParentChildCondition {
	if c == nil {
		return nil
	}
	out := *c
	out.Filter = CloneTemplate(c.Filter)
	out.Inverse = CloneTemplate(c.Inverse)
	out.Setters = slices.Clone(c.Setters)
	for i := range out.Setters {
		out.Setters[i].Value = cloneValue(out.Setters[i].Value)
	}
	return &out
}

func (c *ParentChildCondition) parentSide(r *TemplateRule, parent model.Model) value.Value {
	switch {
	case r.ParentField != "":
		return parent.Property(r.ParentField)
	case r.ParentValue != nil && !value.IsNull(r.ParentValue):
		return r.ParentValue
	default:
		return orNull(r.Value)
	}
}

func (c *ParentChildCondition) checkSetters() error {
	if len(c.Setters) == 0 {
		return c.errorf(ErrCodeMalformedSetter, "condition has no setters")
	}
	for i, s := range c.Setters {
		if err := s.validate(i); err != nil {
			return c.errorf(ErrCodeMalformedSetter, "%s", err.Error())
		}
	}
	return nil
}

func (c *ParentChildCondition) errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:        code,
		Message:     fmt.Sprintf(format, args...),
		Source:      c.Source,
		Destination: c.Destination,
	}
}

// wrap attaches the condition's providers to errors from binding.
func (c *ParentChildCondition) wrap(err error) error {
	if ce, ok := err.(*Error); ok {
		if ce.Source == "" && ce.Destination == "" {
			ce.Source, ce.Destination = c.Source, c.Destination
		}
		return ce
	}
	return fmt.Errorf("%s -> %s: %w", c.Source, c.Destination, err)
}
