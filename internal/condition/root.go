package condition

import (
	"slices"

	"github.com/roach88/relate/internal/filter"
	"github.com/roach88/relate/internal/model"
)

// RootCondition recognizes and creates root records of one provider.
type RootCondition struct {
	// Provider is the data provider whose root records this describes.
	Provider string

	// Filter selects root records. A nil filter makes every record a root.
	// It must only compare fields of the candidate record against literals.
	Filter filter.Node

	// Setters turn a record into a root record.
	Setters []RootSetter
}

// Matches reports whether m is a root record.
func (c *RootCondition) Matches(m model.Model) (bool, error) {
	if c.Filter == nil {
		return true, nil
	}
	if m == nil {
		return false, &Error{Code: ErrCodeMissingContext, Message: "root condition matched without a record"}
	}
	return filter.Evaluate(m, c.Filter)
}

// ApplyTo writes every setter onto m.
//
// A root condition without setters is evaluation-only and cannot create
// root records.
func (c *RootCondition) ApplyTo(m model.Model) error {
	if m == nil {
		return &Error{Code: ErrCodeMissingContext, Message: "root condition applied without a record"}
	}
	if len(c.Setters) == 0 {
		return &Error{Code: ErrCodeMalformedSetter, Message: "root condition for " + c.Provider + " has no setters"}
	}
	for i, s := range c.Setters {
		if err := s.validate(i); err != nil {
			return &Error{Code: ErrCodeMalformedSetter, Message: err.Error()}
		}
	}
	for _, s := range c.Setters {
		m.SetProperty(s.Property, s.Value)
	}
	return nil
}

// Clone returns a deep copy of c.
func (c *RootCondition) Clone() *RootCondition {
	if c == nil {
		return nil
	}
	out := &RootCondition{
		Provider: c.Provider,
		Filter:   filter.Clone(c.Filter),
		Setters:  slices.Clone(c.Setters),
	}
	for i := range out.Setters {
		out.Setters[i].Value = cloneValue(out.Setters[i].Value)
	}
	return out
}
