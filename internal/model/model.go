// Package model defines the record abstraction the relationship engine reads
// and writes, and the identity token used to address a record across data
// providers.
package model

import (
	"maps"
	"slices"

	"github.com/roach88/relate/internal/value"
)

// Model is a named-property bag identified by (provider name, id).
//
// The engine never creates or destroys models; it only reads and writes
// properties on models handed to it by a data provider.
type Model interface {
	// ProviderName returns the name of the data source owning this model.
	ProviderName() string

	// ID returns the model id, or "" for a model that was never saved.
	ID() string

	// Property returns the named property, or value.Null{} when unset.
	Property(name string) value.Value

	// SetProperty writes the named property.
	SetProperty(name string, v value.Value)
}

// Record is the map-backed Model used by every provider in this module.
type Record struct {
	provider string
	id       string
	props    map[string]value.Value
}

// NewRecord creates a record for the given provider. props is copied.
func NewRecord(provider, id string, props map[string]value.Value) *Record {
	r := &Record{
		provider: provider,
		id:       id,
		props:    make(map[string]value.Value, len(props)),
	}
	maps.Copy(r.props, props)
	return r
}

// ProviderName implements Model.
func (r *Record) ProviderName() string { return r.provider }

// ID implements Model.
func (r *Record) ID() string { return r.id }

// SetID assigns the id. Providers call this when persisting a new record.
func (r *Record) SetID(id string) { r.id = id }

// Property implements Model.
func (r *Record) Property(name string) value.Value {
	if v, ok := r.props[name]; ok && v != nil {
		return v
	}
	return value.Null{}
}

// SetProperty implements Model.
func (r *Record) SetProperty(name string, v value.Value) {
	if v == nil {
		v = value.Null{}
	}
	r.props[name] = v
}

// HasProperty reports whether the property was ever set.
func (r *Record) HasProperty(name string) bool {
	_, ok := r.props[name]
	return ok
}

// Properties returns a copy of all properties.
func (r *Record) Properties() map[string]value.Value {
	return maps.Clone(r.props)
}

// PropertyNames returns the property names in sorted order.
func (r *Record) PropertyNames() []string {
	return slices.Sorted(maps.Keys(r.props))
}

// Clone returns an independent copy of the record.
func (r *Record) Clone() *Record {
	return NewRecord(r.provider, r.id, r.props)
}
