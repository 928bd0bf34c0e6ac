// Package definition describes one container: which data providers back
// it, how they are browsed, and how their records relate.
package definition

import (
	"fmt"
	"slices"

	"github.com/roach88/relate/internal/condition"
	"github.com/roach88/relate/internal/filter"
	"github.com/roach88/relate/internal/provider"
)

// Mode is the browsing mode of a container.
type Mode string

const (
	// ModeFlat lists records of the current provider without parent
	// scoping.
	ModeFlat Mode = "FLAT"

	// ModeParentedList lists the children of exactly one parent, taken
	// from the "pid" request parameter unless passed explicitly.
	ModeParentedList Mode = "PARENTEDLIST"

	// ModeHierarchical browses a tree; callers pass the parent of each
	// level explicitly.
	ModeHierarchical Mode = "HIERARCHICAL"
)

// Modes lists every mode.
var Modes = []Mode{ModeFlat, ModeParentedList, ModeHierarchical}

// ParseMode converts s to a Mode.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !slices.Contains(Modes, m) {
		return "", fmt.Errorf("invalid mode %q", s)
	}
	return m, nil
}

// Basic is the basic definition of a container.
type Basic struct {
	Mode Mode

	// DataProvider is the current provider: the one being listed.
	DataProvider string

	// ParentDataProvider is the parent provider in PARENTEDLIST mode.
	ParentDataProvider string

	// RootDataProvider is the provider of root records in HIERARCHICAL
	// mode. Empty means DataProvider.
	RootDataProvider string

	// AdditionalFilter is always applied to the current provider.
	AdditionalFilter filter.Node
}

// RootProvider returns the provider of root records.
func (b *Basic) RootProvider() string {
	if b.RootDataProvider != "" {
		return b.RootDataProvider
	}
	return b.DataProvider
}

// ParentProvider returns the declared parent provider. Empty means
// DataProvider, so a hierarchical container nests records of one provider.
func (b *Basic) ParentProvider() string {
	if b.ParentDataProvider != "" {
		return b.ParentDataProvider
	}
	return b.DataProvider
}

// Listing is the listing configuration of a container.
type Listing struct {
	// DefaultSorting is used when a query configuration has no sorting.
	DefaultSorting []provider.SortField
}

// ProviderSpec declares one data provider of the container.
type ProviderSpec struct {
	Name string

	// Backend selects the storage: "memory" or "sqlite".
	Backend string
}

// Container is a complete container definition.
type Container struct {
	Name          string
	Basic         Basic
	Listing       Listing
	Providers     []ProviderSpec
	Relationships *condition.Definition
}

// New creates a container with an empty relationship definition.
func New(name string) *Container {
	return &Container{Name: name, Relationships: condition.NewDefinition()}
}

// ProviderNames returns the declared provider names in order.
func (c *Container) ProviderNames() []string {
	names := make([]string, len(c.Providers))
	for i, p := range c.Providers {
		names[i] = p.Name
	}
	return names
}

// Clone returns a deep copy of c.
func (c *Container) Clone() *Container {
	out := &Container{
		Name:      c.Name,
		Basic:     c.Basic,
		Listing:   Listing{DefaultSorting: slices.Clone(c.Listing.DefaultSorting)},
		Providers: slices.Clone(c.Providers),
	}
	out.Basic.AdditionalFilter = filter.Clone(c.Basic.AdditionalFilter)
	if c.Relationships != nil {
		out.Relationships = c.Relationships.Clone()
	}
	return out
}
