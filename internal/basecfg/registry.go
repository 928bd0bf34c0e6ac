// Package basecfg builds and memoizes the base query configuration of the
// current data provider, optionally scoped to one parent record.
package basecfg

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/relate/internal/condition"
	"github.com/roach88/relate/internal/definition"
	"github.com/roach88/relate/internal/filter"
	"github.com/roach88/relate/internal/model"
	"github.com/roach88/relate/internal/provider"
)

// ParentParameter is the request parameter naming the implicit parent in
// PARENTEDLIST mode, as a serialized model.ID.
const ParentParameter = "pid"

// Input reads request parameters.
type Input interface {
	// Parameter returns the named parameter and whether it was given.
	Parameter(name string) (string, bool)
}

// Params is a map-backed Input.
type Params map[string]string

// Parameter implements Input.
func (p Params) Parameter(name string) (string, bool) {
	v, ok := p[name]
	return v, ok
}

// Registry caches base configurations by parent id for one request.
//
// Entries are never invalidated. Every read returns a deep copy, so
// callers may modify the result freely.
//
// Registry is not safe for concurrent use.
type Registry struct {
	container *definition.Container
	providers *provider.Set
	input     Input
	cache     map[string]*provider.Config
}

// New creates a registry. A nil input behaves as an empty request.
func New(container *definition.Container, providers *provider.Set, input Input) *Registry {
	if input == nil {
		input = Params{}
	}
	return &Registry{
		container: container,
		providers: providers,
		input:     input,
		cache:     make(map[string]*provider.Config),
	}
}

// BaseConfig returns the configuration for listing the current provider
// under parent. A nil parent means no explicit parent; in PARENTEDLIST mode
// the parent is then taken from the "pid" parameter.
func (r *Registry) BaseConfig(ctx context.Context, parent *model.ID) (*provider.Config, error) {
	key := ""
	if parent != nil {
		key = parent.Serialize()
	}

	if cfg, ok := r.cache[key]; ok {
		return cfg.Clone(), nil
	}

	cfg, err := r.build(ctx, parent)
	if err != nil {
		return nil, err
	}
	r.cache[key] = cfg
	return cfg.Clone(), nil
}

// Cached reports how many configurations are cached.
func (r *Registry) Cached() int {
	return len(r.cache)
}

func (r *Registry) build(ctx context.Context, parent *model.ID) (*provider.Config, error) {
	basic := &r.container.Basic

	current, err := r.providers.Get(basic.DataProvider)
	if err != nil {
		return nil, err
	}

	cfg := current.EmptyConfig()
	if basic.AdditionalFilter != nil {
		cfg.Filter = filter.Clone(basic.AdditionalFilter)
	}
	if !cfg.HasSorting() {
		cfg.Sorting = slices.Clone(r.container.Listing.DefaultSorting)
	}

	if parent == nil && basic.Mode == definition.ModeParentedList {
		if parent, err = r.implicitParent(); err != nil {
			return nil, err
		}
	}
	if parent == nil {
		return cfg, nil
	}

	bound, err := r.parentFilter(ctx, *parent)
	if err != nil {
		return nil, err
	}
	cfg.Filter = merge(cfg.Filter, bound)
	return cfg, nil
}

func (r *Registry) implicitParent() (*model.ID, error) {
	token, ok := r.input.Parameter(ParentParameter)
	if !ok || token == "" {
		return nil, nil
	}
	id, err := model.ParseID(token)
	if err != nil {
		return nil, &Error{Code: ErrCodeInvalidParentID, Message: err.Error(), Parent: token}
	}
	return &id, nil
}

func (r *Registry) parentFilter(ctx context.Context, parent model.ID) (filter.Node, error) {
	basic := &r.container.Basic
	var cond *condition.ParentChildCondition
	if r.container.Relationships != nil {
		cond = r.container.Relationships.ChildCondition(basic.ParentProvider(), basic.DataProvider)
	}
	if cond == nil {
		return nil, &Error{
			Code:    ErrCodeNoCondition,
			Message: fmt.Sprintf("no relationship from %s to %s", basic.ParentProvider(), basic.DataProvider),
			Parent:  parent.Serialize(),
		}
	}

	if parent.Provider != cond.Source {
		return nil, &Error{
			Code:    ErrCodeUnexpectedParentProvider,
			Message: fmt.Sprintf("unexpected parent provider %s, expected %s", parent.Provider, cond.Source),
			Parent:  parent.Serialize(),
		}
	}

	parentProvider, err := r.providers.Get(cond.Source)
	if err != nil {
		return nil, err
	}
	query := parentProvider.EmptyConfig()
	query.ID = parent.ID
	record, err := parentProvider.Fetch(ctx, query)
	if errors.Is(err, provider.ErrNotFound) {
		return nil, &Error{Code: ErrCodeParentNotFound, Message: "parent item not found", Parent: parent.Serialize()}
	}
	if err != nil {
		return nil, fmt.Errorf("fetch parent %s: %w", parent.Serialize(), err)
	}

	return cond.FilterFor(record)
}

// merge appends bound to the rules of existing under one AND.
func merge(existing, bound filter.Node) filter.Node {
	if existing == nil {
		return bound
	}
	var children []filter.Node
	if and, ok := existing.(*filter.Conjunction); ok && and.Op == filter.OpAnd {
		children = append(children, and.Children...)
	} else {
		children = append(children, existing)
	}
	return filter.And(append(children, bound)...)
}
