// Package environment bundles everything one request needs to work with a
// container: its definition, the request input, the data providers and
// the base config registry.
//
// An Environment is request-scoped and not safe for concurrent use.
package environment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/relate/internal/basecfg"
	"github.com/roach88/relate/internal/condition"
	"github.com/roach88/relate/internal/definition"
	"github.com/roach88/relate/internal/filter"
	"github.com/roach88/relate/internal/model"
	"github.com/roach88/relate/internal/provider"
)

// Environment is the request-scoped view of one container.
type Environment struct {
	container *definition.Container
	providers *provider.Set
	input     basecfg.Input
	registry  *basecfg.Registry
	logger    *slog.Logger
}

// Option configures an Environment.
type Option func(*Environment)

// WithInput sets the request parameters. Default: no parameters.
func WithInput(input basecfg.Input) Option {
	return func(e *Environment) {
		e.input = input
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Environment) {
		e.logger = logger
	}
}

// New creates an environment for container over providers.
func New(container *definition.Container, providers *provider.Set, opts ...Option) *Environment {
	e := &Environment{
		container: container,
		providers: providers,
		input:     basecfg.Params{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.registry = basecfg.New(container, providers, e.input)
	return e
}

// Container returns the container definition.
func (e *Environment) Container() *definition.Container { return e.container }

// Providers returns the data providers.
func (e *Environment) Providers() *provider.Set { return e.providers }

// Input returns the request parameters.
func (e *Environment) Input() basecfg.Input { return e.input }

// BaseConfig returns the base configuration of the current provider under
// parent. See basecfg.Registry.
func (e *Environment) BaseConfig(ctx context.Context, parent *model.ID) (*provider.Config, error) {
	return e.registry.BaseConfig(ctx, parent)
}

// Children lists the records of the current provider under parent, in
// base config order.
func (e *Environment) Children(ctx context.Context, parent *model.ID) ([]*model.Record, error) {
	cfg, err := e.registry.BaseConfig(ctx, parent)
	if err != nil {
		return nil, err
	}
	current, err := e.providers.Get(e.container.Basic.DataProvider)
	if err != nil {
		return nil, err
	}

	records, err := current.FetchAll(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", current.Name(), err)
	}
	e.logger.Debug("children listed",
		"provider", current.Name(),
		"parent", parentToken(parent),
		"filter", filter.Format(cfg.Filter),
		"count", len(records),
	)
	return records, nil
}

// Parent returns the parent record of child, found with the inverse filter
// of the relationship into child's provider. Returns provider.ErrNotFound
// when no parent matches.
func (e *Environment) Parent(ctx context.Context, child model.Model) (*model.Record, error) {
	cond, err := e.conditionInto(child.ProviderName())
	if err != nil {
		return nil, err
	}

	node, err := cond.InverseFilterFor(child)
	if err != nil {
		return nil, err
	}
	parents, err := e.providers.Get(cond.Source)
	if err != nil {
		return nil, err
	}
	cfg := parents.EmptyConfig()
	cfg.Filter = node

	e.logger.Debug("fetching parent",
		"child", model.IDOf(child).Serialize(),
		"provider", cond.Source,
		"filter", filter.Format(node),
	)
	return parents.Fetch(ctx, cfg)
}

// IsChildOf reports whether child belongs under parent.
func (e *Environment) IsChildOf(parent, child model.Model) (bool, error) {
	cond := e.relationships().ChildCondition(parent.ProviderName(), child.ProviderName())
	if cond == nil {
		return false, e.noRelationship(parent.ProviderName(), child.ProviderName())
	}
	return cond.Matches(parent, child)
}

// IsRoot reports whether m is a root record. Without a root condition,
// every record of the root provider is a root.
func (e *Environment) IsRoot(m model.Model) (bool, error) {
	root := e.relationships().RootCondition()
	if root == nil {
		return m.ProviderName() == e.container.Basic.RootProvider(), nil
	}
	if root.Provider != "" && root.Provider != m.ProviderName() {
		return false, nil
	}
	return root.Matches(m)
}

// Roots lists the root records: the root provider filtered by the
// container's additional filter (when the root provider is the current
// provider) and the root condition.
func (e *Environment) Roots(ctx context.Context) ([]*model.Record, error) {
	basic := &e.container.Basic
	name := basic.RootProvider()
	root := e.relationships().RootCondition()
	if root != nil && root.Provider != "" {
		name = root.Provider
	}

	p, err := e.providers.Get(name)
	if err != nil {
		return nil, err
	}
	cfg := p.EmptyConfig()
	if name == basic.DataProvider && basic.AdditionalFilter != nil {
		cfg.Filter = filter.Clone(basic.AdditionalFilter)
	}
	if root != nil && root.Filter != nil {
		cfg.Filter = conjoin(cfg.Filter, filter.Clone(root.Filter))
	}
	if !cfg.HasSorting() {
		cfg.Sorting = slices.Clone(e.container.Listing.DefaultSorting)
	}

	records, err := p.FetchAll(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("list roots of %s: %w", name, err)
	}
	e.logger.Debug("roots listed", "provider", name, "filter", filter.Format(cfg.Filter), "count", len(records))
	return records, nil
}

// CreateChild creates and saves a new record of the current provider under
// parent, with the relationship setters applied.
func (e *Environment) CreateChild(ctx context.Context, parent model.Model) (*model.Record, error) {
	current, err := e.providers.Get(e.container.Basic.DataProvider)
	if err != nil {
		return nil, err
	}
	cond := e.relationships().ChildCondition(parent.ProviderName(), current.Name())
	if cond == nil {
		return nil, e.noRelationship(parent.ProviderName(), current.Name())
	}

	child := current.EmptyModel()
	if err := cond.ApplyTo(parent, child); err != nil {
		return nil, err
	}
	if err := current.Save(ctx, child); err != nil {
		return nil, fmt.Errorf("save child of %s: %w", model.IDOf(parent).Serialize(), err)
	}
	e.logger.Info("child created", "parent", model.IDOf(parent).Serialize(), "id", model.IDOf(child).Serialize())
	return child, nil
}

// CreateRoot creates and saves a new root record with the root setters
// applied.
func (e *Environment) CreateRoot(ctx context.Context) (*model.Record, error) {
	root := e.relationships().RootCondition()
	if root == nil {
		return nil, &Error{Code: ErrCodeNoRootCondition, Message: fmt.Sprintf("container %s has no root condition", e.container.Name)}
	}
	name := root.Provider
	if name == "" {
		name = e.container.Basic.RootProvider()
	}
	p, err := e.providers.Get(name)
	if err != nil {
		return nil, err
	}

	rec := p.EmptyModel()
	if err := root.ApplyTo(rec); err != nil {
		return nil, err
	}
	if err := p.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("save root: %w", err)
	}
	e.logger.Info("root created", "id", model.IDOf(rec).Serialize())
	return rec, nil
}

// PasteAfter moves rec next to sibling: it copies the relationship fields
// of sibling into rec and saves rec with the provider of sibling.
func (e *Environment) PasteAfter(ctx context.Context, sibling model.Model, rec *model.Record) error {
	cond, err := e.conditionInto(sibling.ProviderName())
	if err != nil {
		return err
	}
	if err := cond.CopyFrom(sibling, rec); err != nil {
		return err
	}

	p, err := e.providers.Get(sibling.ProviderName())
	if err != nil {
		return err
	}
	if err := p.Save(ctx, rec); err != nil {
		return fmt.Errorf("paste %s: %w", rec.ID(), err)
	}
	e.logger.Info("record pasted", "sibling", model.IDOf(sibling).Serialize(), "id", model.IDOf(rec).Serialize())
	return nil
}

// conditionInto returns the condition from the parent provider into
// destination.
func (e *Environment) conditionInto(destination string) (*condition.ParentChildCondition, error) {
	source := e.container.Basic.ParentProvider()
	if cond := e.relationships().ChildCondition(source, destination); cond != nil {
		return cond, nil
	}
	return nil, e.noRelationship(source, destination)
}

func (e *Environment) relationships() *condition.Definition {
	if e.container.Relationships == nil {
		return condition.NewDefinition()
	}
	return e.container.Relationships
}

func (e *Environment) noRelationship(source, destination string) error {
	return &Error{
		Code:    ErrCodeNoRelationship,
		Message: fmt.Sprintf("no relationship from %s to %s", source, destination),
	}
}

// IsNotFound reports whether err means no record matched.
func IsNotFound(err error) bool {
	return errors.Is(err, provider.ErrNotFound)
}

func conjoin(a, b filter.Node) filter.Node {
	if a == nil {
		return b
	}
	if and, ok := a.(*filter.Conjunction); ok && and.Op == filter.OpAnd {
		return filter.And(append(slices.Clone(and.Children), b)...)
	}
	return filter.And(a, b)
}

func parentToken(parent *model.ID) string {
	if parent == nil {
		return ""
	}
	return parent.Serialize()
}
