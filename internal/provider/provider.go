package provider

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/relate/internal/model"
)

// ErrNotFound is returned by Fetch when no record matches.
var ErrNotFound = errors.New("record not found")

// IDProperty is the property Save mirrors a record's id into, so
// conditions can reference the id like any other field.
const IDProperty = "id"

// Provider stores and fetches the records of one named source.
type Provider interface {
	// Name returns the source name; every record it returns carries it.
	Name() string

	// EmptyConfig returns a fresh configuration for this provider.
	EmptyConfig() *Config

	// EmptyModel returns a new unsaved record of this provider.
	EmptyModel() *model.Record

	// Fetch returns the first record matching cfg, or ErrNotFound.
	Fetch(ctx context.Context, cfg *Config) (*model.Record, error)

	// FetchAll returns every record matching cfg in sort order.
	FetchAll(ctx context.Context, cfg *Config) ([]*model.Record, error)

	// Save inserts or replaces r. Records without an id get a new one,
	// and an unset IDProperty is set to the id.
	Save(ctx context.Context, r *model.Record) error
}

// Set holds the providers of one container by name.
type Set struct {
	byName map[string]Provider
	order  []string
}

// NewSet creates a set from providers. Later providers replace earlier
// ones with the same name.
func NewSet(providers ...Provider) *Set {
	s := &Set{byName: make(map[string]Provider)}
	for _, p := range providers {
		s.Add(p)
	}
	return s
}

// Add registers p under its name.
func (s *Set) Add(p Provider) {
	if _, exists := s.byName[p.Name()]; !exists {
		s.order = append(s.order, p.Name())
	}
	s.byName[p.Name()] = p
}

// Get returns the named provider.
func (s *Set) Get(name string) (Provider, error) {
	p, ok := s.byName[name]
	if !ok {
		return nil, fmt.Errorf("unknown data provider %q", name)
	}
	return p, nil
}

// Names returns provider names in registration order.
func (s *Set) Names() []string {
	return slices.Clone(s.order)
}
