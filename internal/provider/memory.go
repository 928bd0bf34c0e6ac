package provider

import (
	"cmp"
	"context"
	"slices"

	"github.com/roach88/relate/internal/filter"
	"github.com/roach88/relate/internal/model"
	"github.com/roach88/relate/internal/value"
)

// Memory is an in-memory Provider. Records are copied on the way in and
// out, so callers never alias stored state.
//
// Memory is not safe for concurrent use.
type Memory struct {
	name    string
	ids     IDGenerator
	records []*model.Record
}

// NewMemory creates an empty in-memory provider. A nil ids uses
// UUIDv7Generator.
func NewMemory(name string, ids IDGenerator) *Memory {
	if ids == nil {
		ids = UUIDv7Generator{}
	}
	return &Memory{name: name, ids: ids}
}

// Name implements Provider.
func (m *Memory) Name() string { return m.name }

// EmptyConfig implements Provider.
func (m *Memory) EmptyConfig() *Config { return &Config{} }

// EmptyModel implements Provider.
func (m *Memory) EmptyModel() *model.Record {
	return model.NewRecord(m.name, "", nil)
}

// Fetch implements Provider.
func (m *Memory) Fetch(ctx context.Context, cfg *Config) (*model.Record, error) {
	limited := cfg.Clone()
	if limited == nil {
		limited = &Config{}
	}
	limited.Limit = 1
	records, err := m.FetchAll(ctx, limited)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return records[0], nil
}

// FetchAll implements Provider. Filters are evaluated with filter.Evaluate,
// so LIKE is rejected.
func (m *Memory) FetchAll(ctx context.Context, cfg *Config) ([]*model.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = &Config{}
	}

	var out []*model.Record
	for _, r := range m.records {
		if cfg.ID != "" && r.ID() != cfg.ID {
			continue
		}
		if cfg.Filter != nil {
			ok, err := filter.Evaluate(r, cfg.Filter)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		out = append(out, r.Clone())
	}

	SortRecords(out, cfg.Sorting)
	if cfg.Limit > 0 && len(out) > cfg.Limit {
		out = out[:cfg.Limit]
	}
	return out, nil
}

// Save implements Provider.
func (m *Memory) Save(ctx context.Context, r *model.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.ID() == "" {
		r.SetID(m.ids.Generate())
	}
	if !r.HasProperty(IDProperty) {
		r.SetProperty(IDProperty, value.String(r.ID()))
	}
	stored := model.NewRecord(m.name, r.ID(), r.Properties())
	for i, existing := range m.records {
		if existing.ID() == r.ID() {
			m.records[i] = stored
			return nil
		}
	}
	m.records = append(m.records, stored)
	return nil
}

// Len returns the number of stored records.
func (m *Memory) Len() int {
	return len(m.records)
}

// SortRecords orders records by the sort fields using loose comparison,
// then by id.
func SortRecords(records []*model.Record, sorting []SortField) {
	slices.SortStableFunc(records, func(a, b *model.Record) int {
		for _, f := range sorting {
			c := value.Compare(a.Property(f.Property), b.Property(f.Property))
			if f.Direction == Desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return cmp.Compare(a.ID(), b.ID())
	})
}
