package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/huandu/go-sqlbuilder"

	"github.com/roach88/relate/internal/model"
	"github.com/roach88/relate/internal/provider"
	"github.com/roach88/relate/internal/querysql"
	"github.com/roach88/relate/internal/value"
)

// Provider is a provider.Provider over one source of a Store.
type Provider struct {
	store *Store
	name  string
	ids   provider.IDGenerator
}

var _ provider.Provider = (*Provider)(nil)

// Provider returns the data provider for source. A nil ids uses
// provider.UUIDv7Generator.
func (s *Store) Provider(source string, ids provider.IDGenerator) *Provider {
	if ids == nil {
		ids = provider.UUIDv7Generator{}
	}
	return &Provider{store: s, name: source, ids: ids}
}

// Name implements provider.Provider.
func (p *Provider) Name() string { return p.name }

// EmptyConfig implements provider.Provider.
func (p *Provider) EmptyConfig() *provider.Config { return &provider.Config{} }

// EmptyModel implements provider.Provider.
func (p *Provider) EmptyModel() *model.Record {
	return model.NewRecord(p.name, "", nil)
}

// Fetch implements provider.Provider.
func (p *Provider) Fetch(ctx context.Context, cfg *provider.Config) (*model.Record, error) {
	limited := cfg.Clone()
	if limited == nil {
		limited = &provider.Config{}
	}
	limited.Limit = 1

	records, err := p.FetchAll(ctx, limited)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, provider.ErrNotFound
	}
	return records[0], nil
}

// FetchAll implements provider.Provider.
func (p *Provider) FetchAll(ctx context.Context, cfg *provider.Config) ([]*model.Record, error) {
	query, args, err := querysql.Select(p.name, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.name, err)
	}
	slog.Debug("fetching records", "source", p.name, "sql", query, "args", len(args))

	rows, err := p.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", p.name, err)
	}
	defer rows.Close()

	var out []*model.Record
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("scan %s: %w", p.name, err)
		}
		props, err := unmarshalProps(data)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", p.name, id, err)
		}
		out = append(out, model.NewRecord(p.name, id, props))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", p.name, err)
	}
	return out, nil
}

// Save implements provider.Provider. New records get an id from the
// generator and an "id" property mirroring it.
func (p *Provider) Save(ctx context.Context, r *model.Record) error {
	if r.ID() == "" {
		r.SetID(p.ids.Generate())
	}
	if !r.HasProperty(provider.IDProperty) {
		r.SetProperty(provider.IDProperty, value.String(r.ID()))
	}

	data, err := marshalProps(r.Properties())
	if err != nil {
		return fmt.Errorf("%s %s: %w", p.name, r.ID(), err)
	}

	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.ReplaceInto(querysql.Table)
	ib.Cols(querysql.ColumnSource, querysql.ColumnID, querysql.ColumnProps)
	ib.Values(p.name, r.ID(), data)
	query, args := ib.Build()

	if _, err := p.store.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save %s %s: %w", p.name, r.ID(), err)
	}
	slog.Debug("record saved", "source", p.name, "id", r.ID())
	return nil
}

// Delete removes the record with id. Missing records are not an error.
func (p *Provider) Delete(ctx context.Context, id string) error {
	db := sqlbuilder.SQLite.NewDeleteBuilder()
	db.DeleteFrom(querysql.Table)
	db.Where(db.Equal(querysql.ColumnSource, p.name), db.Equal(querysql.ColumnID, id))
	query, args := db.Build()

	if _, err := p.store.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete %s %s: %w", p.name, id, err)
	}
	return nil
}
