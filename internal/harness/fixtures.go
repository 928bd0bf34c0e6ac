package harness

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/relate/internal/model"
	"github.com/roach88/relate/internal/provider"
	"github.com/roach88/relate/internal/value"
)

// Fixtures maps provider names to the property maps of their records.
type Fixtures map[string][]map[string]any

// LoadFixtures reads a fixtures YAML file:
//
//	tl_page:
//	  - { id: 1, pid: 0, title: "Home" }
func LoadFixtures(path string) (Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures file: %w", err)
	}
	var fixtures Fixtures
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(&fixtures); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return fixtures, nil
}

// Seed saves every fixture record with its provider, providers in name
// order. Returns the number of saved records.
func Seed(ctx context.Context, providers *provider.Set, fixtures Fixtures) (int, error) {
	saved := 0
	for _, name := range slices.Sorted(maps.Keys(fixtures)) {
		p, err := providers.Get(name)
		if err != nil {
			return saved, fmt.Errorf("fixtures: %w", err)
		}
		for i, props := range fixtures[name] {
			rec, err := FixtureRecord(name, props)
			if err != nil {
				return saved, fmt.Errorf("fixtures.%s[%d]: %w", name, i, err)
			}
			if err := p.Save(ctx, rec); err != nil {
				return saved, fmt.Errorf("fixtures.%s[%d]: save: %w", name, i, err)
			}
			saved++
		}
	}
	return saved, nil
}

// FixtureRecord builds a record from a property map. The record id is the
// "id" property, which must be a string or an integer.
func FixtureRecord(providerName string, props map[string]any) (*model.Record, error) {
	var id string
	switch raw := props[provider.IDProperty].(type) {
	case string:
		id = raw
	case int:
		id = fmt.Sprint(raw)
	case int64:
		id = fmt.Sprint(raw)
	default:
		return nil, fmt.Errorf("id must be a string or integer, got %T", raw)
	}
	if id == "" {
		return nil, fmt.Errorf("id is empty")
	}

	converted := make(map[string]value.Value, len(props))
	for k, v := range props {
		cv, err := value.From(v)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", k, err)
		}
		converted[k] = cv
	}
	return model.NewRecord(providerName, id, converted), nil
}
