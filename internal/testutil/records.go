package testutil

import (
	"github.com/roach88/relate/internal/model"
	"github.com/roach88/relate/internal/value"
)

// Record builds a record from plain Go values. Panics on values
// value.From cannot convert.
func Record(provider, id string, props map[string]any) *model.Record {
	values := make(map[string]value.Value, len(props))
	for k, v := range props {
		values[k] = value.MustFrom(v)
	}
	return model.NewRecord(provider, id, values)
}
