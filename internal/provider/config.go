// Package provider defines the data provider contract the engine queries
// through, the query configuration handed to it, and an in-memory
// implementation.
package provider

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/relate/internal/filter"
)

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// ParseDirection converts s (case-insensitive) to a Direction. "" is Asc.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(s) {
	case "", string(Asc):
		return Asc, nil
	case string(Desc):
		return Desc, nil
	default:
		return "", fmt.Errorf("invalid sort direction %q", s)
	}
}

// SortField orders results by one property.
type SortField struct {
	Property  string
	Direction Direction
}

// Config scopes a provider query: an optional id, an optional filter, sort
// fields and a row limit.
type Config struct {
	// ID selects a single record when set.
	ID string

	// Filter restricts results. nil matches every record.
	Filter filter.Node

	// Sorting orders results. Ties are broken by id.
	Sorting []SortField

	// Limit caps the number of results. 0 means no limit.
	Limit int
}

// Clone returns a deep copy of c. Clone(nil) is nil.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	return &Config{
		ID:      c.ID,
		Filter:  filter.Clone(c.Filter),
		Sorting: slices.Clone(c.Sorting),
		Limit:   c.Limit,
	}
}

// HasSorting reports whether sort fields are set.
func (c *Config) HasSorting() bool {
	return len(c.Sorting) > 0
}
