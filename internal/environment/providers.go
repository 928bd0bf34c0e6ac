package environment

import (
	"fmt"

	"github.com/roach88/relate/internal/definition"
	"github.com/roach88/relate/internal/provider"
	"github.com/roach88/relate/internal/store"
)

// Backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// OpenProviders creates the data providers declared by c. An empty backend
// means BackendMemory. SQLite providers share s, which may be nil when no
// provider needs it.
func OpenProviders(c *definition.Container, s *store.Store, ids provider.IDGenerator) (*provider.Set, error) {
	set := provider.NewSet()
	for _, spec := range c.Providers {
		switch spec.Backend {
		case "", BackendMemory:
			set.Add(provider.NewMemory(spec.Name, ids))
		case BackendSQLite:
			if s == nil {
				return nil, fmt.Errorf("provider %s: sqlite backend requires a database", spec.Name)
			}
			set.Add(s.Provider(spec.Name, ids))
		default:
			return nil, &Error{
				Code:    ErrCodeUnknownBackend,
				Message: fmt.Sprintf("provider %s: unknown backend %q", spec.Name, spec.Backend),
			}
		}
	}
	return set, nil
}

// NeedsStore reports whether any provider of c uses the SQLite backend.
func NeedsStore(c *definition.Container) bool {
	for _, spec := range c.Providers {
		if spec.Backend == BackendSQLite {
			return true
		}
	}
	return false
}
