package model

import (
	"fmt"
	"strings"
)

// idSeparator separates the provider name from the id in serialized form.
const idSeparator = "::"

// ID identifies one record: the data provider name plus the record id.
//
// Its serialized form "provider::id" is used both as the "pid" request
// parameter and as the base config cache key.
type ID struct {
	Provider string
	ID       string
}

// NewID creates an ID.
func NewID(provider, id string) ID {
	return ID{Provider: provider, ID: id}
}

// IDOf returns the ID of a model.
func IDOf(m Model) ID {
	return ID{Provider: m.ProviderName(), ID: m.ID()}
}

// Serialize returns the "provider::id" token.
func (id ID) Serialize() string {
	return id.Provider + idSeparator + id.ID
}

// String implements fmt.Stringer.
func (id ID) String() string {
	return id.Serialize()
}

// ParseID parses a "provider::id" token. The token is split on the first
// separator, so ids may themselves contain "::".
func ParseID(token string) (ID, error) {
	provider, id, found := strings.Cut(token, idSeparator)
	if !found {
		return ID{}, fmt.Errorf("invalid model id %q: missing %q separator", token, idSeparator)
	}
	if provider == "" {
		return ID{}, fmt.Errorf("invalid model id %q: empty provider name", token)
	}
	if id == "" {
		return ID{}, fmt.Errorf("invalid model id %q: empty id", token)
	}
	return ID{Provider: provider, ID: id}, nil
}
