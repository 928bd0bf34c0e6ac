package condition

import (
	"fmt"

	"github.com/roach88/relate/internal/value"
)

// Setter assigns one relationship field on a child record: ToField receives
// either the parent's FromField property or the literal Value.
type Setter struct {
	ToField   string
	FromField string
	Value     value.Value
}

// FromParent returns a setter copying parent[from] into child[to].
func FromParent(to, from string) Setter {
	return Setter{ToField: to, FromField: from}
}

// FixedValue returns a setter writing v into child[to].
func FixedValue(to string, v value.Value) Setter {
	return Setter{ToField: to, Value: v}
}

func (s Setter) validate(i int) error {
	if s.ToField == "" {
		return fmt.Errorf("setter[%d] has no target field", i)
	}
	hasFrom := s.FromField != ""
	hasValue := s.Value != nil
	if hasFrom == hasValue {
		return fmt.Errorf("setter[%d] for %q needs exactly one of a source field or a literal value", i, s.ToField)
	}
	return nil
}

// RootSetter writes a literal value onto a record to make it a root record.
type RootSetter struct {
	Property string
	Value    value.Value
}

func (s RootSetter) validate(i int) error {
	if s.Property == "" {
		return fmt.Errorf("setter[%d] has no property", i)
	}
	if s.Value == nil {
		return fmt.Errorf("setter[%d] for %q has no value", i, s.Property)
	}
	return nil
}
