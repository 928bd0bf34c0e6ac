package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/relate/internal/value"
)

// marshalProps converts record properties to canonical JSON TEXT.
func marshalProps(props map[string]value.Value) (string, error) {
	if props == nil {
		props = map[string]value.Value{}
	}
	data, err := value.MarshalCanonical(props)
	if err != nil {
		return "", fmt.Errorf("marshal props: %w", err)
	}
	return string(data), nil
}

// unmarshalProps parses JSON TEXT into record properties.
// Numbers are decoded via json.Number so integers keep full precision.
func unmarshalProps(data string) (map[string]value.Value, error) {
	if data == "" {
		return map[string]value.Value{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("unmarshal props: %w", err)
	}

	props := make(map[string]value.Value, len(raw))
	for k, v := range raw {
		conv, err := value.From(v)
		if err != nil {
			return nil, fmt.Errorf("unmarshal props: %s: %w", k, err)
		}
		props[k] = conv
	}
	return props, nil
}
