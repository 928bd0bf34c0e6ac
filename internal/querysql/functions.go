package querysql

import (
	"bytes"
	"encoding/json"

	"github.com/roach88/relate/internal/value"
)

// Function is a deterministic scalar SQL function.
type Function struct {
	Name string
	Impl any
}

// Functions returns the SQL functions Select and Where rely on. The store
// registers them on every connection.
func Functions() []Function {
	return []Function{
		{Name: FuncEqual, Impl: LooseEqual},
		{Name: FuncCompare, Impl: LooseCompare},
	}
}

// LooseEqual is value.Equal over two JSON text arguments (see
// PropertyJSON). SQL NULL reads as null.
func LooseEqual(a, b any) bool {
	return value.Equal(fromJSON(a), fromJSON(b))
}

// LooseCompare is value.Compare over two JSON text arguments.
func LooseCompare(a, b any) int64 {
	return int64(value.Compare(fromJSON(a), fromJSON(b)))
}

// fromJSON decodes a JSON text argument. SQL NULL, which the driver passes
// as nil or an empty []byte, is null. Other arguments that are not valid
// JSON are taken as plain SQL values.
func fromJSON(arg any) value.Value {
	var text []byte
	switch a := arg.(type) {
	case nil:
		return value.Null{}
	case string:
		text = []byte(a)
	case []byte:
		if len(a) == 0 {
			return value.Null{}
		}
		text = a
	default:
		return fromSQL(arg)
	}

	dec := json.NewDecoder(bytes.NewReader(text))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil || dec.More() {
		return fromSQL(arg)
	}
	v, err := value.From(raw)
	if err != nil {
		return fromSQL(arg)
	}
	return v
}

// fromSQL converts a SQLite argument (nil, int64, float64, string or
// []byte) into a value.
func fromSQL(arg any) value.Value {
	v, err := value.From(arg)
	if err != nil {
		return value.Null{}
	}
	return v
}
