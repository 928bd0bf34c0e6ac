package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalKeyOrder(t *testing.T) {
	data, err := MarshalCanonical(map[string]any{
		"zebra": Int(1),
		"apple": String("a"),
		"Apple": Bool(true),
	})
	require.NoError(t, err)
	assert.Equal(t, `{"Apple":true,"apple":"a","zebra":1}`, string(data))
}

func TestMarshalCanonicalNoHTMLEscape(t *testing.T) {
	data, err := MarshalCanonical(String("<a & b>"))
	require.NoError(t, err)
	assert.Equal(t, `"<a & b>"`, string(data))
}

func TestMarshalCanonicalEscapes(t *testing.T) {
	data, err := MarshalCanonical("q\"b\\n\n\x01")
	require.NoError(t, err)
	assert.Equal(t, `"q\"b\\n\n\u0001"`, string(data))
}

func TestMarshalCanonicalNFC(t *testing.T) {
	// "e" + combining acute accent normalizes to the precomposed form.
	data, err := MarshalCanonical(String("e\u0301"))
	require.NoError(t, err)
	assert.Equal(t, "\"\u00e9\"", string(data))
}

func TestMarshalCanonicalNested(t *testing.T) {
	data, err := MarshalCanonical(map[string]any{
		"list":  List{Int(1), Null{}, Float(2.5)},
		"plain": []any{"x", int64(2), 3},
		"inner": map[string]Value{"b": Int(2), "a": Int(1)},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"inner":{"a":1,"b":2},"list":[1,null,2.5],"plain":["x",2,3]}`, string(data))
}

func TestMarshalCanonicalFloatIntegral(t *testing.T) {
	data, err := MarshalCanonical(Float(3))
	require.NoError(t, err)
	assert.Equal(t, "3", string(data))
}

func TestMarshalCanonicalRejects(t *testing.T) {
	_, err := MarshalCanonical(struct{}{})
	require.Error(t, err)

	_, err = MarshalCanonical([]any{struct{}{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "array[0]")
}

func TestCompareKeysRFC8785(t *testing.T) {
	assert.Negative(t, compareKeysRFC8785("A", "a"))
	assert.Negative(t, compareKeysRFC8785("a", "aa"))
	assert.Zero(t, compareKeysRFC8785("x", "x"))
	// U+FF61 (BMP) sorts after U+1F600 (surrogate pair 0xD83D...) in UTF-16.
	assert.Positive(t, compareKeysRFC8785("｡", "\U0001F600"))
}
