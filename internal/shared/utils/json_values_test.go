package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLiteral(t *testing.T) {
	assert.Equal(t, int64(42), ParseLiteral("42"))
	assert.Equal(t, 1.5, ParseLiteral("1.5"))
	assert.Equal(t, true, ParseLiteral("true"))
	assert.Nil(t, ParseLiteral("null"))
	assert.Equal(t, "quoted", ParseLiteral(`"quoted"`))
	assert.Equal(t, "plain text", ParseLiteral("plain text"))
	assert.Equal(t, "42abc", ParseLiteral("42abc"))
	assert.Equal(t, "", ParseLiteral(""))
}

func TestParseLiteralList(t *testing.T) {
	assert.Equal(t, []interface{}{"a", int64(2), true}, ParseLiteralList(`["a", 2, true]`))
	assert.Equal(t, []interface{}{"a", int64(2), "b c"}, ParseLiteralList("a, 2,b c"))
	assert.Nil(t, ParseLiteralList("  "))
}

func TestDecodeJSONObject(t *testing.T) {
	obj, err := DecodeJSONObject([]byte(`{"n": 3, "f": 0.5, "nested": {"list": [1, "x"]}}`))
	require.NoError(t, err)
	assert.Equal(t, int64(3), obj["n"])
	assert.Equal(t, 0.5, obj["f"])
	assert.Equal(t, []interface{}{int64(1), "x"}, obj["nested"].(map[string]interface{})["list"])

	empty, err := DecodeJSONObject(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = DecodeJSONObject([]byte(`[1]`))
	assert.Error(t, err)
	_, err = DecodeJSONObject([]byte(`{"a":1} {"b":2}`))
	assert.Error(t, err)
}
