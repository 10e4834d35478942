package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeJSONObject decodes a JSON object, keeping integral numbers as int64.
func DecodeJSONObject(data []byte) (map[string]interface{}, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]interface{}{}, nil
	}
	v, err := decodeJSON(data)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return map[string]interface{}{}, nil
	}
	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("expected a JSON object, got %T", v)
	}
	return obj, nil
}

// ParseLiteral reads a filter value typed by a user. Valid JSON is decoded
// (so 42, true, null and "quoted" keep their types); anything else is taken
// as a plain string.
func ParseLiteral(raw string) interface{} {
	v, err := decodeJSON([]byte(raw))
	if err != nil {
		return raw
	}
	return v
}

// ParseLiteralList reads a JSON array, or a comma separated list of literals.
func ParseLiteralList(raw string) []interface{} {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	if strings.HasPrefix(trimmed, "[") {
		if v, err := decodeJSON([]byte(trimmed)); err == nil {
			if list, ok := v.([]interface{}); ok {
				return list
			}
		}
	}
	parts := strings.Split(trimmed, ",")
	values := make([]interface{}, 0, len(parts))
	for _, p := range parts {
		values = append(values, ParseLiteral(strings.TrimSpace(p)))
	}
	return values
}

func decodeJSON(data []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}
	return normalizeNumbers(v), nil
}

func normalizeNumbers(v interface{}) interface{} {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	case map[string]interface{}:
		for k, val := range t {
			t[k] = normalizeNumbers(val)
		}
		return t
	case []interface{}:
		for i, val := range t {
			t[i] = normalizeNumbers(val)
		}
		return t
	default:
		return v
	}
}
