package model

import "strings"

// LookupField resolves a dot separated field path ("address.city") inside data.
// The boolean is false when any segment is missing.
func LookupField(data map[string]interface{}, fieldPath string) (interface{}, bool) {
	if data == nil || fieldPath == "" {
		return nil, false
	}
	if v, ok := data[fieldPath]; ok {
		return v, true
	}

	var current interface{} = data
	for _, segment := range strings.Split(fieldPath, ".") {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = m[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}
