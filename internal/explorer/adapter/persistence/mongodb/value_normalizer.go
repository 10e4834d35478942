package mongodb

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// normalizeData converts decoded BSON into the plain Go values the view
// service compares: maps, []interface{}, time.Time and []byte.
func normalizeData(data map[string]interface{}) map[string]interface{} {
	if data == nil {
		return map[string]interface{}{}
	}
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return normalizeData(t)
	case primitive.M:
		return normalizeData(t)
	case primitive.D:
		m := make(map[string]interface{}, len(t))
		for _, e := range t {
			m[e.Key] = normalizeValue(e.Value)
		}
		return m
	case primitive.A:
		return normalizeSlice(t)
	case []interface{}:
		return normalizeSlice(t)
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.Timestamp:
		return time.Unix(int64(t.T), 0).UTC()
	case primitive.Binary:
		return append([]byte(nil), t.Data...)
	case primitive.Null, primitive.Undefined:
		return nil
	case int32:
		return int64(t)
	default:
		return v
	}
}

func normalizeSlice(in []interface{}) []interface{} {
	out := make([]interface{}, len(in))
	for i, e := range in {
		out[i] = normalizeValue(e)
	}
	return out
}
