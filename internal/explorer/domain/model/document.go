package model

import (
	"time"

	"firestore-explorer/internal/shared/firestore"
)

// Document is a stored record: an ID within its collection plus field data.
type Document struct {
	ID         string                 `json:"id" bson:"id"`
	Path       string                 `json:"path" bson:"path"`
	Data       map[string]interface{} `json:"data" bson:"data"`
	CreateTime time.Time              `json:"createTime" bson:"create_time"`
	UpdateTime time.Time              `json:"updateTime" bson:"update_time"`
}

// CollectionPath returns the path of the collection holding the document.
func (d *Document) CollectionPath() string {
	return firestore.ParentPath(d.Path)
}

// Field returns the value stored under a dot separated field path.
func (d *Document) Field(fieldPath string) (interface{}, bool) {
	return LookupField(d.Data, fieldPath)
}

// Clone returns a deep copy so callers can mutate data without touching the store.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := *d
	out.Data = CloneData(d.Data)
	return &out
}

// CloneData deep-copies nested maps and slices.
func CloneData(data map[string]interface{}) map[string]interface{} {
	if data == nil {
		return nil
	}
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return CloneData(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []byte:
		return append([]byte(nil), t...)
	default:
		return v
	}
}

// MergeData returns base overlaid with patch. Nested maps merge recursively.
func MergeData(base, patch map[string]interface{}) map[string]interface{} {
	out := CloneData(base)
	if out == nil {
		out = make(map[string]interface{}, len(patch))
	}
	for k, v := range patch {
		if pm, ok := v.(map[string]interface{}); ok {
			if bm, ok := out[k].(map[string]interface{}); ok {
				out[k] = MergeData(bm, pm)
				continue
			}
		}
		out[k] = cloneValue(v)
	}
	return out
}
