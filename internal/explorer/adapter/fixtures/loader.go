// Package fixtures loads seed documents from YAML.
//
//	documents:
//	  - path: users/alice
//	    data:
//	      name: Alice
//	      tags: [admin]
package fixtures

import (
	"fmt"
	"os"

	"firestore-explorer/internal/shared/errors"
	"firestore-explorer/internal/shared/firestore"

	"gopkg.in/yaml.v3"
)

// Document is a single seeded document.
type Document struct {
	Path string                 `yaml:"path"`
	Data map[string]interface{} `yaml:"data"`
}

// Fixture is the root of a seed file.
type Fixture struct {
	Documents []Document `yaml:"documents"`
}

// LoadFile reads and parses a seed file.
func LoadFile(path string) (*Fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes YAML and validates every document path.
func Parse(raw []byte) (*Fixture, error) {
	var fx Fixture
	if err := yaml.Unmarshal(raw, &fx); err != nil {
		return nil, errors.NewValidationError("malformed fixture").WithCause(err)
	}

	for i := range fx.Documents {
		doc := &fx.Documents[i]
		path, err := firestore.ValidateDocumentPath(doc.Path)
		if err != nil {
			return nil, err
		}
		doc.Path = path
		doc.Data = normalizeMap(doc.Data)
	}
	return &fx, nil
}

// normalizeMap turns YAML's map[interface{}]interface{} nodes into string-keyed maps.
func normalizeMap(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return normalizeMap(t)
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, e := range t {
			m[fmt.Sprint(k)] = normalizeValue(e)
		}
		return m
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = normalizeValue(e)
		}
		return out
	default:
		return v
	}
}
