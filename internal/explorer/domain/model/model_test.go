package model

import (
	"testing"

	apperrors "firestore-explorer/internal/shared/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupField(t *testing.T) {
	data := map[string]interface{}{
		"foo":       "a",
		"address":   map[string]interface{}{"city": "Lima"},
		"dotted.id": 7,
	}

	v, ok := LookupField(data, "foo")
	assert.True(t, ok)
	assert.Equal(t, "a", v)

	v, ok = LookupField(data, "address.city")
	assert.True(t, ok)
	assert.Equal(t, "Lima", v)

	v, ok = LookupField(data, "dotted.id")
	assert.True(t, ok)
	assert.Equal(t, 7, v)

	_, ok = LookupField(data, "address.zip")
	assert.False(t, ok)
	_, ok = LookupField(data, "foo.bar")
	assert.False(t, ok)
}

func TestDocumentClone_IsDeep(t *testing.T) {
	doc := &Document{ID: "a", Path: "c/a", Data: map[string]interface{}{
		"tags":   []interface{}{"x"},
		"nested": map[string]interface{}{"k": "v"},
	}}
	clone := doc.Clone()
	clone.Data["tags"].([]interface{})[0] = "changed"
	clone.Data["nested"].(map[string]interface{})["k"] = "changed"

	assert.Equal(t, "x", doc.Data["tags"].([]interface{})[0])
	assert.Equal(t, "v", doc.Data["nested"].(map[string]interface{})["k"])
	assert.Equal(t, "c", doc.CollectionPath())
}

func TestMergeData(t *testing.T) {
	base := map[string]interface{}{"a": 1, "m": map[string]interface{}{"x": 1, "y": 2}}
	patch := map[string]interface{}{"b": 2, "m": map[string]interface{}{"y": 3}}

	merged := MergeData(base, patch)
	assert.Equal(t, map[string]interface{}{
		"a": 1,
		"b": 2,
		"m": map[string]interface{}{"x": 1, "y": 3},
	}, merged)
	assert.Equal(t, 2, base["m"].(map[string]interface{})["y"])
}

func TestFilterValidate(t *testing.T) {
	valid := []Filter{
		{Field: "foo", Operator: OperatorEqual, Value: "a"},
		{Field: "foo", Operator: OperatorNotIn, Values: []interface{}{"a"}},
		{Field: "foo", Operator: OperatorSort},
		{Field: "foo", Operator: OperatorSort, Direction: Descending},
	}
	for _, f := range valid {
		f := f
		assert.NoError(t, f.Validate(), f.Operator)
	}

	invalid := []Filter{
		{Operator: OperatorEqual},
		{Field: "foo", Operator: "~="},
		{Field: "foo", Operator: OperatorIn},
		{Field: "foo", Operator: OperatorSort, Direction: "sideways"},
	}
	for _, f := range invalid {
		f := f
		err := f.Validate()
		require.Error(t, err, f.Operator)
		assert.ErrorIs(t, err, apperrors.ErrInvalidFilter)
	}
}

func TestViewOptionsValidate(t *testing.T) {
	assert.NoError(t, ViewOptions{}.Validate())
	assert.Error(t, ViewOptions{Limit: -1}.Validate())
}

func TestCollectionRef(t *testing.T) {
	ref, err := NewCollectionRef("/users/alice/posts")
	require.NoError(t, err)
	assert.Equal(t, "posts", ref.ID())
	assert.Equal(t, "users/alice", ref.ParentDocument())
	assert.Equal(t, "users/alice/posts/p1", ref.Doc("p1"))

	_, err = NewCollectionRef("users/alice")
	assert.Error(t, err)
}
