package firestore

import (
	"strings"
	"testing"

	apperrors "firestore-explorer/internal/shared/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePath(t *testing.T) {
	info, err := ParsePath("/users/alice/posts/")
	require.NoError(t, err)
	assert.Equal(t, "users/alice/posts", info.Path)
	assert.True(t, info.IsCollection)
	assert.False(t, info.IsDocument)
	assert.Equal(t, []string{"users", "alice", "posts"}, info.Segments)

	info, err = ParsePath("users/@#$")
	require.NoError(t, err)
	assert.True(t, info.IsDocument)
}

func TestParsePath_Invalid(t *testing.T) {
	for _, p := range []string{"", "/", "users/..", "users/__name__", "users/" + strings.Repeat("x", MaxIDLength+1)} {
		_, err := ParsePath(p)
		assert.Error(t, err, p)
		assert.True(t, apperrors.IsValidation(err), p)
	}
}

func TestValidateCollectionAndDocumentPath(t *testing.T) {
	p, err := ValidateCollectionPath("users")
	require.NoError(t, err)
	assert.Equal(t, "users", p)

	_, err = ValidateCollectionPath("users/alice")
	assert.ErrorIs(t, err, apperrors.ErrInvalidPath)

	p, err = ValidateDocumentPath("users/alice")
	require.NoError(t, err)
	assert.Equal(t, "users/alice", p)

	_, err = ValidateDocumentPath("users")
	assert.ErrorIs(t, err, apperrors.ErrInvalidPath)
}

func TestEncodeSegment_MatchesEncodeURIComponent(t *testing.T) {
	tests := map[string]string{
		"@#$":         "%40%23%24",
		"plain-id_1.": "plain-id_1.",
		"a b":         "a%20b",
		"!'()*~":      "!'()*~",
		"a+b":         "a%2Bb",
		"q?x=1&y":     "q%3Fx%3D1%26y",
		"ñ":           "%C3%B1",
	}
	for in, want := range tests {
		assert.Equal(t, want, EncodeSegment(in), in)
	}
}

func TestDocumentRoute(t *testing.T) {
	assert.Equal(t, "/firestore/data/coll/%40%23%24", DocumentRoute("/firestore/data", "coll", "@#$"))
	assert.Equal(t, "/firestore/data/users/a%20b/posts/p1", DocumentRoute("firestore/data/", "users/a b/posts", "p1"))
	assert.Equal(t, "/coll/doc", DocumentRoute("", "coll", "doc"))
}

func TestDecodePath(t *testing.T) {
	decoded, err := DecodePath("coll/%40%23%24")
	require.NoError(t, err)
	assert.Equal(t, "coll/@#$", decoded)

	_, err = DecodePath("coll/%zz")
	assert.True(t, apperrors.IsValidation(err))
}

func TestPathHelpers(t *testing.T) {
	assert.Equal(t, "users/alice", ParentPath("users/alice/posts"))
	assert.Equal(t, "", ParentPath("users"))
	assert.Equal(t, "posts", LastSegment("users/alice/posts"))
	assert.Equal(t, "users/alice/posts", JoinPaths("users/", "", "/alice", "posts"))
	assert.True(t, IsWithin("users/alice/posts/p1", "users"))
	assert.True(t, IsWithin("users", "users"))
	assert.False(t, IsWithin("usersX/a", "users"))
}
