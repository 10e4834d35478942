package utils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-42")
	id, err := GetRequestIDFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "req-42", id)
}

func TestSubjectMissing(t *testing.T) {
	_, err := GetSubjectFromContext(context.Background())
	assert.ErrorIs(t, err, ErrSubjectNotFound)

	_, err = GetRequestIDFromContext(WithRequestID(context.Background(), ""))
	assert.ErrorIs(t, err, ErrRequestIDNotFound)
}
