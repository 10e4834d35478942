package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_ErrorIncludesCause(t *testing.T) {
	err := NewInternalError("store failed").WithCause(fmt.Errorf("connection reset"))
	assert.Equal(t, "store failed: connection reset", err.Error())
	assert.Equal(t, http.StatusInternalServerError, err.HTTPCode)
	assert.Equal(t, CodeInternal, err.Code)
}

func TestAppError_WithDetail(t *testing.T) {
	err := NewValidationError("bad path").WithDetail("path", "a/b").WithComponent("paths")
	assert.Equal(t, "a/b", err.Details["path"])
	assert.Equal(t, "paths", err.Component)
	assert.Equal(t, CodeInvalidArgument, err.Code)
}

func TestClassifiers(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"not found app error", NewNotFoundError("document"), IsNotFound},
		{"not found sentinel", fmt.Errorf("get: %w", ErrDocumentNotFound), IsNotFound},
		{"validation app error", NewValidationError("x"), IsValidation},
		{"validation sentinel", fmt.Errorf("parse: %w", ErrInvalidPath), IsValidation},
		{"conflict", fmt.Errorf("create: %w", ErrDocumentExists), IsConflict},
		{"precondition", NewPreconditionError("confirm first"), IsPrecondition},
		{"precondition sentinel", ErrDeleteNotConfirmed, IsPrecondition},
		{"authentication", NewAuthenticationError("no token"), IsAuthentication},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
		})
	}
}

func TestWrapError_KeepsAppError(t *testing.T) {
	original := NewConflictError("exists")
	wrapped := WrapError(fmt.Errorf("outer: %w", original), "ignored")
	require.NotNil(t, wrapped)
	assert.Same(t, original, wrapped)

	plain := WrapError(fmt.Errorf("boom"), "store failure")
	assert.Equal(t, ErrorTypeInternal, plain.Type)
	assert.Contains(t, plain.Error(), "boom")
}
