package security

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminLogin(t *testing.T) {
	tokens, err := NewTokenService(testAuthConfig())
	require.NoError(t, err)

	hash, err := HashPassword("hunter2")
	require.NoError(t, err)

	login := NewAdminLogin(hash, tokens)
	require.NotNil(t, login)

	token, err := login.Login(context.Background(), "hunter2")
	require.NoError(t, err)
	claims, err := tokens.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, AdminSubject, claims.Subject)

	_, err = login.Login(context.Background(), "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestNewAdminLogin_Disabled(t *testing.T) {
	tokens, err := NewTokenService(testAuthConfig())
	require.NoError(t, err)

	assert.Nil(t, NewAdminLogin("", tokens))
	assert.Nil(t, NewAdminLogin("$2a$10$hash", nil))

	_, err = HashPassword("")
	assert.Error(t, err)
}
