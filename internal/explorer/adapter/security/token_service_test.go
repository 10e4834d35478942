package security

import (
	"context"
	"testing"
	"time"

	"firestore-explorer/internal/explorer/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret: "test-secret-key-32-characters-long-12345",
		Issuer:    "test-issuer",
		TokenTTL:  15 * time.Minute,
	}
}

func TestNewTokenService_ValidationErrors(t *testing.T) {
	testCases := []struct {
		name        string
		modify      func(*config.AuthConfig)
		expectedErr string
	}{
		{"empty secret", func(c *config.AuthConfig) { c.JWTSecret = "" }, "jwt secret key cannot be empty"},
		{"empty issuer", func(c *config.AuthConfig) { c.Issuer = "" }, "jwt issuer cannot be empty"},
		{"zero ttl", func(c *config.AuthConfig) { c.TokenTTL = 0 }, "jwt token TTL must be positive"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testAuthConfig()
			tc.modify(&cfg)
			_, err := NewTokenService(cfg)
			assert.EqualError(t, err, tc.expectedErr)
		})
	}
}

func TestTokenService_RoundTrip(t *testing.T) {
	svc, err := NewTokenService(testAuthConfig())
	require.NoError(t, err)

	token, err := svc.GenerateToken(context.Background(), "admin")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Subject)
	assert.Equal(t, "test-issuer", claims.Issuer)

	_, err = svc.GenerateToken(context.Background(), "")
	assert.Error(t, err)
}

func TestTokenService_Expired(t *testing.T) {
	svc, err := NewTokenService(testAuthConfig())
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, err := svc.GenerateToken(context.Background(), "admin")
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenService_RejectsForeignTokens(t *testing.T) {
	svc, err := NewTokenService(testAuthConfig())
	require.NoError(t, err)

	other := testAuthConfig()
	other.JWTSecret = "another-secret-key-32-characters-long-00"
	otherSvc, err := NewTokenService(other)
	require.NoError(t, err)
	foreign, err := otherSvc.GenerateToken(context.Background(), "admin")
	require.NoError(t, err)

	_, err = svc.ValidateToken(context.Background(), foreign)
	assert.ErrorIs(t, err, ErrTokenSignatureInvalid)

	wrongIssuer := testAuthConfig()
	wrongIssuer.Issuer = "someone-else"
	issuerSvc, err := NewTokenService(wrongIssuer)
	require.NoError(t, err)
	token, err := issuerSvc.GenerateToken(context.Background(), "admin")
	require.NoError(t, err)
	_, err = svc.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "admin", Issuer: "test-issuer"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.ValidateToken(context.Background(), unsigned)
	assert.Error(t, err)

	_, err = svc.ValidateToken(context.Background(), "")
	assert.ErrorIs(t, err, ErrTokenInvalid)
	_, err = svc.ValidateToken(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
