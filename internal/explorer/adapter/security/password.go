package security

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned when the admin password does not match.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AdminSubject is the token subject issued to the admin.
const AdminSubject = "admin"

// HashPassword returns a bcrypt hash suitable for AUTH_ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// AdminLogin exchanges the admin password for a token.
type AdminLogin struct {
	passwordHash []byte
	tokens       *TokenService
}

// NewAdminLogin returns nil when no password hash is configured.
func NewAdminLogin(passwordHash string, tokens *TokenService) *AdminLogin {
	if passwordHash == "" || tokens == nil {
		return nil
	}
	return &AdminLogin{passwordHash: []byte(passwordHash), tokens: tokens}
}

// Login verifies password and issues an admin token.
func (l *AdminLogin) Login(ctx context.Context, password string) (string, error) {
	if err := bcrypt.CompareHashAndPassword(l.passwordHash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return l.tokens.GenerateToken(ctx, AdminSubject)
}
