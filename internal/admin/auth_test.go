package admin

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vicky05092005/statatics-quiz/internal/config"
)

func newTestAuth(t *testing.T, ttl time.Duration) *Auth {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("letmein"), bcrypt.MinCost)
	require.NoError(t, err)
	return NewAuth(config.Admin{
		ID:           "admin",
		PasswordHash: string(hash),
		JWTSecret:    "test-secret",
		TokenTTL:     ttl,
	}, zerolog.Nop())
}

func TestLoginIssuesValidToken(t *testing.T) {
	auth := newTestAuth(t, time.Hour)

	token, err := auth.Login("admin", "letmein")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := auth.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.AdminID)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	auth := newTestAuth(t, time.Hour)

	_, err := auth.Login("admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.Login("intruder", "letmein")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateRejectsGarbage(t *testing.T) {
	auth := newTestAuth(t, time.Hour)

	_, err := auth.Validate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = auth.Validate("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsForeignSecret(t *testing.T) {
	auth := newTestAuth(t, time.Hour)
	token, err := auth.Login("admin", "letmein")
	require.NoError(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte("letmein"), bcrypt.MinCost)
	require.NoError(t, err)
	other := NewAuth(config.Admin{
		ID:           "admin",
		PasswordHash: string(hash),
		JWTSecret:    "different-secret",
		TokenTTL:     time.Hour,
	}, zerolog.Nop())

	_, err = other.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	auth := newTestAuth(t, -time.Minute)
	token, err := auth.Login("admin", "letmein")
	require.NoError(t, err)

	_, err = auth.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
