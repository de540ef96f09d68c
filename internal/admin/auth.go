// Package admin guards the admin panel with a single credential pair. The
// check is a plain credential match; there are no roles, refresh tokens, or
// account management.
package admin

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/vicky05092005/statatics-quiz/internal/config"
)

var (
	ErrInvalidCredentials = errors.New("invalid admin credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// Claims carried by an admin session token.
type Claims struct {
	AdminID string `json:"admin_id"`
	jwt.RegisteredClaims
}

// Auth issues and validates admin session tokens.
type Auth struct {
	adminID      string
	passwordHash string
	secret       []byte
	ttl          time.Duration
	logger       zerolog.Logger
}

// NewAuth builds the admin authenticator from config.
func NewAuth(cfg config.Admin, logger zerolog.Logger) *Auth {
	return &Auth{
		adminID:      cfg.ID,
		passwordHash: cfg.PasswordHash,
		secret:       []byte(cfg.JWTSecret),
		ttl:          cfg.TokenTTL,
		logger:       logger.With().Str("component", "admin_auth").Logger(),
	}
}

// Login matches the credential pair against the configured admin and returns
// a signed session token on success.
func (a *Auth) Login(id, password string) (string, error) {
	if id != a.adminID {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.passwordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	now := time.Now()
	claims := Claims{
		AdminID: id,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "statatics-quiz",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", err
	}
	a.logger.Info().Str("admin_id", id).Msg("admin login")
	return signed, nil
}

// Validate parses and verifies a session token.
func (a *Auth) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
