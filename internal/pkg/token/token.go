package token

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/picme-app/picme/internal/pkg/env"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the JWT payload issued at login. The user id travels in the
// registered subject claim.
type Claims struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// Manager signs and parses API tokens with an HMAC secret.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

// NewManager creates a token manager for the given secret and lifetime.
func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl}
}

// NewManagerFromEnv reads JWT_SECRET and JWT_TTL_HOURS from the environment.
func NewManagerFromEnv() *Manager {
	secret := env.GetEnv("JWT_SECRET", "")
	ttl := 72 * time.Hour
	if v := env.GetEnv("JWT_TTL_HOURS", ""); v != "" {
		if hours, err := strconv.Atoi(v); err == nil && hours > 0 {
			ttl = time.Duration(hours) * time.Hour
		}
	}
	return NewManager(secret, ttl)
}

// Generate mints a signed token for the user.
func (m *Manager) Generate(userID uint, username string, isAdmin bool) (string, error) {
	if len(m.secret) == 0 {
		return "", errors.New("jwt secret is not configured")
	}
	now := time.Now()
	claims := Claims{
		Username: username,
		IsAdmin:  isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Parse validates a signed token and returns its claims.
func (m *Manager) Parse(signed string) (*Claims, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(signed, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil || !tkn.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// UserID extracts the numeric user id from the subject claim.
func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return uint(id), nil
}
