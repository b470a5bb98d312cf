package security

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidSession = errors.New("invalid session")
	ErrExpiredSession = errors.New("session has expired")
)

// SessionClaims are the claims embedded in a session cookie token.
type SessionClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// SessionManager issues and validates session tokens. Tokens are signed
// JWTs so validation needs no storage lookup; logout revokes the token's
// JTI server-side until its natural expiry.
type SessionManager interface {
	CreateSession(username string) (string, error)
	IsValidSession(token string) bool
	GetUsername(token string) (string, error)
	DeleteSession(token string) error
	PurgeExpired()
}

type sessionManager struct {
	secret []byte
	expiry time.Duration

	mu      sync.RWMutex
	revoked map[string]time.Time // jti -> token expiry
}

func NewSessionManager(secret string, expiry time.Duration) SessionManager {
	return &sessionManager{
		secret:  []byte(secret),
		expiry:  expiry,
		revoked: make(map[string]time.Time),
	}
}

func (m *sessionManager) CreateSession(username string) (string, error) {
	claims := SessionClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.expiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "lendtrust",
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *sessionManager) parse(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSession
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredSession
		}
		return nil, ErrInvalidSession
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidSession
	}

	m.mu.RLock()
	_, revoked := m.revoked[claims.ID]
	m.mu.RUnlock()
	if revoked {
		return nil, ErrInvalidSession
	}
	return claims, nil
}

func (m *sessionManager) IsValidSession(token string) bool {
	_, err := m.parse(token)
	return err == nil
}

func (m *sessionManager) GetUsername(token string) (string, error) {
	claims, err := m.parse(token)
	if err != nil {
		return "", err
	}
	return claims.Username, nil
}

func (m *sessionManager) DeleteSession(token string) error {
	claims, err := m.parse(token)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[claims.ID] = claims.ExpiresAt.Time
	return nil
}

// PurgeExpired drops revocation entries whose tokens have expired anyway.
// Run periodically; the map only grows between calls.
func (m *sessionManager) PurgeExpired() {
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for jti, exp := range m.revoked {
		if exp.Before(now) {
			delete(m.revoked, jti)
		}
	}
}
