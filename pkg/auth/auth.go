// Package auth holds session credentials and their persistent stores.
//
// The access token is short-lived and consumed on every authenticated
// request; the refresh token is the only credential that survives a
// restart. Stores are the single place tokens are persisted, the
// client core is the single place they are invalidated wholesale.
package auth

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// expirySkew treats tokens about to expire as already expired so a
// request does not race the backend's clock.
const expirySkew = 30 * time.Second

// Credentials is the session token pair.
type Credentials struct {
	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the access token is missing or past its expiry.
// When no expiry was recorded, the JWT exp claim is consulted as a
// fallback; tokens with neither are assumed usable.
func (c Credentials) Expired(now time.Time) bool {
	if c.AccessToken == "" {
		return true
	}
	expiry := c.ExpiresAt
	if expiry.IsZero() {
		expiry = jwtExpiry(c.AccessToken)
	}
	if expiry.IsZero() {
		return false
	}
	return !now.Add(expirySkew).Before(expiry)
}

// jwtExpiry extracts the exp claim without verifying the signature.
// The SDK never trusts the token's contents, it only needs a refresh hint.
func jwtExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// Provider supplies and persists credentials for the HTTP client core.
// Implementations must be safe for concurrent use.
type Provider interface {
	Load() (Credentials, error)
	StoreAccess(token string, expiresAt time.Time) error
	StoreRefresh(token string) error
	Clear() error
}

// Memory is an in-process credential store. Suitable for tests and for
// callers that manage persistence themselves.
type Memory struct {
	mu    sync.RWMutex
	creds Credentials
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// NewMemoryWith creates an in-memory store seeded with credentials.
func NewMemoryWith(creds Credentials) *Memory {
	return &Memory{creds: creds}
}

func (m *Memory) Load() (Credentials, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.creds, nil
}

func (m *Memory) StoreAccess(token string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds.AccessToken = token
	m.creds.ExpiresAt = expiresAt
	return nil
}

func (m *Memory) StoreRefresh(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds.RefreshToken = token
	return nil
}

func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = Credentials{}
	return nil
}
